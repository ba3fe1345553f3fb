package cache

import (
	"context"

	"github.com/neoarchive/neoarchive/internal/propagate"
	"github.com/neoarchive/neoarchive/internal/remote"
	"github.com/neoarchive/neoarchive/internal/repository"
)

// Propagator receives every mutation for remote delivery.
// propagate.Propagator implements it.
type Propagator interface {
	Upsert(table remote.Table, key string, record any) *propagate.Ticket
	Delete(table remote.Table, key string) *propagate.Ticket
}

// ReadOnlyStore is the minimal cache API for read-only consumers.
type ReadOnlyStore interface {
	Snapshot() (repository.Dataset, error)
}

// PersistableStore is the cache API needed by the persistence scheduler.
type PersistableStore interface {
	IsDirty() bool
	Flush(ctx context.Context) error
}

// UserDirectory is the cache API needed by the session manager.
type UserDirectory interface {
	User(username string) (repository.UserProfile, bool)
	CreateUserIfAbsent(u repository.UserProfile) (repository.UserProfile, bool, *propagate.Ticket)
}

// SyncTarget is the cache API needed by the sync orchestrator.
type SyncTarget interface {
	ReadOnlyStore
	Replace(doc repository.Dataset) error
	Apply(ctx context.Context, fn func(local repository.Dataset) repository.Dataset) error
	Reset()
}

// UserStore is the cache API needed by the user endpoints.
type UserStore interface {
	Users() []repository.UserProfile
	User(username string) (repository.UserProfile, bool)
	CreateUser(u repository.UserProfile) (repository.UserProfile, *propagate.Ticket)
	UpdateUser(u repository.UserProfile) (bool, *propagate.Ticket)
	DeleteUser(username string) *propagate.Ticket
}

// ExhibitStore is the cache API needed by the exhibit endpoints.
type ExhibitStore interface {
	Exhibits() []repository.Exhibit
	Exhibit(id string) (repository.Exhibit, bool)
	CreateExhibit(e repository.Exhibit) (repository.Exhibit, *propagate.Ticket)
	UpdateExhibit(e repository.Exhibit) (bool, *propagate.Ticket)
	DeleteExhibit(id string) *propagate.Ticket
}

// CollectionStore is the cache API needed by the collection endpoints.
type CollectionStore interface {
	Collections() []repository.Collection
	Collection(id string) (repository.Collection, bool)
	CreateCollection(c repository.Collection) (repository.Collection, *propagate.Ticket)
	UpdateCollection(c repository.Collection) (bool, *propagate.Ticket)
	DeleteCollection(id string) *propagate.Ticket
}

// NotificationStore is the cache API needed by the notification endpoints.
type NotificationStore interface {
	Notifications() []repository.Notification
	Notification(id string) (repository.Notification, bool)
	CreateNotification(n repository.Notification) (repository.Notification, *propagate.Ticket)
	UpdateNotification(n repository.Notification) (bool, *propagate.Ticket)
	DeleteNotification(id string) *propagate.Ticket
	MarkNotificationsRead(username string) (int, *propagate.Ticket)
}

// MessageStore is the cache API needed by the message endpoints.
type MessageStore interface {
	Messages() []repository.Message
	Message(id string) (repository.Message, bool)
	CreateMessage(m repository.Message) (repository.Message, *propagate.Ticket)
	UpdateMessage(m repository.Message) (bool, *propagate.Ticket)
	DeleteMessage(id string) *propagate.Ticket
	MarkConversationRead(reader, peer string) (int, *propagate.Ticket)
}

// GuestbookStore is the cache API needed by the guestbook endpoints.
type GuestbookStore interface {
	GuestbookEntries() []repository.GuestbookEntry
	GuestbookEntry(id string) (repository.GuestbookEntry, bool)
	CreateGuestbookEntry(g repository.GuestbookEntry) (repository.GuestbookEntry, *propagate.Ticket)
	UpdateGuestbookEntry(g repository.GuestbookEntry) (bool, *propagate.Ticket)
	DeleteGuestbookEntry(id string) *propagate.Ticket
}

// InteractionStore is the cache API for likes, comments, views and follows.
type InteractionStore interface {
	ToggleLike(exhibitID, username string) (bool, *propagate.Ticket)
	AddComment(exhibitID string, c repository.Comment) (repository.Comment, bool, *propagate.Ticket)
	DeleteComment(exhibitID, commentID string) (bool, *propagate.Ticket)
	RecordView(exhibitID string) (int, *propagate.Ticket)
	ToggleFollow(follower, target string) (bool, *propagate.Ticket)
}
