package controller

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/neoarchive/neoarchive/internal/cache"
	"github.com/neoarchive/neoarchive/internal/propagate"
	"github.com/neoarchive/neoarchive/internal/repository"
)

var validate = validator.New()

// FuncCrudService adapts a set of cache methods to CrudService.
type FuncCrudService[T any] struct {
	AllFn    func() []T
	GetFn    func(key string) (T, bool)
	CreateFn func(item T) (T, *propagate.Ticket)
	UpdateFn func(item T) (bool, *propagate.Ticket)
	DeleteFn func(key string) *propagate.Ticket
}

func (s *FuncCrudService[T]) All() []T { return s.AllFn() }

func (s *FuncCrudService[T]) Get(key string) (T, bool) { return s.GetFn(key) }

func (s *FuncCrudService[T]) Create(item T) (T, *propagate.Ticket) { return s.CreateFn(item) }

func (s *FuncCrudService[T]) Update(item T) (bool, *propagate.Ticket) { return s.UpdateFn(item) }

func (s *FuncCrudService[T]) Delete(key string) *propagate.Ticket { return s.DeleteFn(key) }

// StructValidator implements CrudValidator with the `validate` struct tags.
type StructValidator[T any] struct{}

func (StructValidator[T]) Validate(item T) error {
	return validate.Struct(item)
}

// UserCrudService keeps password hashes out of API responses and stops
// profile edits from overwriting them.
type UserCrudService struct {
	Store cache.UserStore
}

func (s *UserCrudService) All() []repository.UserProfile {
	users := s.Store.Users()
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users
}

func (s *UserCrudService) Get(username string) (repository.UserProfile, bool) {
	u, ok := s.Store.User(username)
	u.PasswordHash = ""
	return u, ok
}

// Create stores a profile without credentials; accounts that can log in are
// made through the session endpoints.
func (s *UserCrudService) Create(u repository.UserProfile) (repository.UserProfile, *propagate.Ticket) {
	if existing, ok := s.Store.User(u.Username); ok {
		u.PasswordHash = existing.PasswordHash
	} else {
		u.PasswordHash = ""
	}
	created, ticket := s.Store.CreateUser(u)
	created.PasswordHash = ""
	return created, ticket
}

func (s *UserCrudService) Update(u repository.UserProfile) (bool, *propagate.Ticket) {
	existing, ok := s.Store.User(u.Username)
	if !ok {
		return false, propagate.Resolved(nil)
	}
	u.PasswordHash = existing.PasswordHash
	return s.Store.UpdateUser(u)
}

func (s *UserCrudService) Delete(username string) *propagate.Ticket {
	return s.Store.DeleteUser(username)
}

func NewUserController(store cache.UserStore) *CrudController[repository.UserProfile] {
	return &CrudController[repository.UserProfile]{
		Service:   &UserCrudService{Store: store},
		Validator: StructValidator[repository.UserProfile]{},
		SetKey:    func(u *repository.UserProfile, key string) { u.Username = key },
		Component: "user-controller",
	}
}

func NewExhibitController(store cache.ExhibitStore) *CrudController[repository.Exhibit] {
	return &CrudController[repository.Exhibit]{
		Service: &FuncCrudService[repository.Exhibit]{
			AllFn:    store.Exhibits,
			GetFn:    store.Exhibit,
			CreateFn: store.CreateExhibit,
			UpdateFn: store.UpdateExhibit,
			DeleteFn: store.DeleteExhibit,
		},
		Validator: StructValidator[repository.Exhibit]{},
		SetKey:    func(e *repository.Exhibit, key string) { e.ID = key },
		Filters: map[string]Filter[repository.Exhibit]{
			"owner":    func(e repository.Exhibit, v string) bool { return e.Owner == v },
			"category": func(e repository.Exhibit, v string) bool { return strings.EqualFold(e.Category, v) },
		},
		Component: "exhibit-controller",
	}
}

func NewCollectionController(store cache.CollectionStore) *CrudController[repository.Collection] {
	return &CrudController[repository.Collection]{
		Service: &FuncCrudService[repository.Collection]{
			AllFn:    store.Collections,
			GetFn:    store.Collection,
			CreateFn: store.CreateCollection,
			UpdateFn: store.UpdateCollection,
			DeleteFn: store.DeleteCollection,
		},
		Validator: StructValidator[repository.Collection]{},
		SetKey:    func(c *repository.Collection, key string) { c.ID = key },
		Filters: map[string]Filter[repository.Collection]{
			"owner": func(c repository.Collection, v string) bool { return c.Owner == v },
		},
		Component: "collection-controller",
	}
}

func NewNotificationController(store cache.NotificationStore) *CrudController[repository.Notification] {
	return &CrudController[repository.Notification]{
		Service: &FuncCrudService[repository.Notification]{
			AllFn:    store.Notifications,
			GetFn:    store.Notification,
			CreateFn: store.CreateNotification,
			UpdateFn: store.UpdateNotification,
			DeleteFn: store.DeleteNotification,
		},
		Validator: StructValidator[repository.Notification]{},
		SetKey:    func(n *repository.Notification, key string) { n.ID = key },
		Filters: map[string]Filter[repository.Notification]{
			"recipient": func(n repository.Notification, v string) bool { return n.Recipient == v },
			"unread":    func(n repository.Notification, v string) bool { return v != "true" || !n.IsRead },
		},
		Component: "notification-controller",
	}
}

func NewMessageController(store cache.MessageStore) *CrudController[repository.Message] {
	return &CrudController[repository.Message]{
		Service: &FuncCrudService[repository.Message]{
			AllFn:    store.Messages,
			GetFn:    store.Message,
			CreateFn: store.CreateMessage,
			UpdateFn: store.UpdateMessage,
			DeleteFn: store.DeleteMessage,
		},
		Validator: StructValidator[repository.Message]{},
		SetKey:    func(m *repository.Message, key string) { m.ID = key },
		Filters: map[string]Filter[repository.Message]{
			"user": func(m repository.Message, v string) bool { return m.Sender == v || m.Receiver == v },
			// between=a,b selects the conversation of a and b
			"between": func(m repository.Message, v string) bool {
				a, b, ok := strings.Cut(v, ",")
				if !ok {
					return false
				}
				return (m.Sender == a && m.Receiver == b) || (m.Sender == b && m.Receiver == a)
			},
		},
		Component: "message-controller",
	}
}

func NewGuestbookController(store cache.GuestbookStore) *CrudController[repository.GuestbookEntry] {
	return &CrudController[repository.GuestbookEntry]{
		Service: &FuncCrudService[repository.GuestbookEntry]{
			AllFn:    store.GuestbookEntries,
			GetFn:    store.GuestbookEntry,
			CreateFn: store.CreateGuestbookEntry,
			UpdateFn: store.UpdateGuestbookEntry,
			DeleteFn: store.DeleteGuestbookEntry,
		},
		Validator: StructValidator[repository.GuestbookEntry]{},
		SetKey:    func(g *repository.GuestbookEntry, key string) { g.ID = key },
		Filters: map[string]Filter[repository.GuestbookEntry]{
			"target": func(g repository.GuestbookEntry, v string) bool { return g.TargetUser == v },
			"author": func(g repository.GuestbookEntry, v string) bool { return g.Author == v },
		},
		Component: "guestbook-controller",
	}
}
