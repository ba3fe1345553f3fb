package cache

import (
	"github.com/neoarchive/neoarchive/internal/propagate"
	"github.com/neoarchive/neoarchive/internal/repository"
)

// Users returns every profile.
func (s *Store) Users() []repository.UserProfile { return listAll(s, userKind) }

// User returns the profile for username.
func (s *Store) User(username string) (repository.UserProfile, bool) {
	return find(s, userKind, username)
}

// CreateUser stores a new profile, or replaces one with the same username.
func (s *Store) CreateUser(u repository.UserProfile) (repository.UserProfile, *propagate.Ticket) {
	if u.JoinedAt == "" {
		u.JoinedAt = s.stamp()
	}
	normalizeUser(&u)
	return u, insert(s, userKind, u)
}

// CreateUserIfAbsent stores u only when its username is free. It reports
// false, and changes nothing, when the username is taken.
func (s *Store) CreateUserIfAbsent(u repository.UserProfile) (repository.UserProfile, bool, *propagate.Ticket) {
	if u.JoinedAt == "" {
		u.JoinedAt = s.stamp()
	}
	normalizeUser(&u)
	created, ticket := insertIfAbsent(s, userKind, u)
	return u, created, ticket
}

// UpdateUser replaces an existing profile; unknown usernames are ignored.
func (s *Store) UpdateUser(u repository.UserProfile) (bool, *propagate.Ticket) {
	normalizeUser(&u)
	return replace(s, userKind, u)
}

// DeleteUser removes a profile locally and remotely.
func (s *Store) DeleteUser(username string) *propagate.Ticket {
	return remove(s, userKind, username)
}

// Exhibits returns every exhibit, newest first.
func (s *Store) Exhibits() []repository.Exhibit { return listAll(s, exhibitKind) }

func (s *Store) Exhibit(id string) (repository.Exhibit, bool) { return find(s, exhibitKind, id) }

// ExhibitsByOwner returns the exhibits owned by username.
func (s *Store) ExhibitsByOwner(username string) []repository.Exhibit {
	return filter(s, exhibitKind, func(e repository.Exhibit) bool { return e.Owner == username })
}

// CreateExhibit assigns a slug id and timestamp when missing and stores e at the front.
func (s *Store) CreateExhibit(e repository.Exhibit) (repository.Exhibit, *propagate.Ticket) {
	now := s.now()
	if e.ID == "" {
		e.ID = newSlug(e.Title, now)
	}
	if e.Slug == "" {
		e.Slug = e.ID
	}
	if e.Timestamp == "" {
		e.Timestamp = repository.FormatTimestamp(now)
	}
	s.normalizeExhibit(&e)
	return e, insert(s, exhibitKind, e)
}

func (s *Store) UpdateExhibit(e repository.Exhibit) (bool, *propagate.Ticket) {
	s.normalizeExhibit(&e)
	return replace(s, exhibitKind, e)
}

func (s *Store) DeleteExhibit(id string) *propagate.Ticket { return remove(s, exhibitKind, id) }

// Collections returns every collection, newest first.
func (s *Store) Collections() []repository.Collection { return listAll(s, collectionKind) }

func (s *Store) Collection(id string) (repository.Collection, bool) {
	return find(s, collectionKind, id)
}

func (s *Store) CollectionsByOwner(username string) []repository.Collection {
	return filter(s, collectionKind, func(c repository.Collection) bool { return c.Owner == username })
}

func (s *Store) CreateCollection(c repository.Collection) (repository.Collection, *propagate.Ticket) {
	now := s.now()
	if c.ID == "" {
		c.ID = newSlug(c.Title, now)
	}
	if c.Slug == "" {
		c.Slug = c.ID
	}
	if c.Timestamp == "" {
		c.Timestamp = repository.FormatTimestamp(now)
	}
	if c.ExhibitIDs == nil {
		c.ExhibitIDs = []string{}
	}
	return c, insert(s, collectionKind, c)
}

func (s *Store) UpdateCollection(c repository.Collection) (bool, *propagate.Ticket) {
	if c.ExhibitIDs == nil {
		c.ExhibitIDs = []string{}
	}
	return replace(s, collectionKind, c)
}

func (s *Store) DeleteCollection(id string) *propagate.Ticket {
	return remove(s, collectionKind, id)
}

// Notifications returns every notification, newest first.
func (s *Store) Notifications() []repository.Notification { return listAll(s, notificationKind) }

func (s *Store) Notification(id string) (repository.Notification, bool) {
	return find(s, notificationKind, id)
}

// NotificationsFor returns the notifications addressed to username.
func (s *Store) NotificationsFor(username string) []repository.Notification {
	return filter(s, notificationKind, func(n repository.Notification) bool { return n.Recipient == username })
}

func (s *Store) CreateNotification(n repository.Notification) (repository.Notification, *propagate.Ticket) {
	if n.ID == "" {
		n.ID = s.newID()
	}
	if n.Timestamp == "" {
		n.Timestamp = s.stamp()
	}
	return n, insert(s, notificationKind, n)
}

func (s *Store) UpdateNotification(n repository.Notification) (bool, *propagate.Ticket) {
	return replace(s, notificationKind, n)
}

func (s *Store) DeleteNotification(id string) *propagate.Ticket {
	return remove(s, notificationKind, id)
}

// Messages returns every message in conversation order, oldest first.
func (s *Store) Messages() []repository.Message { return listAll(s, messageKind) }

func (s *Store) Message(id string) (repository.Message, bool) { return find(s, messageKind, id) }

// Conversation returns the messages exchanged between a and b, oldest first.
func (s *Store) Conversation(a, b string) []repository.Message {
	return filter(s, messageKind, func(m repository.Message) bool {
		return (m.Sender == a && m.Receiver == b) || (m.Sender == b && m.Receiver == a)
	})
}

// CreateMessage appends m to the end of the conversation log.
func (s *Store) CreateMessage(m repository.Message) (repository.Message, *propagate.Ticket) {
	if m.ID == "" {
		m.ID = s.newID()
	}
	if m.Timestamp == "" {
		m.Timestamp = s.stamp()
	}
	return m, insert(s, messageKind, m)
}

func (s *Store) UpdateMessage(m repository.Message) (bool, *propagate.Ticket) {
	return replace(s, messageKind, m)
}

func (s *Store) DeleteMessage(id string) *propagate.Ticket { return remove(s, messageKind, id) }

// GuestbookEntries returns every guestbook entry, newest first.
func (s *Store) GuestbookEntries() []repository.GuestbookEntry { return listAll(s, guestbookKind) }

func (s *Store) GuestbookEntry(id string) (repository.GuestbookEntry, bool) {
	return find(s, guestbookKind, id)
}

// GuestbookFor returns the entries left on username's page.
func (s *Store) GuestbookFor(username string) []repository.GuestbookEntry {
	return filter(s, guestbookKind, func(g repository.GuestbookEntry) bool { return g.TargetUser == username })
}

func (s *Store) CreateGuestbookEntry(g repository.GuestbookEntry) (repository.GuestbookEntry, *propagate.Ticket) {
	if g.ID == "" {
		g.ID = s.newID()
	}
	if g.Timestamp == "" {
		g.Timestamp = s.stamp()
	}
	return g, insert(s, guestbookKind, g)
}

func (s *Store) UpdateGuestbookEntry(g repository.GuestbookEntry) (bool, *propagate.Ticket) {
	return replace(s, guestbookKind, g)
}

func (s *Store) DeleteGuestbookEntry(id string) *propagate.Ticket {
	return remove(s, guestbookKind, id)
}

func normalizeUser(u *repository.UserProfile) {
	if u.Following == nil {
		u.Following = []string{}
	}
	if u.Achievements == nil {
		u.Achievements = []string{}
	}
}

func (s *Store) normalizeExhibit(e *repository.Exhibit) {
	if e.LikedBy == nil {
		e.LikedBy = []string{}
	}
	if e.Images == nil {
		e.Images = []string{}
	}
	if e.Comments == nil {
		e.Comments = []repository.Comment{}
	}
	e.Comments = append([]repository.Comment{}, e.Comments...)
	for i := range e.Comments {
		if e.Comments[i].ID == "" {
			e.Comments[i].ID = s.newID()
		}
		if e.Comments[i].Timestamp == "" {
			e.Comments[i].Timestamp = s.stamp()
		}
	}
}
