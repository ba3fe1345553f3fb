package cache

import (
	"github.com/neoarchive/neoarchive/internal/propagate"
	"github.com/neoarchive/neoarchive/internal/repository"
)

// ToggleLike adds or removes username from the exhibit's likes. It reports
// whether the exhibit is now liked by username; unknown exhibits yield false.
func (s *Store) ToggleLike(exhibitID, username string) (bool, *propagate.Ticket) {
	liked := false
	_, changed, ticket := modify(s, exhibitKind, exhibitID, func(e *repository.Exhibit) bool {
		if i := indexOfString(e.LikedBy, username); i >= 0 {
			e.LikedBy = append(e.LikedBy[:i], e.LikedBy[i+1:]...)
		} else {
			e.LikedBy = append(e.LikedBy, username)
			liked = true
		}
		e.Likes = len(e.LikedBy)
		return true
	})
	if !changed {
		return false, ticket
	}
	return liked, ticket
}

// AddComment appends c to the exhibit's comments.
func (s *Store) AddComment(exhibitID string, c repository.Comment) (repository.Comment, bool, *propagate.Ticket) {
	if c.ID == "" {
		c.ID = s.newID()
	}
	if c.Timestamp == "" {
		c.Timestamp = s.stamp()
	}
	_, ok, ticket := modify(s, exhibitKind, exhibitID, func(e *repository.Exhibit) bool {
		e.Comments = append(e.Comments, c)
		return true
	})
	return c, ok, ticket
}

// DeleteComment removes a comment from an exhibit.
func (s *Store) DeleteComment(exhibitID, commentID string) (bool, *propagate.Ticket) {
	_, ok, ticket := modify(s, exhibitKind, exhibitID, func(e *repository.Exhibit) bool {
		for i := range e.Comments {
			if e.Comments[i].ID == commentID {
				e.Comments = append(e.Comments[:i], e.Comments[i+1:]...)
				return true
			}
		}
		return false
	})
	return ok, ticket
}

// RecordView increments the exhibit's view counter.
func (s *Store) RecordView(exhibitID string) (int, *propagate.Ticket) {
	e, _, ticket := modify(s, exhibitKind, exhibitID, func(e *repository.Exhibit) bool {
		e.Views++
		return true
	})
	return e.Views, ticket
}

// ToggleFollow adds or removes target from follower's follow list and
// reports whether follower now follows target.
func (s *Store) ToggleFollow(follower, target string) (bool, *propagate.Ticket) {
	if follower == target {
		return false, propagate.Resolved(nil)
	}
	following := false
	_, changed, ticket := modify(s, userKind, follower, func(u *repository.UserProfile) bool {
		if i := indexOfString(u.Following, target); i >= 0 {
			u.Following = append(u.Following[:i], u.Following[i+1:]...)
		} else {
			u.Following = append(u.Following, target)
			following = true
		}
		return true
	})
	if !changed {
		return false, ticket
	}
	return following, ticket
}

// MarkNotificationsRead flags every unread notification of username as read
// and returns how many changed.
func (s *Store) MarkNotificationsRead(username string) (int, *propagate.Ticket) {
	return modifyAll(s, notificationKind, func(n *repository.Notification) bool {
		if n.Recipient != username || n.IsRead {
			return false
		}
		n.IsRead = true
		return true
	})
}

// MarkConversationRead flags messages sent by peer to reader as read.
func (s *Store) MarkConversationRead(reader, peer string) (int, *propagate.Ticket) {
	return modifyAll(s, messageKind, func(m *repository.Message) bool {
		if m.Sender != peer || m.Receiver != reader || m.IsRead {
			return false
		}
		m.IsRead = true
		return true
	})
}

func indexOfString(list []string, v string) int {
	for i, x := range list {
		if x == v {
			return i
		}
	}
	return -1
}
