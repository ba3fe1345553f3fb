package cache

import (
	"context"

	"github.com/neoarchive/neoarchive/internal/logger"
	"github.com/neoarchive/neoarchive/internal/propagate"
	"github.com/neoarchive/neoarchive/internal/remote"
	"github.com/neoarchive/neoarchive/internal/repository"
)

// kind binds an entity type to its slice in the dataset and its remote table.
type kind[T repository.Entity] struct {
	table remote.Table
	items func(d *repository.Dataset) *[]T
	// prepend inserts new records at the front (newest first).
	prepend bool
}

var (
	userKind = kind[repository.UserProfile]{
		table: remote.Users,
		items: func(d *repository.Dataset) *[]repository.UserProfile { return &d.Users },
	}
	exhibitKind = kind[repository.Exhibit]{
		table:   remote.Exhibits,
		items:   func(d *repository.Dataset) *[]repository.Exhibit { return &d.Exhibits },
		prepend: true,
	}
	collectionKind = kind[repository.Collection]{
		table:   remote.Collections,
		items:   func(d *repository.Dataset) *[]repository.Collection { return &d.Collections },
		prepend: true,
	}
	notificationKind = kind[repository.Notification]{
		table:   remote.Notifications,
		items:   func(d *repository.Dataset) *[]repository.Notification { return &d.Notifications },
		prepend: true,
	}
	messageKind = kind[repository.Message]{
		table: remote.Messages,
		items: func(d *repository.Dataset) *[]repository.Message { return &d.Messages },
	}
	guestbookKind = kind[repository.GuestbookEntry]{
		table:   remote.Guestbook,
		items:   func(d *repository.Dataset) *[]repository.GuestbookEntry { return &d.Guestbook },
		prepend: true,
	}
)

func listAll[T repository.Entity](s *Store, k kind[T]) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneList(*k.items(&s.data))
}

func find[T repository.Entity](s *Store, k kind[T], key string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range *k.items(&s.data) {
		if item.Key() == key {
			return cloneItem(item), true
		}
	}
	var zero T
	return zero, false
}

func filter[T repository.Entity](s *Store, k kind[T], keep func(T) bool) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, 0)
	for _, item := range *k.items(&s.data) {
		if keep(item) {
			out = append(out, item)
		}
	}
	return cloneList(out)
}

// insert replaces a record with the same key in place, otherwise adds it at
// the front or back depending on the kind.
func insert[T repository.Entity](s *Store, k kind[T], item T) *propagate.Ticket {
	item = cloneItem(item)

	s.mu.Lock()
	defer s.mu.Unlock()

	list := k.items(&s.data)
	// an explicit create revives a previously deleted key
	s.data.RemoveTombstone(item.Key())
	if i := indexOf(*list, item.Key()); i >= 0 {
		(*list)[i] = item
	} else if k.prepend {
		*list = append([]T{item}, *list...)
	} else {
		*list = append(*list, item)
	}
	s.persistLocked(context.Background())
	return s.upsertRemoteLocked(k.table, item.Key(), item)
}

// insertIfAbsent adds item unless its key is already stored. The check and
// the insert happen under one lock.
func insertIfAbsent[T repository.Entity](s *Store, k kind[T], item T) (bool, *propagate.Ticket) {
	item = cloneItem(item)

	s.mu.Lock()
	defer s.mu.Unlock()

	list := k.items(&s.data)
	if indexOf(*list, item.Key()) >= 0 {
		return false, propagate.Resolved(nil)
	}
	s.data.RemoveTombstone(item.Key())
	if k.prepend {
		*list = append([]T{item}, *list...)
	} else {
		*list = append(*list, item)
	}
	s.persistLocked(context.Background())
	return true, s.upsertRemoteLocked(k.table, item.Key(), item)
}

// replace overwrites an existing record. A missing key is a silent no-op.
func replace[T repository.Entity](s *Store, k kind[T], item T) (bool, *propagate.Ticket) {
	item = cloneItem(item)

	s.mu.Lock()
	defer s.mu.Unlock()

	list := k.items(&s.data)
	i := indexOf(*list, item.Key())
	if i < 0 {
		logger.WithComponent("cache").Debugf("update of missing %s/%s ignored", k.table, item.Key())
		return false, propagate.Resolved(nil)
	}
	(*list)[i] = item
	s.persistLocked(context.Background())
	return true, s.upsertRemoteLocked(k.table, item.Key(), item)
}

// modify applies fn to the stored record under the write lock. fn returns
// false to abandon the change.
func modify[T repository.Entity](s *Store, k kind[T], key string, fn func(*T) bool) (T, bool, *propagate.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	list := k.items(&s.data)
	i := indexOf(*list, key)
	if i < 0 {
		return zero, false, propagate.Resolved(nil)
	}
	item := cloneItem((*list)[i])
	if !fn(&item) {
		return cloneItem((*list)[i]), false, propagate.Resolved(nil)
	}
	(*list)[i] = item
	s.persistLocked(context.Background())
	return cloneItem(item), true, s.upsertRemoteLocked(k.table, key, item)
}

// modifyAll applies fn to every stored record for which fn returns true, in
// one locked pass with a single local save. Each changed record is sent to
// the remote; the returned ticket covers all of them.
func modifyAll[T repository.Entity](s *Store, k kind[T], fn func(*T) bool) (int, *propagate.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := k.items(&s.data)
	var changed []T
	for i := range *list {
		item := cloneItem((*list)[i])
		if !fn(&item) {
			continue
		}
		(*list)[i] = item
		changed = append(changed, item)
	}
	if len(changed) == 0 {
		return 0, propagate.Resolved(nil)
	}
	s.persistLocked(context.Background())

	tickets := make([]*propagate.Ticket, 0, len(changed))
	for _, item := range changed {
		tickets = append(tickets, s.upsertRemoteLocked(k.table, item.Key(), cloneItem(item)))
	}
	return len(changed), propagate.All(tickets...)
}

// remove deletes key and records a tombstone even when key was not present.
func remove[T repository.Entity](s *Store, k kind[T], key string) *propagate.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := k.items(&s.data)
	if i := indexOf(*list, key); i >= 0 {
		*list = append((*list)[:i], (*list)[i+1:]...)
	}
	s.data.AddTombstone(key)
	s.persistLocked(context.Background())
	return s.deleteRemoteLocked(k.table, key)
}

func indexOf[T repository.Entity](list []T, key string) int {
	for i := range list {
		if list[i].Key() == key {
			return i
		}
	}
	return -1
}

func cloneItem[T any](v T) T {
	out, err := cloneValue(v)
	if err != nil {
		logger.WithComponent("cache").Errorf("deep copy failed, returning shallow copy: %v", err)
		return v
	}
	return out
}

func cloneList[T any](list []T) []T {
	out, err := cloneValue(list)
	if err != nil {
		logger.WithComponent("cache").Errorf("deep copy failed, returning shallow copy: %v", err)
		return append([]T(nil), list...)
	}
	if out == nil {
		out = []T{}
	}
	return out
}
