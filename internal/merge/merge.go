// Package merge reconciles the local and remote copies of each collection.
//
// The rule is whole-record replacement: local records are inserted first and
// a remote record with the same key replaces the local one. There is no
// field-level or timestamp-aware conflict resolution.
package merge

import (
	"sort"

	"github.com/neoarchive/neoarchive/internal/repository"
)

// Entities merges local and remote, drops every key found in tombstones and
// returns the result newest first.
func Entities[T repository.Entity](local, remote []T, tombstones map[string]struct{}) []T {
	out := byKey(local, remote, tombstones)
	SortNewestFirst(out)
	return out
}

// Users merges profiles by username. User deletion is not synced, so
// tombstones are not consulted.
func Users(local, remote []repository.UserProfile) []repository.UserProfile {
	return Entities(local, remote, nil)
}

// Messages merges like Entities but returns conversation order, oldest first.
func Messages(local, remote []repository.Message, tombstones map[string]struct{}) []repository.Message {
	out := byKey(local, remote, tombstones)
	SortOldestFirst(out)
	return out
}

// Datasets merges every collection of remote into local. The tombstone set
// is the local one; the result is marked loaded.
func Datasets(local, remote repository.Dataset) repository.Dataset {
	tombstones := local.Tombstones()

	out := repository.Dataset{
		Users:         Users(local.Users, remote.Users),
		Exhibits:      Entities(local.Exhibits, remote.Exhibits, tombstones),
		Collections:   Entities(local.Collections, remote.Collections, tombstones),
		Notifications: Entities(local.Notifications, remote.Notifications, tombstones),
		Messages:      Messages(local.Messages, remote.Messages, tombstones),
		Guestbook:     Entities(local.Guestbook, remote.Guestbook, tombstones),
		DeletedIDs:    append([]string(nil), local.DeletedIDs...),
		IsLoaded:      true,
	}
	out.ApplyDefaults()
	return out
}

// byKey keeps first-seen order: local keys in local order, then keys only
// present remotely in remote order. Records without a key are dropped.
func byKey[T repository.Entity](local, remote []T, tombstones map[string]struct{}) []T {
	index := make(map[string]int, len(local)+len(remote))
	out := make([]T, 0, len(local)+len(remote))

	put := func(item T) {
		key := item.Key()
		if key == "" {
			return
		}
		if _, deleted := tombstones[key]; deleted {
			return
		}
		if i, ok := index[key]; ok {
			out[i] = item
			return
		}
		index[key] = len(out)
		out = append(out, item)
	}

	for _, item := range local {
		put(item)
	}
	for _, item := range remote {
		put(item)
	}
	return out
}

// SortNewestFirst orders items by parsed timestamp, descending. Items with an
// unparseable timestamp go last; ties keep their current order.
func SortNewestFirst[T repository.Entity](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		return repository.ParseTimestamp(items[i].Stamp()).After(repository.ParseTimestamp(items[j].Stamp()))
	})
}

// SortOldestFirst orders items by parsed timestamp, ascending.
func SortOldestFirst[T repository.Entity](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		return repository.ParseTimestamp(items[i].Stamp()).Before(repository.ParseTimestamp(items[j].Stamp()))
	})
}
