package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/neoarchive/neoarchive/internal/logger"
	"github.com/neoarchive/neoarchive/internal/propagate"
	"github.com/neoarchive/neoarchive/internal/remote"
	"github.com/neoarchive/neoarchive/internal/repository"
)

// Store is the in-memory dataset every other component reads and writes
// through. Each mutation is applied in memory, written to the local snapshot
// and then handed to the propagator, all in call order.
type Store struct {
	mu         sync.RWMutex
	data       repository.Dataset
	dirty      bool  // true if the last local save failed
	lastUpdate int64 // unix millis of the last successful local save

	saver  repository.Saver
	remote Propagator

	now   func() time.Time
	newID func() string
}

// NewStore creates an empty cache. saver and remote may be nil, in which case
// the corresponding side effect is skipped.
func NewStore(saver repository.Saver, remote Propagator) *Store {
	s := &Store{
		saver:  saver,
		remote: remote,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	s.data.ApplyDefaults()
	return s
}

// IsDirty returns true if the in-memory state is ahead of the local snapshot.
func (s *Store) IsDirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// LastUpdate returns the unix millis of the last successful local save.
func (s *Store) LastUpdate() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

// IsLoaded reports whether the dataset has been populated by a remote sync.
func (s *Store) IsLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.IsLoaded
}

// Snapshot returns a deep copy of the cached data.
func (s *Store) Snapshot() (repository.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneValue(s.data)
}

// Replace swaps the cached data without persisting it.
func (s *Store) Replace(doc repository.Dataset) error {
	cloned, err := cloneValue(doc)
	if err != nil {
		return err
	}
	cloned.ApplyDefaults()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = cloned
	s.dirty = false
	return nil
}

// Apply replaces the dataset with fn(current) and persists the result. No
// mutation can interleave between reading the current state and storing the
// new one.
func (s *Store) Apply(ctx context.Context, fn func(local repository.Dataset) repository.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := cloneValue(s.data)
	if err != nil {
		return err
	}
	next := fn(current)
	next.ApplyDefaults()
	s.data = next
	s.persistLocked(ctx)
	return nil
}

// Reset empties the cache.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = repository.Dataset{}
	s.data.ApplyDefaults()
	s.dirty = false
	s.lastUpdate = 0
}

// Flush writes the dataset to the local snapshot if an earlier save failed.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	return s.persistLocked(ctx)
}

// persistLocked saves the dataset. Failures are logged and leave the store
// dirty; the caller's mutation stands regardless. Caller must hold mu.
func (s *Store) persistLocked(ctx context.Context) error {
	if s.saver == nil {
		return nil
	}
	if err := s.saver.Save(ctx, s.data); err != nil {
		s.dirty = true
		logger.WithComponent("cache").Warnf("local snapshot write failed, continuing in memory: %v", err)
		return err
	}
	s.dirty = false
	s.lastUpdate = s.now().UnixMilli()
	return nil
}

func (s *Store) upsertRemoteLocked(table remote.Table, key string, record any) *propagate.Ticket {
	if s.remote == nil {
		return propagate.Resolved(propagate.ErrOffline)
	}
	return s.remote.Upsert(table, key, record)
}

func (s *Store) deleteRemoteLocked(table remote.Table, key string) *propagate.Ticket {
	if s.remote == nil {
		return propagate.Resolved(propagate.ErrOffline)
	}
	return s.remote.Delete(table, key)
}

func (s *Store) stamp() string {
	return repository.FormatTimestamp(s.now())
}

// cloneValue deep-copies v to avoid shared slices between cache and callers.
func cloneValue[T any](v T) (T, error) {
	var out T
	bytes, err := json.Marshal(v)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(bytes, &out); err != nil {
		return out, err
	}
	return out, nil
}
