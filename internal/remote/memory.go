package remote

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrUnavailable is returned by a MemoryStore switched offline.
var ErrUnavailable = errors.New("remote store unavailable")

// MemoryStore is a process-local Store. It backs the "memory" driver and
// tests; Latency and SetAvailable simulate a slow or unreachable backend.
type MemoryStore struct {
	mu        sync.Mutex
	tables    map[Table]map[string]json.RawMessage
	order     map[Table][]string
	available bool
	latency   time.Duration
	calls     int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables:    map[Table]map[string]json.RawMessage{},
		order:     map[Table][]string{},
		available: true,
	}
}

// SetAvailable toggles simulated connectivity.
func (m *MemoryStore) SetAvailable(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available = ok
}

// SetLatency delays every call by d (or until ctx is done).
func (m *MemoryStore) SetLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latency = d
}

// Calls returns how many operations reached the store.
func (m *MemoryStore) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MemoryStore) enter(ctx context.Context) error {
	m.mu.Lock()
	m.calls++
	latency := m.latency
	m.mu.Unlock()

	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.available {
		return ErrUnavailable
	}
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return m.enter(ctx)
}

func (m *MemoryStore) FetchAll(ctx context.Context, table Table) ([]json.RawMessage, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	if err := m.enter(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.tables[table]
	out := make([]json.RawMessage, 0, len(rows))
	for _, key := range m.order[table] {
		out = append(out, append(json.RawMessage(nil), rows[key]...))
	}
	return out, nil
}

func (m *MemoryStore) Upsert(ctx context.Context, table Table, key string, data json.RawMessage) error {
	if err := table.Validate(); err != nil {
		return err
	}
	if err := m.enter(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.putLocked(table, key, data)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, table Table, key string) error {
	if err := table.Validate(); err != nil {
		return err
	}
	if err := m.enter(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.tables[table]
	if _, ok := rows[key]; !ok {
		return nil
	}
	delete(rows, key)
	keys := m.order[table]
	for i, k := range keys {
		if k == key {
			m.order[table] = append(keys[:i], keys[i+1:]...)
			break
		}
	}
	return nil
}

// Put seeds a row without latency or availability checks.
func (m *MemoryStore) Put(table Table, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putLocked(table, key, data)
	return nil
}

// Row returns the stored data for key.
func (m *MemoryStore) Row(table Table, key string) (json.RawMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.tables[table][key]
	return data, ok
}

// Keys returns the stored keys of table, sorted.
func (m *MemoryStore) Keys(table Table) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := append([]string(nil), m.order[table]...)
	sort.Strings(keys)
	return keys
}

func (m *MemoryStore) putLocked(table Table, key string, data json.RawMessage) {
	rows, ok := m.tables[table]
	if !ok {
		rows = map[string]json.RawMessage{}
		m.tables[table] = rows
	}
	if _, exists := rows[key]; !exists {
		m.order[table] = append(m.order[table], key)
	}
	rows[key] = append(json.RawMessage(nil), data...)
}
