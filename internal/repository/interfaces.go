package repository

import (
	"context"
	"errors"
)

// ErrEmptyKey is returned by KV implementations for a blank key.
var ErrEmptyKey = errors.New("storage key is required")

// KV is a small local key/value storage. Get returns (nil, nil) for a missing key.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Saver persists a Dataset.
// Small interface used by the cache and the persistence scheduler.
type Saver interface {
	Save(ctx context.Context, doc Dataset) error
}

// Snapshots loads and saves the versioned local snapshot.
// SnapshotStore implements this interface.
type Snapshots interface {
	Saver
	Load(ctx context.Context) (*Dataset, bool)
}
