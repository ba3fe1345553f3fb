package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/neoarchive/neoarchive/internal/logger"
)

// snapshotEnvelope is the stored blob: a schema version tag plus the dataset.
type snapshotEnvelope struct {
	Version string  `json:"version"`
	Data    Dataset `json:"data"`
}

// SnapshotStore mirrors the dataset into one KV key. A blob written with a
// different schema version is treated as absent; there is no migration.
type SnapshotStore struct {
	kv      KV
	key     string
	version string
}

// NewSnapshotStore returns a store writing under key with the given schema version.
func NewSnapshotStore(kv KV, key, version string) (*SnapshotStore, error) {
	if kv == nil {
		return nil, errors.New("kv is nil")
	}
	if key == "" {
		return nil, ErrEmptyKey
	}
	if version == "" {
		return nil, errors.New("schema version is required")
	}
	return &SnapshotStore{kv: kv, key: key, version: version}, nil
}

// Load returns the stored dataset, or false when nothing usable is stored.
func (s *SnapshotStore) Load(ctx context.Context) (*Dataset, bool) {
	log := logger.WithComponent("snapshot")

	raw, err := s.kv.Get(ctx, s.key)
	if err != nil {
		log.Warnf("cannot read local snapshot: %v", err)
		return nil, false
	}
	if raw == nil {
		log.Debugf("no local snapshot under %q", s.key)
		return nil, false
	}

	var env snapshotEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Warnf("discarding undecodable local snapshot: %v", err)
		return nil, false
	}
	if env.Version != s.version {
		log.Infof("discarding local snapshot with schema version %q (current %q)", env.Version, s.version)
		return nil, false
	}

	env.Data.ApplyDefaults()
	return &env.Data, true
}

// Save writes the whole dataset under the snapshot key.
func (s *SnapshotStore) Save(ctx context.Context, doc Dataset) error {
	doc.ApplyDefaults()
	payload, err := json.Marshal(snapshotEnvelope{Version: s.version, Data: doc})
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, payload); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Clear removes the stored snapshot.
func (s *SnapshotStore) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, s.key)
}
