// Package remote talks to the hosted table store. Every table holds one row
// per entity: a key column, the entity as a JSON data column and an
// updated_at timestamp.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Table names a remote table.
type Table string

const (
	Users         Table = "users"
	Exhibits      Table = "exhibits"
	Collections   Table = "collections"
	Notifications Table = "notifications"
	Messages      Table = "messages"
	Guestbook     Table = "guestbook"
)

// Tables lists every synced table.
var Tables = []Table{Users, Exhibits, Collections, Notifications, Messages, Guestbook}

// ErrUnknownTable is returned for a table outside Tables.
var ErrUnknownTable = errors.New("unknown remote table")

// KeyColumn is the primary key column of t.
func (t Table) KeyColumn() string {
	if t == Users {
		return "username"
	}
	return "id"
}

// Validate checks that t is one of the synced tables.
func (t Table) Validate() error {
	for _, known := range Tables {
		if known == t {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownTable, string(t))
}

// Store is the remote contract the sync layer depends on.
type Store interface {
	Ping(ctx context.Context) error
	FetchAll(ctx context.Context, table Table) ([]json.RawMessage, error)
	Upsert(ctx context.Context, table Table, key string, data json.RawMessage) error
	Delete(ctx context.Context, table Table, key string) error
}
