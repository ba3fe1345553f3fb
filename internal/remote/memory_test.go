package remote

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_KeyColumnAndValidate(t *testing.T) {
	assert.Equal(t, "username", Users.KeyColumn())
	assert.Equal(t, "id", Exhibits.KeyColumn())
	assert.NoError(t, Guestbook.Validate())
	assert.ErrorIs(t, Table("secrets").Validate(), ErrUnknownTable)
}

func TestMemoryStore_UpsertFetchDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	require.NoError(t, m.Upsert(ctx, Exhibits, "e1", json.RawMessage(`{"id":"e1","v":1}`)))
	require.NoError(t, m.Upsert(ctx, Exhibits, "e2", json.RawMessage(`{"id":"e2"}`)))
	require.NoError(t, m.Upsert(ctx, Exhibits, "e1", json.RawMessage(`{"id":"e1","v":2}`)))

	rows, err := m.FetchAll(ctx, Exhibits)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.JSONEq(t, `{"id":"e1","v":2}`, string(rows[0]))

	require.NoError(t, m.Delete(ctx, Exhibits, "e1"))
	require.NoError(t, m.Delete(ctx, Exhibits, "missing"))
	assert.Equal(t, []string{"e2"}, m.Keys(Exhibits))
}

func TestMemoryStore_Unavailable(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.SetAvailable(false)

	assert.ErrorIs(t, m.Ping(ctx), ErrUnavailable)
	_, err := m.FetchAll(ctx, Users)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, m.Upsert(ctx, Users, "ada", json.RawMessage(`{}`)), ErrUnavailable)
}

func TestMemoryStore_LatencyHonoursContext(t *testing.T) {
	m := NewMemoryStore()
	m.SetLatency(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := m.FetchAll(ctx, Users)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestMemoryStore_PutAndRow(t *testing.T) {
	m := NewMemoryStore()
	require.NoError(t, m.Put(Users, "ada", map[string]string{"username": "ada"}))

	row, ok := m.Row(Users, "ada")
	require.True(t, ok)
	assert.JSONEq(t, `{"username":"ada"}`, string(row))
	assert.Equal(t, 0, m.Calls())
}

func TestMemoryStore_UnknownTable(t *testing.T) {
	m := NewMemoryStore()
	_, err := m.FetchAll(context.Background(), Table("nope"))
	assert.ErrorIs(t, err, ErrUnknownTable)
}
