package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neoarchive/neoarchive/internal/config"
	"github.com/neoarchive/neoarchive/internal/propagate"
	"github.com/neoarchive/neoarchive/internal/remote"
	"github.com/neoarchive/neoarchive/internal/repository"
	"github.com/neoarchive/neoarchive/internal/syncer"
)

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Server: config.ServerConfig{ShutDownTimeout: 2 * time.Second},
		Storage: config.StorageConfig{
			Backend:         "file",
			Dir:             dir,
			SQLitePath:      filepath.Join(dir, "neoarchive.db"),
			SnapshotKey:     "neoarchive_data",
			SessionKey:      "neoarchive_active_user",
			SchemaVersion:   "3",
			PersistInterval: time.Hour,
		},
		Remote: config.RemoteConfig{
			Driver:         driver,
			SyncTimeout:    time.Second,
			SyncInterval:   time.Hour,
			RetryAttempts:  1,
			RetryBaseDelay: time.Millisecond,
			CallTimeout:    time.Second,
		},
	}
}

func TestNew_NilDependencies(t *testing.T) {
	_, err := New(nil, nil, nil)
	assert.Error(t, err)

	_, err = New(testConfig(t, "none"), nil, nil)
	assert.Error(t, err)
}

func TestBuild_UnknownBackend(t *testing.T) {
	cfg := testConfig(t, "none")
	cfg.Storage.Backend = "floppy"
	_, err := Build(context.Background(), cfg)
	assert.ErrorContains(t, err, "unknown storage backend")

	cfg = testConfig(t, "carrier-pigeon")
	_, err = Build(context.Background(), cfg)
	assert.ErrorContains(t, err, "unknown remote driver")
}

func TestApp_OnlineLifecycle(t *testing.T) {
	ctx := context.Background()
	a, err := Build(ctx, testConfig(t, "memory"))
	require.NoError(t, err)
	defer a.Shutdown()

	mem, ok := a.Remote.(*remote.MemoryStore)
	require.True(t, ok)
	require.NoError(t, mem.Put(remote.Users, "ada", repository.UserProfile{Username: "ada", Email: "ada@example.com"}))

	assert.Nil(t, a.Initialize(ctx))
	status := a.Sync.Status()
	assert.Equal(t, syncer.Ready, status.State)
	assert.True(t, status.Online)

	_, found := a.Cache.User("ada")
	assert.True(t, found)

	a.StartBackground()
	created, ticket := a.Cache.CreateExhibit(repository.Exhibit{Title: "Walkman", Owner: "ada"})
	require.NotEmpty(t, created.ID)

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, ticket.Wait(waitCtx))
	_, stored := mem.Row(remote.Exhibits, created.ID)
	assert.True(t, stored)

	// the snapshot reached local storage too
	require.NoError(t, a.Cache.Flush(ctx))
	doc, found := a.Snapshots.Load(ctx)
	require.True(t, found)
	assert.Len(t, doc.Exhibits, 1)
}

func TestApp_OfflineWithoutRemote(t *testing.T) {
	ctx := context.Background()
	a, err := Build(ctx, testConfig(t, "none"))
	require.NoError(t, err)
	defer a.Shutdown()

	a.Initialize(ctx)
	status := a.Sync.Status()
	assert.Equal(t, syncer.Ready, status.State)
	assert.False(t, status.Online)

	a.StartBackground()
	_, ticket := a.Cache.CreateExhibit(repository.Exhibit{Title: "Tamagotchi", Owner: "ada"})
	assert.True(t, errors.Is(ticket.Err(), propagate.ErrOffline))
	assert.Len(t, a.Cache.Exhibits(), 1)
}

func TestApp_SQLiteBackend(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, "none")
	cfg.Storage.Backend = "sqlite"

	a, err := Build(ctx, cfg)
	require.NoError(t, err)
	a.Initialize(ctx)
	a.Cache.CreateExhibit(repository.Exhibit{Title: "Game Boy", Owner: "ada"})
	require.NoError(t, a.Cache.Flush(ctx))
	a.Shutdown()

	reopened, err := Build(ctx, cfg)
	require.NoError(t, err)
	defer reopened.Shutdown()
	reopened.Initialize(ctx)
	exhibits := reopened.Cache.Exhibits()
	require.Len(t, exhibits, 1)
	assert.Equal(t, "Game Boy", exhibits[0].Title)
}

func TestShutdown_StopsWorkers(t *testing.T) {
	a, err := Build(context.Background(), testConfig(t, "memory"))
	require.NoError(t, err)
	a.StartBackground()

	done := make(chan struct{})
	go func() {
		a.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("shutdown did not return")
	}
	assert.Error(t, a.BaseCtx.Err())

	// second call is a no-op
	a.Shutdown()
}

func TestShutdown_NilSafe(t *testing.T) {
	var a *App
	a.Shutdown()
	(&App{}).Shutdown()
}
