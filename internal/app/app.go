package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/neoarchive/neoarchive/internal/cache"
	"github.com/neoarchive/neoarchive/internal/config"
	"github.com/neoarchive/neoarchive/internal/logger"
	"github.com/neoarchive/neoarchive/internal/propagate"
	"github.com/neoarchive/neoarchive/internal/remote"
	"github.com/neoarchive/neoarchive/internal/repository"
	"github.com/neoarchive/neoarchive/internal/scheduler"
	"github.com/neoarchive/neoarchive/internal/session"
	"github.com/neoarchive/neoarchive/internal/syncer"
)

// App is the application container (immutable dependencies + lifecycle context).
// It is not a request context; handlers should still use gin's request context.
type App struct {
	Config     *config.Config
	KV         repository.KV
	Snapshots  *repository.SnapshotStore
	Remote     remote.Store // nil when the remote driver is "none"
	Propagator *propagate.Propagator
	Cache      *cache.Store
	Sync       *syncer.Orchestrator
	Sessions   *session.Manager
	SyncJobs   *scheduler.SyncScheduler

	BaseCtx context.Context
	Cancel  context.CancelFunc

	closers []io.Closer
	workers []<-chan struct{}
}

// New wires the components around an opened KV and remote store. store may
// be nil, which keeps the app offline.
func New(cfg *config.Config, kv repository.KV, store remote.Store) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if kv == nil {
		return nil, errors.New("kv is nil")
	}

	snapshots, err := repository.NewSnapshotStore(kv, cfg.Storage.SnapshotKey, cfg.Storage.SchemaVersion)
	if err != nil {
		return nil, fmt.Errorf("snapshot store: %w", err)
	}

	prop := propagate.New(store, propagate.Options{
		Attempts:    uint64(cfg.Remote.RetryAttempts),
		BaseDelay:   cfg.Remote.RetryBaseDelay,
		CallTimeout: cfg.Remote.CallTimeout,
	})
	cacheStore := cache.NewStore(snapshots, prop)

	sessions, err := session.NewManager(kv, cacheStore, cfg.Storage.SessionKey)
	if err != nil {
		return nil, fmt.Errorf("session manager: %w", err)
	}

	orchestrator := syncer.New(syncer.Deps{
		Cache:        cacheStore,
		Snapshots:    snapshots,
		Remote:       store,
		Connectivity: prop,
		Resumer:      sessions,
	}, cfg.Remote.SyncTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		Config:     cfg,
		KV:         kv,
		Snapshots:  snapshots,
		Remote:     store,
		Propagator: prop,
		Cache:      cacheStore,
		Sync:       orchestrator,
		Sessions:   sessions,
		SyncJobs:   scheduler.NewSyncScheduler(orchestrator, cfg.Remote.SyncInterval, cfg.Remote.SyncTimeout),
		BaseCtx:    ctx,
		Cancel:     cancel,
	}, nil
}

// Build opens the storage backend and remote store named by cfg and wires
// the app around them.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	kv, kvCloser, err := OpenKV(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	store, storeCloser, err := OpenRemote(ctx, cfg.Remote)
	if err != nil {
		closeAll(kvCloser)
		return nil, err
	}

	a, err := New(cfg, kv, store)
	if err != nil {
		closeAll(storeCloser, kvCloser)
		return nil, err
	}
	a.closers = append(a.closers, storeCloser, kvCloser)
	return a, nil
}

// OpenKV opens the local key/value backend.
func OpenKV(ctx context.Context, cfg config.StorageConfig) (repository.KV, io.Closer, error) {
	switch cfg.Backend {
	case "sqlite":
		kv, err := repository.OpenSQLiteKV(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		return kv, kv, nil
	case "file", "":
		kv, err := repository.NewFileKV(cfg.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("open file storage: %w", err)
		}
		return kv, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// OpenRemote connects to the remote store. The "none" driver returns a nil
// store.
func OpenRemote(ctx context.Context, cfg config.RemoteConfig) (remote.Store, io.Closer, error) {
	switch cfg.Driver {
	case "postgres":
		pg, err := remote.OpenPostgres(cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open remote store: %w", err)
		}
		if cfg.AutoMigrate {
			if err := pg.RunMigrations(ctx); err != nil {
				_ = pg.Close()
				return nil, nil, fmt.Errorf("migrate remote store: %w", err)
			}
		}
		return pg, pg, nil
	case "memory":
		return remote.NewMemoryStore(), nil, nil
	case "none", "":
		return nil, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown remote driver %q", cfg.Driver)
	}
}

// Initialize runs the startup sync and returns the resumed user, if any.
func (a *App) Initialize(ctx context.Context) *repository.UserProfile {
	return a.Sync.Initialize(ctx)
}

// StartBackground starts the propagation worker and the persistence and sync
// schedulers. They stop when Shutdown is called.
func (a *App) StartBackground() {
	a.workers = append(a.workers,
		a.Propagator.Start(a.BaseCtx),
		cache.StartPersistenceScheduler(a.BaseCtx, a.Cache, a.Config.Storage.PersistInterval),
	)
	if a.Remote != nil {
		a.workers = append(a.workers, a.SyncJobs.Start(a.BaseCtx))
	}
}

// Shutdown cancels the base context, waits for background workers (bounded
// by the server shutdown timeout) and closes the storage handles.
func (a *App) Shutdown() {
	if a == nil || a.Cancel == nil {
		return
	}
	a.Cancel()

	timeout := 5 * time.Second
	if a.Config != nil && a.Config.Server.ShutDownTimeout > 0 {
		timeout = a.Config.Server.ShutDownTimeout
	}
	deadline := time.After(timeout)
	for _, done := range a.workers {
		select {
		case <-done:
		case <-deadline:
			logger.WithComponent("app").Warn("background workers did not stop in time")
			closeAll(a.closers...)
			return
		}
	}
	a.workers = nil
	closeAll(a.closers...)
	a.closers = nil
}

func closeAll(closers ...io.Closer) {
	for _, c := range closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			logger.WithComponent("app").Warnf("close: %v", err)
		}
	}
}
