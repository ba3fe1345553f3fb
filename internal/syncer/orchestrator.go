// Package syncer drives startup and repeated synchronization between the
// local snapshot, the in-memory cache and the remote store.
package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/neoarchive/neoarchive/internal/cache"
	"github.com/neoarchive/neoarchive/internal/logger"
	"github.com/neoarchive/neoarchive/internal/merge"
	"github.com/neoarchive/neoarchive/internal/remote"
	"github.com/neoarchive/neoarchive/internal/repository"
)

const DefaultTimeout = 5 * time.Second

// Deps are the collaborators of an Orchestrator. Remote, Connectivity and
// Resumer may be nil.
type Deps struct {
	Cache        cache.SyncTarget
	Snapshots    SnapshotLoader
	Remote       remote.Store
	Connectivity Connectivity
	Resumer      SessionResumer
}

// Orchestrator owns the sync state machine.
type Orchestrator struct {
	deps    Deps
	timeout time.Duration
	now     func() time.Time

	mu       sync.Mutex
	state    State
	online   bool
	lastSync time.Time

	// syncing guards against overlapping remote syncs.
	syncing sync.Mutex
}

// New creates an orchestrator. A non-positive timeout falls back to DefaultTimeout.
func New(deps Deps, timeout time.Duration) *Orchestrator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Orchestrator{
		deps:    deps,
		timeout: timeout,
		now:     time.Now,
	}
}

// Initialize loads the local snapshot, then races a remote sync against the
// timeout. It never fails: on timeout or remote error the orchestrator ends up
// Ready and offline with the local data. It returns the resumed session user,
// if any.
func (o *Orchestrator) Initialize(ctx context.Context) *repository.UserProfile {
	log := logger.WithComponent("sync")

	o.mu.Lock()
	if o.state != Uninitialized {
		o.mu.Unlock()
		log.Debugf("initialize called in state %s, skipping", o.state)
		return o.resume(ctx)
	}
	o.state = Syncing
	o.mu.Unlock()

	if local, ok := o.deps.Snapshots.Load(ctx); ok {
		if err := o.deps.Cache.Replace(*local); err != nil {
			log.Warnf("could not load local snapshot into cache: %v", err)
		} else {
			log.Info("local snapshot loaded")
		}
	} else {
		log.Info("no usable local snapshot, starting empty")
	}

	o.syncing.Lock()
	online := o.syncOnce(ctx)
	o.syncing.Unlock()

	o.mu.Lock()
	o.state = Ready
	o.online = online
	o.mu.Unlock()
	if o.deps.Connectivity != nil {
		o.deps.Connectivity.SetOnline(online)
	}

	if online {
		log.Info("ready (online)")
	} else {
		log.Warn("ready (offline), using local data only")
	}
	return o.resume(ctx)
}

// BackgroundSync repeats the fetch-merge-persist sequence. It returns false
// when not ready, offline, already syncing, or when the remote sync fails.
func (o *Orchestrator) BackgroundSync(ctx context.Context) bool {
	o.mu.Lock()
	ready := o.state == Ready && o.online
	o.mu.Unlock()
	if !ready {
		return false
	}
	if !o.syncing.TryLock() {
		logger.WithComponent("sync").Debug("sync already in progress")
		return false
	}
	defer o.syncing.Unlock()
	return o.syncOnce(ctx)
}

// Reset returns to Uninitialized with an empty cache and propagation disabled.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	o.state = Uninitialized
	o.online = false
	o.lastSync = time.Time{}
	o.mu.Unlock()

	if o.deps.Connectivity != nil {
		o.deps.Connectivity.SetOnline(false)
	}
	o.deps.Cache.Reset()
}

func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	st := Status{State: o.state, Online: o.online}
	if !o.lastSync.IsZero() {
		t := o.lastSync
		st.LastSync = &t
	}
	return st
}

type fetchResult struct {
	data repository.Dataset
	err  error
}

// syncOnce fetches the remote dataset under the timeout and merges it into
// the cache. The fetch runs on its own goroutine; when the timeout wins, its
// context is cancelled and whatever it returns later is dropped.
func (o *Orchestrator) syncOnce(ctx context.Context) bool {
	log := logger.WithComponent("sync")

	fetchCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	results := make(chan fetchResult, 1)
	go func() {
		d, err := fetchAll(fetchCtx, o.deps.Remote)
		results <- fetchResult{data: d, err: err}
	}()

	var res fetchResult
	select {
	case res = <-results:
	case <-fetchCtx.Done():
		log.Warnf("remote sync did not finish within %v: %v", o.timeout, fetchCtx.Err())
		return false
	}
	if res.err != nil {
		log.Warnf("remote sync failed: %v", res.err)
		return false
	}

	err := o.deps.Cache.Apply(ctx, func(local repository.Dataset) repository.Dataset {
		return merge.Datasets(local, res.data)
	})
	if err != nil {
		log.Errorf("merge into cache failed: %v", err)
		return false
	}

	o.mu.Lock()
	o.lastSync = o.now()
	o.mu.Unlock()
	log.Debug("remote sync merged")
	return true
}

func (o *Orchestrator) resume(ctx context.Context) *repository.UserProfile {
	if o.deps.Resumer == nil {
		return nil
	}
	u, ok := o.deps.Resumer.Resume(ctx)
	if !ok {
		return nil
	}
	return &u
}
