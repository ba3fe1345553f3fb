package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/neoarchive/neoarchive/internal/logger"
)

// Syncer is the orchestrator API needed by the scheduler.
// syncer.Orchestrator implements it.
type Syncer interface {
	BackgroundSync(ctx context.Context) bool
}

// SyncStats summarizes the outcome of scheduled syncs.
type SyncStats struct {
	Runs        int
	Failures    int
	LastSuccess time.Time
}

// SyncScheduler triggers a background sync on a fixed interval.
//
// A tick that fails (offline, remote error, sync already running) is counted
// and logged; the next tick simply tries again. Stats are in-memory only.
type SyncScheduler struct {
	syncer  Syncer
	poll    time.Duration
	timeout time.Duration
	now     func() time.Time

	mu    sync.Mutex
	stats SyncStats
	// consecutive failures, reset by a success
	streak int
}

// NewSyncScheduler creates a scheduler. timeout bounds each sync; zero
// means the tick runs with the scheduler context only.
func NewSyncScheduler(s Syncer, poll, timeout time.Duration) *SyncScheduler {
	return &SyncScheduler{
		syncer:  s,
		poll:    poll,
		timeout: timeout,
		now:     time.Now,
	}
}

// Start runs the scheduler until ctx is done. The returned channel is closed
// once the loop has exited.
func (s *SyncScheduler) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	logger.WithComponent("sched").Debugf("starting sync scheduler with interval: %v", s.poll)
	ticker := time.NewTicker(s.poll)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.WithComponent("sched").Info("sync scheduler stopped")
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
	return done
}

func (s *SyncScheduler) Stats() SyncStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *SyncScheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	tickCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		tickCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	logger.WithComponent("sched").Tracef("sync tick started")
	ok := s.syncer.BackgroundSync(tickCtx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Runs++
	if ok {
		if s.streak > 0 {
			logger.WithComponent("sched").Infof("background sync recovered after %d failed attempts", s.streak)
		}
		s.streak = 0
		s.stats.LastSuccess = s.now()
		return
	}
	s.stats.Failures++
	s.streak++
	logger.WithComponent("sched").Debugf("background sync skipped or failed (%d in a row)", s.streak)
}
