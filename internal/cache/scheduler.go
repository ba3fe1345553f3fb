package cache

import (
	"context"
	"time"

	"github.com/neoarchive/neoarchive/internal/logger"
)

// StartPersistenceScheduler runs a goroutine that periodically retries the
// local snapshot write while the cache is dirty (i.e. the last synchronous
// save failed). On ctx.Done, it performs a final flush before returning.
// Returns a channel that is closed when the scheduler has completed shutdown.
func StartPersistenceScheduler(ctx context.Context, store PersistableStore, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	logger.WithComponent("persist").Debugf("starting persistence scheduler with interval: %v", interval)

	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				// Final flush on shutdown - use background context to ensure it completes
				flushCache(context.Background(), store)
				logger.WithComponent("persist").Info("persistence scheduler stopped after final flush")
				return
			case <-ticker.C:
				flushCache(ctx, store)
			}
		}
	}()

	return done
}

func flushCache(ctx context.Context, store PersistableStore) {
	if !store.IsDirty() {
		logger.WithComponent("persist").Tracef("cache is clean, skipping flush")
		return
	}
	if err := ctx.Err(); err != nil {
		logger.WithComponent("persist").Debugf("flush cancelled: %v", err)
		return
	}

	logger.WithComponent("persist").Debugf("cache is dirty, retrying local snapshot write")
	if err := store.Flush(ctx); err != nil {
		logger.WithComponent("persist").Errorf("persist error: %v", err)
		return
	}
	logger.WithComponent("persist").Info("cache persisted to local snapshot")
}
