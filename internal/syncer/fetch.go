package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/neoarchive/neoarchive/internal/logger"
	"github.com/neoarchive/neoarchive/internal/remote"
	"github.com/neoarchive/neoarchive/internal/repository"
)

var errNoRemote = errors.New("no remote store configured")

// fetchAll reads every remote table in parallel. A table that fails to load
// contributes an empty list; an unreachable store or an expired ctx fails the
// whole fetch.
func fetchAll(ctx context.Context, store remote.Store) (repository.Dataset, error) {
	var d repository.Dataset
	if store == nil {
		return d, errNoRemote
	}
	if err := store.Ping(ctx); err != nil {
		return d, fmt.Errorf("remote unreachable: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.Users = fetchTable[repository.UserProfile](gctx, store, remote.Users)
		return nil
	})
	g.Go(func() error {
		d.Exhibits = fetchTable[repository.Exhibit](gctx, store, remote.Exhibits)
		return nil
	})
	g.Go(func() error {
		d.Collections = fetchTable[repository.Collection](gctx, store, remote.Collections)
		return nil
	})
	g.Go(func() error {
		d.Notifications = fetchTable[repository.Notification](gctx, store, remote.Notifications)
		return nil
	})
	g.Go(func() error {
		d.Messages = fetchTable[repository.Message](gctx, store, remote.Messages)
		return nil
	})
	g.Go(func() error {
		d.Guestbook = fetchTable[repository.GuestbookEntry](gctx, store, remote.Guestbook)
		return nil
	})
	if err := g.Wait(); err != nil {
		return d, err
	}
	// Tables that failed because ctx expired must not pass as empty.
	if err := ctx.Err(); err != nil {
		return d, err
	}
	d.ApplyDefaults()
	return d, nil
}

func fetchTable[T any](ctx context.Context, store remote.Store, table remote.Table) []T {
	rows, err := store.FetchAll(ctx, table)
	if err != nil {
		logger.WithComponent("sync").Warnf("fetch %s failed, using empty list: %v", table, err)
		return []T{}
	}
	out := make([]T, 0, len(rows))
	for _, raw := range rows {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			logger.WithComponent("sync").Warnf("skipping malformed %s row: %v", table, err)
			continue
		}
		out = append(out, v)
	}
	return out
}
