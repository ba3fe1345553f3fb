package syncer

import (
	"context"

	"github.com/neoarchive/neoarchive/internal/repository"
)

// SnapshotLoader reads the locally persisted dataset.
// repository.SnapshotStore implements it.
type SnapshotLoader interface {
	Load(ctx context.Context) (*repository.Dataset, bool)
}

// Connectivity switches remote propagation on and off.
// propagate.Propagator implements it.
type Connectivity interface {
	SetOnline(online bool)
}

// SessionResumer resolves the remembered user once data is ready.
// session.Manager implements it.
type SessionResumer interface {
	Resume(ctx context.Context) (repository.UserProfile, bool)
}
