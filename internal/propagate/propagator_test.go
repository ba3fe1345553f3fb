package propagate

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/neoarchive/neoarchive/internal/remote"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// flakyStore fails the first failures calls, then records writes in order.
type flakyStore struct {
	mu       sync.Mutex
	failures int
	calls    int
	log      []string
	block    chan struct{}
}

func (f *flakyStore) Ping(context.Context) error { return nil }

func (f *flakyStore) FetchAll(context.Context, remote.Table) ([]json.RawMessage, error) {
	return nil, nil
}

func (f *flakyStore) Upsert(ctx context.Context, table remote.Table, key string, data json.RawMessage) error {
	return f.record(ctx, "upsert "+string(table)+"/"+key)
}

func (f *flakyStore) Delete(ctx context.Context, table remote.Table, key string) error {
	return f.record(ctx, "delete "+string(table)+"/"+key)
}

func (f *flakyStore) record(ctx context.Context, entry string) error {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return errors.New("connection reset")
	}
	f.log = append(f.log, entry)
	return nil
}

func (f *flakyStore) entries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.log...)
}

func waitTicket(t *testing.T, ticket *Ticket) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := ticket.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded, "ticket never resolved")
	return err
}

func TestPropagator_OfflineResolvesImmediately(t *testing.T) {
	store := &flakyStore{}
	p := New(store, Options{Attempts: 3})

	ticket := p.Upsert(remote.Exhibits, "e1", map[string]string{"id": "e1"})

	select {
	case <-ticket.Done():
	default:
		t.Fatal("offline ticket should already be resolved")
	}
	assert.ErrorIs(t, ticket.Err(), ErrOffline)
	assert.Equal(t, 0, p.Pending())
}

func TestPropagator_NilStoreStaysOffline(t *testing.T) {
	p := New(nil, Options{})
	p.SetOnline(true)
	assert.False(t, p.Online())
}

func TestPropagator_PreservesSubmissionOrder(t *testing.T) {
	store := &flakyStore{}
	p := New(store, Options{Attempts: 1})
	p.SetOnline(true)

	ctx, cancel := context.WithCancel(context.Background())
	done := p.Start(ctx)
	defer func() {
		cancel()
		<-done
	}()

	t1 := p.Upsert(remote.Exhibits, "e1", map[string]int{"v": 1})
	t2 := p.Upsert(remote.Exhibits, "e1", map[string]int{"v": 2})
	t3 := p.Delete(remote.Messages, "m1")

	for _, ticket := range []*Ticket{t1, t2, t3} {
		require.NoError(t, waitTicket(t, ticket))
	}
	assert.Equal(t, []string{"upsert exhibits/e1", "upsert exhibits/e1", "delete messages/m1"}, store.entries())
}

func TestPropagator_RetriesTransientFailures(t *testing.T) {
	store := &flakyStore{failures: 2}
	p := New(store, Options{Attempts: 3, BaseDelay: time.Millisecond})
	p.SetOnline(true)

	ctx, cancel := context.WithCancel(context.Background())
	done := p.Start(ctx)
	defer func() {
		cancel()
		<-done
	}()

	require.NoError(t, waitTicket(t, p.Upsert(remote.Users, "ada", map[string]string{"username": "ada"})))
	assert.Equal(t, 3, store.calls)
}

func TestPropagator_ReportsExhaustedRetries(t *testing.T) {
	store := &flakyStore{failures: 10}
	p := New(store, Options{Attempts: 2, BaseDelay: time.Millisecond})
	p.SetOnline(true)

	ctx, cancel := context.WithCancel(context.Background())
	done := p.Start(ctx)
	defer func() {
		cancel()
		<-done
	}()

	err := waitTicket(t, p.Delete(remote.Guestbook, "g1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, 2, store.calls)
}

func TestPropagator_UnknownTableNotRetried(t *testing.T) {
	store := remote.NewMemoryStore()
	p := New(store, Options{Attempts: 5, BaseDelay: time.Millisecond})
	p.SetOnline(true)

	ctx, cancel := context.WithCancel(context.Background())
	done := p.Start(ctx)
	defer func() {
		cancel()
		<-done
	}()

	err := waitTicket(t, p.Upsert(remote.Table("bogus"), "k", map[string]string{}))
	assert.ErrorIs(t, err, remote.ErrUnknownTable)
}

func TestPropagator_StopResolvesQueued(t *testing.T) {
	store := &flakyStore{block: make(chan struct{})}
	p := New(store, Options{Attempts: 1})
	p.SetOnline(true)

	ctx, cancel := context.WithCancel(context.Background())
	done := p.Start(ctx)

	first := p.Upsert(remote.Exhibits, "e1", map[string]string{})
	second := p.Upsert(remote.Exhibits, "e2", map[string]string{})
	require.Eventually(t, func() bool { return p.Pending() == 1 }, time.Second, time.Millisecond)

	cancel()
	<-done

	assert.ErrorIs(t, waitTicket(t, first), context.Canceled)
	assert.ErrorIs(t, waitTicket(t, second), ErrClosed)
	assert.ErrorIs(t, p.Upsert(remote.Exhibits, "e3", map[string]string{}).Err(), ErrClosed)
}

func TestPropagator_MarshalError(t *testing.T) {
	p := New(&flakyStore{}, Options{})
	p.SetOnline(true)

	ticket := p.Upsert(remote.Exhibits, "e1", map[string]any{"bad": make(chan int)})
	assert.Error(t, ticket.Err())
}

func TestTicket_WaitHonoursContext(t *testing.T) {
	ticket := newTicket()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, ticket.Wait(ctx), context.DeadlineExceeded)
	assert.NoError(t, ticket.Err())
}

func TestAll_WaitsForEveryTicket(t *testing.T) {
	assert.NoError(t, All().Err())
	<-All().Done()

	single := Resolved(ErrOffline)
	assert.Same(t, single, All(single))

	first, second := newTicket(), newTicket()
	combined := All(first, Resolved(nil), second)

	first.resolve(nil)
	select {
	case <-combined.Done():
		t.Fatal("combined ticket finished before every write")
	case <-time.After(20 * time.Millisecond):
	}

	failure := errors.New("boom")
	second.resolve(failure)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.ErrorIs(t, combined.Wait(ctx), failure)
}
