// Package propagate pushes local mutations to the remote store in the
// background. Writes run one at a time in submission order, each retried with
// exponential backoff; the outcome is reported through a Ticket.
package propagate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/neoarchive/neoarchive/internal/logger"
	"github.com/neoarchive/neoarchive/internal/remote"
)

var (
	// ErrOffline resolves tickets submitted while the session is offline.
	ErrOffline = errors.New("offline: remote propagation disabled")
	// ErrClosed resolves tickets still queued when the propagator stops.
	ErrClosed = errors.New("propagator stopped")
)

type opKind int

const (
	opUpsert opKind = iota
	opDelete
)

func (k opKind) String() string {
	if k == opDelete {
		return "delete"
	}
	return "upsert"
}

type task struct {
	op     opKind
	table  remote.Table
	key    string
	data   json.RawMessage
	ticket *Ticket
}

// Options tune retries.
type Options struct {
	// Attempts is the total number of tries per write, at least 1.
	Attempts uint64
	// BaseDelay is the first backoff delay; it doubles on every retry.
	BaseDelay time.Duration
	// CallTimeout bounds each individual remote call. Zero means no bound.
	CallTimeout time.Duration
}

// Propagator owns the background write queue.
type Propagator struct {
	store remote.Store
	opts  Options

	mu      sync.Mutex
	queue   []task
	online  bool
	stopped bool
	wake    chan struct{}

	wg sync.WaitGroup
}

// New returns an offline propagator. Call SetOnline(true) once the remote is
// known to be reachable and Start to run the worker.
func New(store remote.Store, opts Options) *Propagator {
	if opts.Attempts == 0 {
		opts.Attempts = 1
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 200 * time.Millisecond
	}
	return &Propagator{
		store: store,
		opts:  opts,
		wake:  make(chan struct{}, 1),
	}
}

// SetOnline enables or disables remote propagation. Disabling does not
// cancel writes already queued.
func (p *Propagator) SetOnline(online bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online = online && p.store != nil
}

// Online reports whether submissions are currently sent to the remote.
func (p *Propagator) Online() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online
}

// Upsert queues a keyed whole-record write of record.
func (p *Propagator) Upsert(table remote.Table, key string, record any) *Ticket {
	data, err := json.Marshal(record)
	if err != nil {
		return Resolved(fmt.Errorf("marshal %s/%s: %w", table, key, err))
	}
	return p.submit(task{op: opUpsert, table: table, key: key, data: data})
}

// Delete queues removal of key from table.
func (p *Propagator) Delete(table remote.Table, key string) *Ticket {
	return p.submit(task{op: opDelete, table: table, key: key})
}

func (p *Propagator) submit(t task) *Ticket {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return Resolved(ErrClosed)
	}
	if !p.online {
		return Resolved(ErrOffline)
	}

	t.ticket = newTicket()
	p.queue = append(p.queue, t)
	select {
	case p.wake <- struct{}{}:
	default:
	}
	return t.ticket
}

// Pending returns the number of queued writes.
func (p *Propagator) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Start runs the worker until ctx is done. Writes still queued at that point
// are resolved with ErrClosed. The returned channel closes when the worker exits.
func (p *Propagator) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	p.wg.Add(1)
	go func() {
		defer close(done)
		defer p.wg.Done()
		logger.WithComponent("propagate").Debugf("remote propagation worker running")
		for {
			select {
			case <-ctx.Done():
				p.stop()
				logger.WithComponent("propagate").Info("remote propagation worker stopped")
				return
			case <-p.wake:
				p.drain(ctx)
			}
		}
	}()
	return done
}

// Wait blocks until the worker started by Start has exited.
func (p *Propagator) Wait() {
	p.wg.Wait()
}

func (p *Propagator) next() (task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return task{}, false
	}
	t := p.queue[0]
	p.queue[0] = task{}
	p.queue = p.queue[1:]
	return t, true
}

func (p *Propagator) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		t, ok := p.next()
		if !ok {
			return
		}
		err := p.execute(ctx, t)
		if err != nil {
			logger.WithComponent("propagate").Warnf("remote %s %s/%s failed: %v", t.op, t.table, t.key, err)
		} else {
			logger.WithComponent("propagate").Debugf("remote %s %s/%s done", t.op, t.table, t.key)
		}
		t.ticket.resolve(err)
	}
}

func (p *Propagator) execute(ctx context.Context, t task) error {
	backoff := retry.WithMaxRetries(p.opts.Attempts-1, retry.NewExponential(p.opts.BaseDelay))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		callCtx := ctx
		if p.opts.CallTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, p.opts.CallTimeout)
			defer cancel()
		}

		var err error
		switch t.op {
		case opDelete:
			err = p.store.Delete(callCtx, t.table, t.key)
		default:
			err = p.store.Upsert(callCtx, t.table, t.key, t.data)
		}
		if err == nil {
			return nil
		}
		if errors.Is(err, remote.ErrUnknownTable) {
			return err
		}
		return retry.RetryableError(err)
	})
}

func (p *Propagator) stop() {
	p.mu.Lock()
	p.stopped = true
	pending := p.queue
	p.queue = nil
	p.mu.Unlock()

	for _, t := range pending {
		t.ticket.resolve(ErrClosed)
	}
}
