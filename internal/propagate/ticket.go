package propagate

import "context"

// Ticket reports the outcome of one submitted remote write. Callers may
// ignore it, poll Done, or block in Wait.
type Ticket struct {
	done chan struct{}
	err  error
}

func newTicket() *Ticket {
	return &Ticket{done: make(chan struct{})}
}

// Resolved returns a ticket that is already complete with err.
func Resolved(err error) *Ticket {
	t := newTicket()
	t.resolve(err)
	return t
}

func (t *Ticket) resolve(err error) {
	t.err = err
	close(t.done)
}

// Done is closed once the write finished or was abandoned.
func (t *Ticket) Done() <-chan struct{} {
	return t.done
}

// Err returns the final error. It is only meaningful after Done is closed.
func (t *Ticket) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the write completes or ctx ends.
func (t *Ticket) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// All returns a ticket that completes once every given ticket has. Its error
// is the first non-nil error in argument order.
func All(tickets ...*Ticket) *Ticket {
	switch len(tickets) {
	case 0:
		return Resolved(nil)
	case 1:
		return tickets[0]
	}
	combined := newTicket()
	go func() {
		var first error
		for _, t := range tickets {
			<-t.done
			if first == nil && t.err != nil {
				first = t.err
			}
		}
		combined.resolve(first)
	}()
	return combined
}
