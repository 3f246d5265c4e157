// Package distributor implements C3 of the streaming core: an in-memory
// fan-out of cloneable measurement records to dynamically registered
// subscribers, each with a bounded mailbox and drop-on-full semantics. A
// broadcast never blocks on a slow subscriber; dead subscribers are
// cleaned up as a side effect of the next broadcast, not by a background
// task.
package distributor

import (
	"fmt"
	"sync"

	"github.com/calvinalkan/streamcore/internal/telemetry"
	"github.com/calvinalkan/streamcore/pkg/daq"
)

// Distributor fans out values of type T, which must be cloneable: every
// subscriber receives an independent copy, never an alias into another
// subscriber's value.
type Distributor[T daq.Cloner[T]] struct {
	capacity int
	diag     telemetry.Diagnostics

	mu     sync.Mutex
	subs   []*Subscription[T]
	closed bool
}

// Option configures a Distributor at construction time.
type Option[T daq.Cloner[T]] func(*Distributor[T])

// WithDiagnostics attaches a telemetry sink. Defaults to telemetry.Nop().
func WithDiagnostics[T daq.Cloner[T]](d telemetry.Diagnostics) Option[T] {
	return func(dist *Distributor[T]) { dist.diag = d }
}

// New constructs a Distributor whose subscribers each get a mailbox of the
// given capacity. capacity must be > 0.
func New[T daq.Cloner[T]](capacity int, opts ...Option[T]) (*Distributor[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("distributor: New capacity=%d: %w", capacity, ErrInvalidArgument)
	}

	d := &Distributor[T]{capacity: capacity, diag: telemetry.Nop()}

	for _, o := range opts {
		o(d)
	}

	return d, nil
}

// Subscribe creates a new bounded subscription and appends it to the
// subscriber list. Multiple subscriptions may share a name; names are
// purely diagnostic.
func (d *Distributor[T]) Subscribe(name string) (*Subscription[T], error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}

	sub := &Subscription[T]{name: name, ch: make(chan T, d.capacity)}
	d.subs = append(d.subs, sub)

	return sub, nil
}

// SubscriberCount reports the number of currently registered subscribers.
func (d *Distributor[T]) SubscriberCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.subs)
}

// Broadcast clones value once per healthy subscriber and attempts a
// non-blocking send to each. A full mailbox drops the clone and logs a
// warning; a subscriber that unsubscribed since the last broadcast is
// removed from the list after this pass. Broadcast's own cost is O(N) in
// the subscriber count, independent of how fast any subscriber drains its
// mailbox.
func (d *Distributor[T]) Broadcast(value T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var stale []int

	for i, sub := range d.subs {
		if sub.closed.Load() {
			stale = append(stale, i)

			continue
		}

		select {
		case sub.ch <- value.Clone():
		default:
			d.diag.DistributorQueueFull(sub.name, d.capacity)
		}
	}

	// Remove stale subscribers in descending index order so earlier
	// indices stay valid as later ones are deleted. The channel close
	// happens here, under mu, so it can never race the send above: both
	// are serialized by the same lock that guards every Broadcast call.
	for i := len(stale) - 1; i >= 0; i-- {
		idx := stale[i]
		d.diag.DistributorSubscriberDropped(d.subs[idx].name)
		d.subs[idx].closeChannel()
		d.subs = append(d.subs[:idx], d.subs[idx+1:]...)
	}
}

// Close unsubscribes every current subscriber, closing their channels so
// any blocked range-over-channel consumer unblocks, and marks the
// Distributor closed: further Subscribe calls fail with ErrClosed. The
// closes happen here, under mu, rather than delegating to Unsubscribe,
// since Close must guarantee every channel is closed before it returns.
func (d *Distributor[T]) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}

	d.closed = true

	for _, sub := range d.subs {
		sub.closed.Store(true)
		sub.closeChannel()
	}

	d.subs = nil

	return nil
}
