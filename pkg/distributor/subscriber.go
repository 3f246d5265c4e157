package distributor

import (
	"sync"
	"sync/atomic"
)

// Subscription is a bounded, named queue carrying clones of broadcast
// values. A subscriber tolerates messages being dropped under
// backpressure; it must not assume it receives every broadcast.
type Subscription[T any] struct {
	name string
	ch   chan T

	closed    atomic.Bool
	closeOnce sync.Once
}

// Name returns the subscriber's diagnostic name. Names are not unique:
// multiple subscriptions may share one.
func (s *Subscription[T]) Name() string {
	return s.name
}

// C returns the channel to receive broadcast clones from.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Unsubscribe marks this subscription dead. It only flips a flag; it
// does not close the channel itself, since the caller does not hold the
// owning Distributor's lock and Broadcast may be sending to this
// channel concurrently. The next Broadcast observes the flag, closes
// the channel under the Distributor's lock, and removes the
// subscription from the list — this is the only way a subscriber is
// ever cleaned up, there is no background task.
func (s *Subscription[T]) Unsubscribe() {
	s.closed.Store(true)
}

// closeChannel closes the underlying channel exactly once. Callers must
// hold the owning Distributor's mu so no concurrent send can race the
// close.
func (s *Subscription[T]) closeChannel() {
	s.closeOnce.Do(func() { close(s.ch) })
}
