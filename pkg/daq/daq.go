// Package daq describes the contracts that instrument drivers (producers)
// and storage/GUI/telemetry consumers use to talk to the streaming core
// (pkg/slotpool, pkg/ringlog, pkg/distributor). It holds no implementation
// of its own; it exists so the core's three components can be wired
// together without either side importing the other's concrete package.
package daq

import "context"

// Cloner is implemented by values that the core needs to copy rather than
// share: a SlotPool loan clone and every Distributor broadcast both hand out
// independent copies, never aliases into another holder's memory.
type Cloner[T any] interface {
	Clone() T
}

// Producer is an instrument driver's view of the core: acquire a slot,
// fill it, hand the frame downstream. Implementations are expected to call
// Close when the hardware session ends; the streaming core does not manage
// a producer's lifecycle.
type Producer[T any] interface {
	// Produce runs until ctx is cancelled or the driver hits an
	// unrecoverable error.
	Produce(ctx context.Context) error
	Close() error
}

// Consumer is a storage/GUI/telemetry client's view of the core. A Consumer
// may receive pushed values (Distributor subscriptions), poll snapshots
// (RingLog), or both.
type Consumer[T any] interface {
	Consume(ctx context.Context, value T) error
}
