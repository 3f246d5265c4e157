package slotpool

import "errors"

// Sentinel errors returned by Pool operations. Wrap with fmt.Errorf("...: %w", ...)
// at the call site so errors.Is keeps working through added context.
var (
	// ErrInvalidArgument is returned for contract violations the caller
	// could have checked itself: a zero pool size, a clone request against
	// a type that does not implement Clone.
	ErrInvalidArgument = errors.New("slotpool: invalid argument")

	// ErrPoolExhausted is returned by TryAcquire when no permit is
	// immediately available.
	ErrPoolExhausted = errors.New("slotpool: pool exhausted")

	// ErrPoolTimeout is returned by TryAcquireTimeout when the deadline
	// elapses before a permit becomes available.
	ErrPoolTimeout = errors.New("slotpool: acquire timed out")

	// ErrPoolClosed is returned by any operation on a closed pool.
	ErrPoolClosed = errors.New("slotpool: pool closed")
)
