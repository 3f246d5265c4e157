package distributor

import "errors"

var (
	// ErrInvalidArgument covers contract violations the caller could have
	// checked itself: a non-positive per-subscriber capacity.
	ErrInvalidArgument = errors.New("distributor: invalid argument")

	// ErrClosed is returned by Subscribe on a closed Distributor.
	ErrClosed = errors.New("distributor: closed")
)
