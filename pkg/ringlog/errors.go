package ringlog

import "errors"

var (
	// ErrInvalidArgument covers contract violations the caller could have
	// checked itself: a zero capacity, a write longer than the ring, a
	// duplicate tap id.
	ErrInvalidArgument = errors.New("ringlog: invalid argument")

	// ErrCorrupted is returned by Open when an existing file's magic does
	// not match. Fatal for that ring: the operator must delete or
	// recreate the file.
	ErrCorrupted = errors.New("ringlog: corrupted file (bad magic)")

	// ErrCapacityMismatch is returned by Open when an existing file's size
	// does not match the requested capacity. Fatal: resizing in place
	// would corrupt the existing payload.
	ErrCapacityMismatch = errors.New("ringlog: capacity mismatch")

	// ErrOversizedWrite is returned by Write when len(payload) exceeds the
	// ring's capacity.
	ErrOversizedWrite = errors.New("ringlog: write exceeds ring capacity")

	// ErrSnapshotTimeout names the condition of a snapshot exhausting its
	// retry budget. No function in this package returns it: Snapshot
	// returns an empty buffer and logs a diagnostic instead.
	ErrSnapshotTimeout = errors.New("ringlog: snapshot timed out")

	// ErrTapExists is returned by RegisterTap for a duplicate id.
	ErrTapExists = errors.New("ringlog: tap id already registered")

	// ErrClosed is returned by RegisterTap on a closed RingLog. The other
	// methods do not check whether the ring has been closed.
	ErrClosed = errors.New("ringlog: closed")
)
