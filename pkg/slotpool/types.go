package slotpool

// chunkSize is the number of slots per segment. Segments are allocated in
// full and never resized after creation, so a *slot[T] handed out by one
// segment stays valid for the pool's lifetime even as later growth appends
// more segments: growing the outer []*segment[T] slice only ever copies
// segment pointers, never the slots themselves.
const chunkSize = 64

// slot is one fixed-address cell in the pool. Its value is owned
// exclusively by whichever Loan currently holds the slot's index.
type slot[T any] struct {
	value T
}

// segment is a fully preallocated, fixed-length run of slots.
type segment[T any] struct {
	slots [chunkSize]slot[T]
}

// Stats is a point-in-time snapshot of a Pool's size and usage, the Go
// analog of the source's PoolStats{total, available, loaned, grown_count}
// accessor. All fields are read together in one brief hold of the pool's
// mutex, the same lock acquire and release take to pop and push free-list
// indices.
type Stats struct {
	// TotalSlots is the pool's current size after any growth.
	TotalSlots int
	// Available is the number of free (unloaned) slots.
	Available int
	// Loaned is TotalSlots - Available.
	Loaned int
	// GrownCount is the number of times AcquireOrGrow (or an explicit Grow)
	// has grown the slot store since construction.
	GrownCount int
}
