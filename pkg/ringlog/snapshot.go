package ringlog

import (
	"runtime"
	"time"
)

// Dual retry budget for Snapshot: a crashed writer can leave write_epoch
// permanently odd, so the retry loop must give up on both a bounded
// attempt count and a bounded wall-clock duration, not just one.
const (
	snapshotMaxAttempts = 100
	snapshotMaxWait     = 100 * time.Millisecond
	snapshotSpinRetries = 10
)

// Snapshot returns a best-effort consistent copy of the ring's unconsumed
// region [read_tail, write_head), capped at capacity_bytes. If the retry
// budget is exhausted — most often because a writer crashed mid-write,
// leaving the epoch permanently odd — it returns an empty slice and logs
// a diagnostic; it never returns an error, since a torn read is an
// expected, recoverable condition, not a caller mistake.
func (r *RingLog) Snapshot() []byte {
	capacity := r.hdr.capacityBytes()
	deadline := time.Now().Add(snapshotMaxWait)

	for attempt := 1; ; attempt++ {
		epochBefore := r.hdr.writeEpoch()

		if epochBefore%2 == 1 {
			if giveUp := r.backoffOrGiveUp(attempt, deadline); giveUp {
				return nil
			}

			continue
		}

		buf, ok := r.copySnapshot(capacity)

		// Full fence: ensure the copy above is ordered-before the epoch_after
		// load below on weakly-ordered architectures. atomic.LoadUint64
		// already implies the acquire ordering this recheck requires.
		epochAfter := r.hdr.writeEpoch()

		if epochAfter != epochBefore {
			if giveUp := r.backoffOrGiveUp(attempt, deadline); giveUp {
				return nil
			}

			continue
		}

		if !ok {
			return []byte{}
		}

		return buf
	}
}

// backoffOrGiveUp applies the spin-then-yield backoff and reports whether
// the retry budget (count or wall clock) is exhausted.
func (r *RingLog) backoffOrGiveUp(attempt int, deadline time.Time) bool {
	if attempt >= snapshotMaxAttempts || time.Now().After(deadline) {
		r.diag.RingSnapshotTimeout(attempt, snapshotMaxWait-time.Until(deadline))

		return true
	}

	if attempt <= snapshotSpinRetries {
		for i := 0; i < 32; i++ {
			// busy spin: cheaper than a yield for a write that is
			// expected to finish in nanoseconds.
		}
	} else {
		runtime.Gosched()
	}

	return false
}

// copySnapshot reads [read_tail, write_head) out of the ring, handling
// wrap-around with a two-part copy. ok is false only when there is nothing
// to return (head == tail).
func (r *RingLog) copySnapshot(capacity uint64) (buf []byte, ok bool) {
	head := r.hdr.writeHead()
	tail := r.hdr.readTail()

	var span uint64
	if head > tail {
		span = head - tail
	}

	if span > capacity {
		span = capacity
	}

	if span == 0 {
		return nil, false
	}

	out := make([]byte, span)
	offset := tail % capacity

	if offset+span > capacity {
		first := capacity - offset
		copy(out[:first], r.data[offset:capacity])
		copy(out[first:], r.data[0:span-first])
	} else {
		copy(out, r.data[offset:offset+span])
	}

	return out, true
}
