// Package ringlog implements C2 of the streaming core: a persistent,
// memory-mapped circular byte buffer written by exactly one writer and
// read by any number of concurrent readers, synchronized by a seqlock
// epoch counter rather than a reader lock. A tap registry supplies
// downsampled copies of every write to non-blocking subscribers.
//
// Typical use:
//
//	ring, err := ringlog.Open(ringlog.Options{
//	    Path:          "/var/lib/streamcore/camera0.ring",
//	    CapacityBytes: 64 << 20,
//	    Schema:        "frame_v1",
//	})
//	if err != nil {
//	    return err
//	}
//	defer ring.Close()
//
//	if err := ring.Write(frame); err != nil {
//	    return err
//	}
//
//	snapshot := ring.Snapshot()
//	ring.AdvanceTailBy(uint64(len(snapshot)))
package ringlog
