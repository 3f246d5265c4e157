package ringlog

import (
	"fmt"
	"os"
	"sync"
	"syscall"

	ifs "github.com/calvinalkan/streamcore/internal/fs"
	"github.com/calvinalkan/streamcore/internal/telemetry"
)

// Options configures Open. CapacityBytes and Schema are only consulted
// when the file does not already exist (or is empty); on an existing,
// valid ring they are read back from the header instead. If
// CapacityBytes is also given for an existing ring, it is validated
// against the header rather than silently ignored.
type Options struct {
	// Path is the ring file's location. Required.
	Path string

	// CapacityBytes is the payload region size, used at creation. Must be
	// > 0 when creating a new ring.
	CapacityBytes uint64

	// Schema is an optional producer-defined description of the payload
	// shape (e.g. an Arrow/struct tag), written once at creation and
	// readable via RingLog.Schema(). Truncated to schemaCap bytes.
	Schema string

	// Diagnostics receives snapshot-timeout, tap-drop, and oversized-write
	// events. Defaults to telemetry.Nop().
	Diagnostics telemetry.Diagnostics

	// FS is the filesystem abstraction used for the companion lock file.
	// Defaults to fs.NewReal(). The backing ring file itself is always
	// opened through the os package.
	FS ifs.FS
}

// RingLog is a single-writer/multi-reader persistent circular byte buffer
// over a memory-mapped file. See the package doc for the full contract.
type RingLog struct {
	diag telemetry.Diagnostics

	file *os.File
	hdr  header
	data []byte // the capacity_bytes payload region, a sub-slice of mapped

	mapped []byte // the full mmap'd region, headerSize+capacityBytes long

	fileLock *ifs.Lock // cross-process advisory exclusive lock, held for RingLog's lifetime

	writeMu sync.Mutex // serializes Write against concurrent writers

	tapsMu sync.RWMutex
	taps   map[string]*Tap

	closeOnce sync.Once
}

// Open creates or opens a ring file per opts, following a preserve-vs-
// reinit rule: preserve iff magic matches and size matches; otherwise
// reinitialize only if the file was new or empty; otherwise fail, with
// ErrCorrupted for a bad magic or a file shorter than the header and
// ErrCapacityMismatch for a size that does not match.
func Open(opts Options) (*RingLog, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("ringlog: Open: path is required: %w", ErrInvalidArgument)
	}

	filesystem := opts.FS
	if filesystem == nil {
		filesystem = ifs.NewReal()
	}

	diag := opts.Diagnostics
	if diag == (telemetry.Diagnostics{}) {
		diag = telemetry.Nop()
	}

	locker := ifs.NewLocker(filesystem)

	// Cross-process advisory lock held for the RingLog's lifetime: the
	// whole point of a single-writer ring is that only one writer ever
	// holds it, even across process boundaries.
	fileLock, err := locker.Lock(ifs.LockPath(opts.Path))
	if err != nil {
		return nil, fmt.Errorf("ringlog: Open: acquire writer lock: %w", err)
	}

	ring, err := openLocked(opts, filesystem, diag, fileLock)
	if err != nil {
		_ = fileLock.Close()

		return nil, err
	}

	return ring, nil
}

func openLocked(opts Options, filesystem ifs.FS, diag telemetry.Diagnostics, fileLock *ifs.Lock) (*RingLog, error) {
	f, err := os.OpenFile(opts.Path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("ringlog: Open: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()

		return nil, fmt.Errorf("ringlog: Open: stat: %w", err)
	}

	isNew := info.Size() == 0

	var capacityBytes uint64

	switch {
	case isNew:
		if opts.CapacityBytes == 0 {
			f.Close()

			return nil, fmt.Errorf("ringlog: Open: creating %s requires CapacityBytes > 0: %w", opts.Path, ErrInvalidArgument)
		}

		capacityBytes = opts.CapacityBytes

		if err := f.Truncate(int64(headerSize + capacityBytes)); err != nil {
			f.Close()

			return nil, fmt.Errorf("ringlog: Open: truncate: %w", err)
		}

	default:
		capacityBytes, err = validateExisting(f, info, opts.CapacityBytes)
		if err != nil {
			f.Close()

			return nil, err
		}
	}

	mapped, err := syscall.Mmap(int(f.Fd()), 0, int(headerSize+capacityBytes), syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		f.Close()

		return nil, fmt.Errorf("ringlog: Open: mmap: %w", err)
	}

	hdr := newHeader(mapped)
	if isNew {
		hdr.initZero(capacityBytes, opts.Schema)
	}

	ring := &RingLog{
		diag:     diag,
		file:     f,
		hdr:      hdr,
		mapped:   mapped,
		data:     mapped[headerSize:],
		fileLock: fileLock,
		taps:     make(map[string]*Tap),
	}

	return ring, nil
}

// validateExisting checks an existing file's magic and size. It returns
// the ring's capacity on success.
func validateExisting(f *os.File, info os.FileInfo, wantCapacity uint64) (uint64, error) {
	size := info.Size()
	if size < headerSize {
		return 0, fmt.Errorf("ringlog: Open: %w: file smaller than header", ErrCorrupted)
	}

	// Peek the header without a full mmap so a mismatch fails fast.
	peek := make([]byte, headerSize)
	if _, err := f.ReadAt(peek, 0); err != nil {
		return 0, fmt.Errorf("ringlog: Open: read header: %w", err)
	}

	h := newHeader(peek)
	if h.magic() != magicValue {
		return 0, fmt.Errorf("ringlog: Open: %w", ErrCorrupted)
	}

	capacityBytes := h.capacityBytes()
	expectedSize := int64(headerSize + capacityBytes)

	if size != expectedSize {
		return 0, fmt.Errorf("ringlog: Open: %w: file is %d bytes, header capacity implies %d", ErrCapacityMismatch, size, expectedSize)
	}

	if wantCapacity != 0 && wantCapacity != capacityBytes {
		return 0, fmt.Errorf("ringlog: Open: %w: requested %d, file has %d", ErrCapacityMismatch, wantCapacity, capacityBytes)
	}

	return capacityBytes, nil
}

// Schema returns the producer-defined schema string recorded at creation.
func (r *RingLog) Schema() string {
	return r.hdr.schema()
}

// CapacityBytes returns the ring's fixed payload size.
func (r *RingLog) CapacityBytes() uint64 {
	return r.hdr.capacityBytes()
}

// Close unmaps the file and releases the cross-process writer lock. It
// does not truncate or otherwise mutate the file: a subsequent Open must
// succeed and see everything written so far.
func (r *RingLog) Close() error {
	var err error

	r.closeOnce.Do(func() {
		r.tapsMu.Lock()
		for _, t := range r.taps {
			t.closed.Store(true)
			t.closeChannel()
		}
		r.taps = nil
		r.tapsMu.Unlock()

		if mErr := syscall.Munmap(r.mapped); mErr != nil {
			err = fmt.Errorf("ringlog: Close: munmap: %w", mErr)
		}

		if cErr := r.file.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("ringlog: Close: %w", cErr)
		}

		if r.fileLock != nil {
			_ = r.fileLock.Close()
		}
	})

	return err
}
