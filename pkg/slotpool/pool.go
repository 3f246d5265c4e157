// Package slotpool implements C1 of the streaming core: an allocation-free
// pool of fixed-size slots, each granting exactly one exclusive Loan at a
// time, growable on exhaustion without invalidating Loans already handed
// out. It is the Go analog of a frame-buffer arena sized for a camera's
// circular-buffer overwrite window: a producer acquires a slot, writes a
// frame into it, and releases it back to the pool once the frame has been
// handed off to pkg/ringlog or pkg/distributor.
//
// Typical use:
//
//	pool, err := slotpool.New(4, func() []byte { return make([]byte, frameSize) }, nil)
//	if err != nil {
//	    return err
//	}
//	loan, err := pool.Acquire(ctx)
//	if err != nil {
//	    return err
//	}
//	defer loan.Release()
//	copy(*loan.Value(), frame)
package slotpool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/calvinalkan/streamcore/internal/telemetry"
)

// Pool owns an ordered, growable sequence of slots, a free-list of unused
// slot indices, and a counting permit semaphore whose weight always equals
// the number of free slots. See the package doc for the full contract.
type Pool[T any] struct {
	diag telemetry.Diagnostics

	factory func() T
	reset   func(*T)

	sem *semaphore.Weighted

	// mu guards segments (append-only growth), free, and the bookkeeping
	// counters below. It is never held across a caller's access to a
	// slot's value — only while popping/pushing free-list indices and
	// while growing the segment table.
	mu         sync.Mutex
	segments   []*segment[T]
	size       int // current size, monotonically non-decreasing
	initial    int // initial size, fixed at construction
	free       []int
	grownCount int
	closed     bool
}

// New preallocates size slots, each produced by factory, and fills the
// free-list with every index. size must be > 0. reset may be nil, meaning
// a released slot's value is left as-is for the next loan to overwrite.
func New[T any](size int, factory func() T, reset func(*T), opts ...Option[T]) (*Pool[T], error) {
	if size <= 0 {
		return nil, fmt.Errorf("slotpool: New size=%d: %w", size, ErrInvalidArgument)
	}

	if factory == nil {
		return nil, fmt.Errorf("slotpool: New: factory is required: %w", ErrInvalidArgument)
	}

	// A Weighted semaphore's size is fixed, so it is created far larger than
	// any reachable pool and taken in full here; grow then hands out one
	// permit per new slot through Release.
	const maxPermits = 1 << 62

	p := &Pool[T]{
		diag:    telemetry.Nop(),
		factory: factory,
		reset:   reset,
		sem:     semaphore.NewWeighted(maxPermits),
		initial: size,
	}

	p.sem.TryAcquire(maxPermits)

	for _, o := range opts {
		o(p)
	}

	p.grow(size)

	return p, nil
}

// Option configures a Pool at construction time.
type Option[T any] func(*Pool[T])

// WithDiagnostics attaches a telemetry sink. Growth and acquire-timeout
// events are logged through it; the default is telemetry.Nop().
func WithDiagnostics[T any](d telemetry.Diagnostics) Option[T] {
	return func(p *Pool[T]) { p.diag = d }
}

// grow must be called with p.mu held. It appends count new slots, extends
// the free-list, and adds count new permits. Existing segment pointers are
// never touched, so outstanding Loans remain valid.
func (p *Pool[T]) grow(count int) {
	start := p.size

	for i := 0; i < count; i++ {
		idx := start + i
		if idx%chunkSize == 0 {
			p.segments = append(p.segments, &segment[T]{})
		}

		seg := p.segments[idx/chunkSize]
		seg.slots[idx%chunkSize] = slot[T]{value: p.factory()}
		p.free = append(p.free, idx)
	}

	p.size += count
	p.sem.Release(int64(count))
}

// slotAt returns the stable pointer to slot i's value. Callers must hold a
// permit (i.e. have popped i off the free-list) before calling this, which
// guarantees exclusivity over the value; mu is held only for the brief read
// of the segment table, which Grow may be appending to concurrently.
func (p *Pool[T]) slotAt(i int) *T {
	p.mu.Lock()
	seg := p.segments[i/chunkSize]
	p.mu.Unlock()

	return &seg.slots[i%chunkSize].value
}

// popFree pops one index off the free-list. Must be called only after a
// permit has been acquired, which guarantees the free-list is non-empty.
func (p *Pool[T]) popFree() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.free)
	idx := p.free[n-1]
	p.free = p.free[:n-1]

	return idx
}

// pushFree returns index i to the free-list.
func (p *Pool[T]) pushFree(i int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.free = append(p.free, i)
}

// Acquire suspends until a permit is available, then returns a Loan over a
// free slot. It fails only if ctx is cancelled or the pool is closed.
func (p *Pool[T]) Acquire(ctx context.Context) (*Loan[T], error) {
	if p.isClosed() {
		return nil, ErrPoolClosed
	}

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("slotpool: Acquire: %w", err)
	}

	idx := p.popFree()

	return &Loan[T]{pool: p, idx: idx, ptr: p.slotAt(idx)}, nil
}

// TryAcquire returns ErrPoolExhausted immediately if no permit is available,
// instead of suspending.
func (p *Pool[T]) TryAcquire() (*Loan[T], error) {
	if p.isClosed() {
		return nil, ErrPoolClosed
	}

	if !p.sem.TryAcquire(1) {
		return nil, ErrPoolExhausted
	}

	idx := p.popFree()

	return &Loan[T]{pool: p, idx: idx, ptr: p.slotAt(idx)}, nil
}

// TryAcquireTimeout suspends until either a permit is released or d
// elapses. On timeout it returns ErrPoolTimeout and logs a diagnostic that
// includes the permits currently available and the pool's current size.
func (p *Pool[T]) TryAcquireTimeout(d time.Duration) (*Loan[T], error) {
	if p.isClosed() {
		return nil, ErrPoolClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	if err := p.sem.Acquire(ctx, 1); err != nil {
		stats := p.Stats()
		p.diag.PoolAcquireTimeout(stats.Available, stats.TotalSlots, d)

		return nil, fmt.Errorf("slotpool: TryAcquireTimeout after %s: %w", d, ErrPoolTimeout)
	}

	idx := p.popFree()

	return &Loan[T]{pool: p, idx: idx, ptr: p.slotAt(idx)}, nil
}

// AcquireOrGrow tries TryAcquire once; on exhaustion it grows the pool by
// max(current_size, 8) slots and must succeed on the second attempt.
// Growth always logs: it indicates producers are outrunning consumers,
// a diagnostic condition, not a performance optimization.
func (p *Pool[T]) AcquireOrGrow() (*Loan[T], error) {
	if loan, err := p.TryAcquire(); err == nil {
		return loan, nil
	}

	if err := p.Grow(); err != nil {
		return nil, err
	}

	loan, err := p.TryAcquire()
	if err != nil {
		return nil, fmt.Errorf("slotpool: AcquireOrGrow: grow did not yield a permit: %w", err)
	}

	return loan, nil
}

// Grow appends max(current_size, 8) new slots. Callers normally reach this
// through AcquireOrGrow (CloneLoan included); it is exported so embedders
// can grow explicitly.
func (p *Pool[T]) Grow() error {
	if p.isClosed() {
		return ErrPoolClosed
	}

	p.mu.Lock()
	n := p.size
	if n < 8 {
		n = 8
	}
	p.grow(n)
	p.grownCount++
	size := p.size
	p.mu.Unlock()

	p.diag.PoolGrew(n, size)

	return nil
}

// release returns a slot to the pool: applies reset (if configured), pushes
// the index back on the free-list, and releases one permit. It is invoked
// exactly once, by Loan.Release.
func (p *Pool[T]) release(idx int) {
	if p.reset != nil {
		p.reset(p.slotAt(idx))
	}

	p.pushFree(idx)
	p.sem.Release(1)
}

// cloner is the constraint CloneLoan requires of T at runtime: a value
// receiver Clone method returning an independent copy.
type cloner[T any] interface {
	Clone() T
}

// CloneLoan acquires a new Loan and copies loan's value into it via T's
// Clone method. If the pool is exhausted it grows (logging backpressure)
// rather than failing. Cloning is distinct from sharing: the returned Loan
// never aliases the original slot.
func (p *Pool[T]) CloneLoan(loan *Loan[T]) (*Loan[T], error) {
	c, ok := any(*loan.ptr).(cloner[T])
	if !ok {
		return nil, fmt.Errorf("slotpool: CloneLoan: %T does not implement Clone() T: %w", *loan.ptr, ErrInvalidArgument)
	}

	newLoan, err := p.AcquireOrGrow()
	if err != nil {
		return nil, fmt.Errorf("slotpool: CloneLoan: %w", err)
	}

	*newLoan.ptr = c.Clone()

	return newLoan, nil
}

// Stats returns a point-in-time snapshot of pool size and usage.
func (p *Pool[T]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	available := len(p.free)

	return Stats{
		TotalSlots: p.size,
		Available:  available,
		Loaned:     p.size - available,
		GrownCount: p.grownCount,
	}
}

// Close marks the pool closed. Outstanding Loans may still be released
// normally; subsequent Acquire/TryAcquire/Grow calls fail with
// ErrPoolClosed.
func (p *Pool[T]) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	return nil
}

func (p *Pool[T]) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.closed
}
