package slotpool_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/streamcore/pkg/slotpool"
)

type frame struct {
	payload [8]byte
	resets  int
}

func (f frame) Clone() frame {
	return f
}

func newFramePool(t *testing.T, size int) *slotpool.Pool[frame] {
	t.Helper()

	pool, err := slotpool.New(size, func() frame { return frame{} }, func(f *frame) {
		f.resets++
		f.payload = [8]byte{}
	})
	require.NoError(t, err)

	return pool
}

func TestNew_RejectsZeroSize(t *testing.T) {
	_, err := slotpool.New(0, func() frame { return frame{} }, nil)
	require.ErrorIs(t, err, slotpool.ErrInvalidArgument)
}

func TestAcquireRelease_SlotReuseUnderLoad(t *testing.T) {
	// Seed case 1: pool size 4, 8 concurrent tasks each acquire/release 100 times.
	pool := newFramePool(t, 4)

	var wg sync.WaitGroup

	indices := make(chan int, 8*100)

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 100 {
				loan, err := pool.Acquire(context.Background())
				require.NoError(t, err)

				indices <- loan.Index()
				time.Sleep(time.Millisecond)
				loan.Release()
			}
		}()
	}

	wg.Wait()
	close(indices)

	for idx := range indices {
		require.GreaterOrEqual(t, idx, 0)
		require.Less(t, idx, 4)
	}

	stats := pool.Stats()
	require.Equal(t, 4, stats.TotalSlots)
	require.Equal(t, 4, stats.Available)
	require.Equal(t, 0, stats.Loaned)
}

func TestAcquireOrGrow_PreservesStability(t *testing.T) {
	// Seed case 2: pool size 2, grow by 8 on a third acquire, existing
	// loans stay valid and writable.
	pool := newFramePool(t, 2)

	loan1, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	loan2, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	loan1.Value().payload[0] = 42
	loan2.Value().payload[0] = 84

	loan3, err := pool.AcquireOrGrow()
	require.NoError(t, err)

	defer loan3.Release()

	require.Equal(t, byte(42), loan1.Value().payload[0])
	require.Equal(t, byte(84), loan2.Value().payload[0])

	loan1.Value().payload[1] = 1
	loan2.Value().payload[1] = 2
	require.Equal(t, byte(1), loan1.Value().payload[1])
	require.Equal(t, byte(2), loan2.Value().payload[1])

	stats := pool.Stats()
	require.Equal(t, 10, stats.TotalSlots)
	require.Equal(t, 1, stats.GrownCount)

	loan1.Release()
	loan2.Release()
}

func TestTryAcquire_ReturnsExhausted(t *testing.T) {
	pool := newFramePool(t, 1)

	loan, err := pool.TryAcquire()
	require.NoError(t, err)

	_, err = pool.TryAcquire()
	require.ErrorIs(t, err, slotpool.ErrPoolExhausted)

	loan.Release()

	loan2, err := pool.TryAcquire()
	require.NoError(t, err)
	loan2.Release()
}

func TestTryAcquireTimeout_ReturnsPoolTimeout(t *testing.T) {
	pool := newFramePool(t, 1)

	loan, err := pool.TryAcquire()
	require.NoError(t, err)
	defer loan.Release()

	_, err = pool.TryAcquireTimeout(20 * time.Millisecond)
	require.ErrorIs(t, err, slotpool.ErrPoolTimeout)
}

func TestRelease_AppliesResetExactlyOnce(t *testing.T) {
	pool := newFramePool(t, 1)

	loan, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	loan.Release()
	loan.Release()
	loan.Release()

	loan2, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, loan2.Value().resets)
}

func TestCloneLoan_CopiesIndependently(t *testing.T) {
	pool := newFramePool(t, 2)

	original, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	original.Value().payload[0] = 7

	clone, err := pool.CloneLoan(original)
	require.NoError(t, err)

	require.Equal(t, original.Value().payload, clone.Value().payload)

	clone.Value().payload[0] = 9
	require.Equal(t, byte(7), original.Value().payload[0])

	original.Release()
	clone.Release()
}

func TestCloneLoan_RejectsNonCloneableType(t *testing.T) {
	pool, err := slotpool.New(1, func() int { return 0 }, nil)
	require.NoError(t, err)

	loan, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	defer loan.Release()

	_, err = pool.CloneLoan(loan)
	require.ErrorIs(t, err, slotpool.ErrInvalidArgument)
}

func TestAcquire_FailsAfterClose(t *testing.T) {
	pool := newFramePool(t, 1)
	require.NoError(t, pool.Close())

	_, err := pool.Acquire(context.Background())
	require.ErrorIs(t, err, slotpool.ErrPoolClosed)
}

func TestAcquire_RespectsContextCancellation(t *testing.T) {
	pool := newFramePool(t, 1)

	loan, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	defer loan.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = pool.Acquire(ctx)
	require.True(t, errors.Is(err, context.DeadlineExceeded))
}
