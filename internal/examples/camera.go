// Package examples contains a synthetic camera producer that exercises
// pkg/slotpool, pkg/ringlog, and pkg/distributor together end to end. It
// stands in for a real camera driver; it exists only to give
// cmd/streamcored something runnable, the way agilira-lethe/examples/
// gives its buffer pool a runnable example.
package examples

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/calvinalkan/streamcore/pkg/daq"
	"github.com/calvinalkan/streamcore/pkg/distributor"
	"github.com/calvinalkan/streamcore/pkg/ringlog"
	"github.com/calvinalkan/streamcore/pkg/slotpool"
)

// Frame is the synthetic camera's payload type. Its Clone method satisfies
// daq.Cloner and the Clone() T method slotpool's CloneLoan looks for, so
// it can flow through both a pool loan clone and a Distributor broadcast. ProducerID identifies which Camera
// instance produced the frame, so a subscriber fed by more than one
// camera can tell frames from different producers apart.
type Frame struct {
	ProducerID uuid.UUID
	Seq        int
	Data       []byte
}

// Clone returns an independent copy of f.
func (f Frame) Clone() Frame {
	data := make([]byte, len(f.Data))
	copy(data, f.Data)

	return Frame{ProducerID: f.ProducerID, Seq: f.Seq, Data: data}
}

var _ daq.Cloner[Frame] = Frame{}

// Camera is a synthetic producer: on each tick it acquires a slot,
// fills it with a recognizable pattern, persists it to a RingLog, and
// broadcasts a clone through a Distributor.
type Camera struct {
	name      string
	id        uuid.UUID
	pool      *slotpool.Pool[Frame]
	ring      *ringlog.RingLog
	dist      *distributor.Distributor[Frame]
	frameSize int
	interval  time.Duration
}

// NewCamera wires together an already-constructed pool, ring, and
// distributor into one producer. frameSize is the synthetic frame's byte
// length; interval is how often a frame is produced. Each Camera gets a
// fresh producer ID stamped onto every Frame it emits.
func NewCamera(name string, pool *slotpool.Pool[Frame], ring *ringlog.RingLog, dist *distributor.Distributor[Frame], frameSize int, interval time.Duration) *Camera {
	return &Camera{
		name:      name,
		id:        uuid.New(),
		pool:      pool,
		ring:      ring,
		dist:      dist,
		frameSize: frameSize,
		interval:  interval,
	}
}

// Produce runs until ctx is cancelled, producing one frame per interval.
// The slot loan is acquired before producing the frame and released
// promptly after hand-off.
func (c *Camera) Produce(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	seq := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.produceOne(seq); err != nil {
				return fmt.Errorf("examples: camera %s: %w", c.name, err)
			}

			seq++
		}
	}
}

func (c *Camera) produceOne(seq int) error {
	loan, err := c.pool.AcquireOrGrow()
	if err != nil {
		return err
	}
	defer loan.Release()

	f := loan.Value()
	f.ProducerID = c.id
	f.Seq = seq

	if len(f.Data) != c.frameSize {
		f.Data = make([]byte, c.frameSize)
	}

	fillSyntheticPattern(f.Data, seq)

	if err := c.ring.Write(f.Data); err != nil {
		return err
	}

	c.dist.Broadcast(f.Clone())

	return nil
}

// Close is a no-op: the synthetic camera owns no resources beyond the
// pool/ring/distributor it was handed, which the caller owns and closes.
func (c *Camera) Close() error {
	return nil
}

var _ daq.Producer[Frame] = (*Camera)(nil)

func fillSyntheticPattern(buf []byte, seq int) {
	for i := range buf {
		buf[i] = byte(seq + i)
	}
}

// RunCameras runs every camera's Produce under one errgroup: the first
// camera to fail cancels the shared context for the rest, and RunCameras
// returns that first error (including context.Canceled on a clean
// caller-initiated shutdown).
func RunCameras(ctx context.Context, cameras ...*Camera) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, cam := range cameras {
		g.Go(func() error {
			return cam.Produce(gctx)
		})
	}

	return g.Wait()
}
