package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/calvinalkan/streamcore/pkg/slotpool"
)

// newPoolStatsCommand demonstrates the shape Pool.Stats() reports by
// constructing a scratch pool of the requested size and printing its
// initial stats. A live daemon's actual pool is in-process memory with no
// external query surface (no GUI or RPC status panel); operators read
// pool growth events from the daemon's structured log instead
// (internal/telemetry).
func newPoolStatsCommand() *Command {
	flags := pflag.NewFlagSet("pool", pflag.ContinueOnError)
	size := flags.Int("size", 4, "pool size to report stats for")

	return &Command{
		Flags: flags,
		Usage: "pool [flags]",
		Short: "print the Stats() shape for a pool of the given size",
		Long:  "pool constructs a scratch SlotPool of --size byte-slice slots and prints Stats(): total, available, loaned, grown_count.",
		Exec: func(ctx context.Context, io *IO, args []string) error {
			pool, err := slotpool.New(*size, func() []byte { return nil }, nil)
			if err != nil {
				return fmt.Errorf("pool: %w", err)
			}
			defer pool.Close() //nolint:errcheck

			stats := pool.Stats()
			fmt.Fprintf(io.Out, "total_slots: %d\n", stats.TotalSlots)
			fmt.Fprintf(io.Out, "available:   %d\n", stats.Available)
			fmt.Fprintf(io.Out, "loaned:      %d\n", stats.Loaned)
			fmt.Fprintf(io.Out, "grown_count: %d\n", stats.GrownCount)

			return nil
		},
	}
}
