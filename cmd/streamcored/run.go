package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/calvinalkan/streamcore/internal/daqconfig"
	"github.com/calvinalkan/streamcore/internal/examples"
	"github.com/calvinalkan/streamcore/internal/telemetry"
	"github.com/calvinalkan/streamcore/pkg/distributor"
	"github.com/calvinalkan/streamcore/pkg/ringlog"
	"github.com/calvinalkan/streamcore/pkg/slotpool"
)

func newRunCommand() *Command {
	flags := pflag.NewFlagSet("run", pflag.ContinueOnError)

	configPath := flags.String("config", "", "project config file (streamcore.json, JWCC)")
	cameraCount := flags.Int("cameras", 1, "number of synthetic camera producers to run")
	frameIntervalMS := flags.Int("frame-interval-ms", 50, "synthetic camera frame interval in milliseconds")

	return &Command{
		Flags: flags,
		Usage: "run [flags]",
		Short: "run the streaming core daemon",
		Long:  "run wires a SlotPool, RingLog, and Distributor together per config and keeps them running until SIGINT/SIGTERM.",
		Exec: func(ctx context.Context, io *IO, args []string) error {
			return runDaemon(ctx, io, *configPath, *cameraCount, time.Duration(*frameIntervalMS)*time.Millisecond)
		},
	}
}

func runDaemon(ctx context.Context, io *IO, configPath string, cameraCount int, frameInterval time.Duration) error {
	cfg, err := daqconfig.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	diag := telemetry.New(logger)

	pool, err := slotpool.New(cfg.PoolSize, func() examples.Frame { return examples.Frame{} }, nil,
		slotpool.WithDiagnostics[examples.Frame](diag))
	if err != nil {
		return fmt.Errorf("construct pool: %w", err)
	}
	defer pool.Close() //nolint:errcheck

	ring, err := ringlog.Open(ringlog.Options{
		Path:          cfg.RingPath,
		CapacityBytes: uint64(cfg.RingCapacityMB) << 20,
		Schema:        "streamcore.examples.Frame",
		Diagnostics:   diag,
	})
	if err != nil {
		return fmt.Errorf("open ring: %w", err)
	}
	defer ring.Close() //nolint:errcheck

	for _, tap := range cfg.Taps {
		if _, err := ring.RegisterTap(tap.ID, tap.NthFrame); err != nil {
			return fmt.Errorf("register tap %q: %w", tap.ID, err)
		}
	}

	dist, err := distributor.New[examples.Frame](cfg.DistributorCapacity,
		distributor.WithDiagnostics[examples.Frame](diag))
	if err != nil {
		return fmt.Errorf("construct distributor: %w", err)
	}
	defer dist.Close() //nolint:errcheck

	cameras := make([]*examples.Camera, cameraCount)
	for i := range cameras {
		cameras[i] = examples.NewCamera(fmt.Sprintf("camera%d", i), pool, ring, dist, 4096, frameInterval)
	}

	fmt.Fprintf(io.Out, "streamcored: running %d camera(s), ring=%s\n", cameraCount, cfg.RingPath)

	err = examples.RunCameras(ctx, cameras...)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run cameras: %w", err)
	}

	return nil
}
