// Package telemetry wraps *zap.Logger into the small Diagnostics surface
// the streaming core uses to report events that are interesting but not
// errors: pool growth, acquire timeouts, tap and subscriber drops,
// snapshot timeouts, and subscriber cleanup. Every event is logged as
// structured fields, never a formatted string.
package telemetry

import (
	"time"

	"go.uber.org/zap"
)

// Diagnostics is the logging surface pkg/slotpool, pkg/ringlog, and
// pkg/distributor depend on. It has no error return: a diagnostic must
// never fail an operation or require its own error handling.
type Diagnostics struct {
	log *zap.Logger
}

// New wraps an existing *zap.Logger. Pass a logger already configured with
// the process's sink, level, and sampling policy.
func New(log *zap.Logger) Diagnostics {
	if log == nil {
		log = zap.NewNop()
	}

	return Diagnostics{log: log}
}

// Nop returns a Diagnostics that discards every event. It is the default
// for packages constructed without WithDiagnostics, and is what tests use.
func Nop() Diagnostics {
	return Diagnostics{log: zap.NewNop()}
}

// l returns the wrapped logger, or a no-op logger for a zero-value
// Diagnostics so callers who forget to set one (or forget Nop()) don't
// crash on a nil pointer.
func (d Diagnostics) l() *zap.Logger {
	if d.log == nil {
		return zap.NewNop()
	}

	return d.log
}

// PoolGrew logs a slotpool growth event: growth always logs, since it
// signals producers outrunning consumers.
func (d Diagnostics) PoolGrew(grownBy, newSize int) {
	d.l().Info("slotpool grew",
		zap.Int("grown_by", grownBy),
		zap.Int("new_size", newSize),
	)
}

// PoolAcquireTimeout logs a TryAcquireTimeout failure, including the
// permits available and pool size at the moment of timeout.
func (d Diagnostics) PoolAcquireTimeout(available, totalSlots int, timeout time.Duration) {
	d.l().Warn("slotpool acquire timed out",
		zap.Int("available", available),
		zap.Int("total_slots", totalSlots),
		zap.Duration("timeout", timeout),
	)
}

// RingTapQueueFull logs a dropped tap delivery caused by a full mailbox.
func (d Diagnostics) RingTapQueueFull(tapID string, queueCapacity int) {
	d.l().Warn("ringlog tap queue full, dropping frame",
		zap.String("tap_id", tapID),
		zap.Int("queue_capacity", queueCapacity),
	)
}

// RingTapClosedReceiver logs a dropped tap delivery because the receiver
// side is gone.
func (d Diagnostics) RingTapClosedReceiver(tapID string) {
	d.l().Info("ringlog tap receiver closed, dropping frame",
		zap.String("tap_id", tapID),
	)
}

// RingSnapshotTimeout logs a snapshot that gave up after exhausting both
// its retry-count and wall-clock budgets.
func (d Diagnostics) RingSnapshotTimeout(attempts int, elapsed time.Duration) {
	d.l().Warn("ringlog snapshot timed out, returning empty buffer",
		zap.Int("attempts", attempts),
		zap.Duration("elapsed", elapsed),
	)
}

// RingOversizedWrite logs a write rejected for exceeding ring capacity.
func (d Diagnostics) RingOversizedWrite(length int, capacityBytes uint64) {
	d.l().Warn("ringlog write exceeds capacity",
		zap.Int("length", length),
		zap.Uint64("capacity_bytes", capacityBytes),
	)
}

// DistributorQueueFull logs a dropped broadcast caused by a full
// subscriber mailbox.
func (d Diagnostics) DistributorQueueFull(subscriberName string, capacity int) {
	d.l().Warn("distributor subscriber queue full, dropping value",
		zap.String("subscriber", subscriberName),
		zap.Int("capacity", capacity),
	)
}

// DistributorSubscriberDropped logs a subscriber removed because its
// receiver side was closed.
func (d Diagnostics) DistributorSubscriberDropped(subscriberName string) {
	d.l().Info("distributor subscriber dropped",
		zap.String("subscriber", subscriberName),
	)
}
