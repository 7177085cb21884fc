// Package dispatcher runs the outer poll loop: lease a batch of events from
// the store, hand each to the delivery engine on a bounded pool of
// goroutines, and repeat on a jittered interval until the context is
// cancelled.
package dispatcher

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/fluxpoint/dispatcher/internal/store"
)

// Leaser is the subset of store.Client the dispatcher depends on.
type Leaser interface {
	Lease(ctx context.Context, workerID string, limit, leaseMs int) (*store.LeaseResponse, error)
}

// Deliverer runs the per-event pipeline. Implemented by *delivery.Engine.
type Deliverer interface {
	Deliver(ctx context.Context, leased store.LeasedEvent) error
}

// Config holds the poll-loop tuning the dispatcher needs.
type Config struct {
	WorkerID       string
	PollIntervalMs int
	BatchSize      int
	Concurrency    int
	LeaseMs        int
}

// Dispatcher owns the lease/dispatch/poll loop.
type Dispatcher struct {
	leaser    Leaser
	deliverer Deliverer
	cfg       Config
	logger    *slog.Logger
}

// New creates a Dispatcher.
func New(leaser Leaser, deliverer Deliverer, cfg Config, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{leaser: leaser, deliverer: deliverer, cfg: cfg, logger: logger}
}

// RunOnce leases a single batch and dispatches every leased event to the
// delivery engine, bounded by cfg.Concurrency in-flight deliveries. It
// returns once every dispatched delivery in the batch has completed.
func (d *Dispatcher) RunOnce(ctx context.Context) error {
	resp, err := d.leaser.Lease(ctx, d.cfg.WorkerID, d.cfg.BatchSize, d.cfg.LeaseMs)
	if err != nil {
		return err
	}

	if len(resp.Events) == 0 {
		d.logger.DebugContext(ctx, "dispatcher: lease returned no events")
		return nil
	}

	sem := make(chan struct{}, d.cfg.Concurrency)
	var wg sync.WaitGroup

	for _, leased := range resp.Events {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(le store.LeasedEvent) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := d.deliverer.Deliver(ctx, le); err != nil {
				d.logger.ErrorContext(ctx, "dispatcher: delivery failed",
					slog.String("event_id", le.Event.ID),
					slog.String("error", err.Error()))
			}
		}(leased)
	}

	wg.Wait()
	return nil
}

// Run polls forever, sleeping a jittered interval between batches, until ctx
// is cancelled. A lease failure is logged and does not stop the loop; it is
// treated the same as an empty batch, with the normal poll-interval sleep
// before the next attempt.
func (d *Dispatcher) Run(ctx context.Context) error {
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := d.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.logger.ErrorContext(ctx, "dispatcher: lease failed", slog.String("error", err.Error()))
		}

		delay := d.pollDelay(rng)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// pollDelay returns the configured poll interval jittered by ±20%, the same
// jitter band as the delivery engine's retry backoff, so that many workers
// polling the same store do not converge on lockstep requests.
func (d *Dispatcher) pollDelay(rng *rand.Rand) time.Duration {
	base := time.Duration(d.cfg.PollIntervalMs) * time.Millisecond
	if base <= 0 {
		return 0
	}
	jitterRange := float64(base) * 0.2
	jitter := (rng.Float64()*2 - 1) * jitterRange
	return base + time.Duration(jitter)
}
