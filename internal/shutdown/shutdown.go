// Package shutdown implements the process's cooperative-cancellation
// contract: the first SIGINT/SIGTERM cancels the run context so in-flight
// work can wind down; a second signal forces immediate exit, while a hard
// deadline elapsing first just gives up waiting and returns normally.
package shutdown

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// ForceExitCode is the process exit code used when a second signal arrives
// before graceful shutdown completes.
const ForceExitCode = 130

// Run invokes fn with a context that is cancelled on the first SIGINT or
// SIGTERM. If a second signal arrives before fn returns, Run logs and calls
// os.Exit(ForceExitCode) without waiting further for fn. If instead the
// gracePeriod elapses first, Run gives up waiting on fn and returns nil so
// the caller exits normally with code 0; only the second-signal case forces
// ForceExitCode.
func Run(ctx context.Context, gracePeriod time.Duration, logger *slog.Logger, fn func(context.Context) error) error {
	if logger == nil {
		logger = slog.Default()
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() {
		done <- fn(sigCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-sigCtx.Done():
		logger.Info("shutdown: signal received, waiting for in-flight work to finish",
			slog.Duration("grace_period", gracePeriod))
	}

	forced := make(chan os.Signal, 1)
	signal.Notify(forced, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(forced)

	timer := time.NewTimer(gracePeriod)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-forced:
		logger.Warn("shutdown: second signal received, forcing exit")
		os.Exit(ForceExitCode)
	case <-timer.C:
		logger.Warn("shutdown: grace period elapsed, giving up on in-flight work")
	}

	return nil
}
