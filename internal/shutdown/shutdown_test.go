package shutdown

import (
	"context"
	"errors"
	"os"
	"syscall"
	"testing"
	"time"
)

func TestRunReturnsWhenFnCompletesNormally(t *testing.T) {
	wantErr := errors.New("done")
	err := Run(t.Context(), time.Second, nil, func(ctx context.Context) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Run() error = %v, want %v", err, wantErr)
	}
}

func TestRunCancelsContextOnSignal(t *testing.T) {
	started := make(chan struct{})
	cancelled := make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Run(t.Context(), 2*time.Second, nil, func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			close(cancelled)
			return ctx.Err()
		})
	}()

	<-started
	if err := syscall.Kill(os.Getpid(), syscall.SIGINT); err != nil {
		t.Fatalf("send signal: %v", err)
	}

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("context was not cancelled after signal")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after fn completed")
	}
}

func TestRunReturnsNormallyWhenGracePeriodElapses(t *testing.T) {
	started := make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- Run(t.Context(), 20*time.Millisecond, nil, func(ctx context.Context) error {
			close(started)
			// Simulate work that ignores cancellation and never returns
			// before the grace period elapses.
			<-make(chan struct{})
			return nil
		})
	}()

	<-started
	if err := syscall.Kill(os.Getpid(), syscall.SIGINT); err != nil {
		t.Fatalf("send signal: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v, want nil (grace period elapsed must exit 0, not force-exit)", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after grace period elapsed")
	}
}
