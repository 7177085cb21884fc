// Package delivery implements the per-event pipeline: build the outgoing
// request, execute it with a per-attempt timeout and bounded jittered
// retry, classify the result, and report it to the store.
package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/fluxpoint/dispatcher/internal/classify"
	"github.com/fluxpoint/dispatcher/internal/store"
)

// ErrCancelled is returned by Deliver when the delivery was aborted by
// context cancellation rather than completed (successfully or not). A
// cancelled delivery is never reported; the lease is left to expire so
// another worker can re-lease the event.
var ErrCancelled = errors.New("delivery: cancelled")

const timestampLayout = "2006-01-02T15:04:05.000Z"

// Config holds the subset of the process configuration the engine needs.
type Config struct {
	WorkerID          string
	ImmediateRetryMax int
	RequestTimeoutMs  int
	MaxAttempts       int
}

// Reporter is the subset of store.Client the engine depends on, so tests
// can substitute a fake that captures submitted reports.
type Reporter interface {
	Report(ctx context.Context, req store.ReportRequest) (*store.ReportResponse, error)
}

// Engine runs the per-event delivery pipeline.
type Engine struct {
	httpClient *http.Client
	reporter   Reporter
	clock      Clock
	sleeper    Sleeper
	cfg        Config
	logger     *slog.Logger
}

// NewEngine creates a delivery engine. httpClient should be a single
// instance shared across all deliveries (pooled connections, safe for
// concurrent use).
func NewEngine(httpClient *http.Client, reporter Reporter, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		httpClient: httpClient,
		reporter:   reporter,
		clock:      SystemClock(),
		sleeper:    RealSleeper(),
		cfg:        cfg,
		logger:     logger,
	}
}

// WithClock overrides the engine's Clock (for tests).
func (e *Engine) WithClock(c Clock) *Engine { e.clock = c; return e }

// WithSleeper overrides the engine's Sleeper (for tests).
func (e *Engine) WithSleeper(s Sleeper) *Engine { e.sleeper = s; return e }

// attemptResult is the outcome of a single HTTP attempt.
type attemptResult struct {
	status  int
	headers map[string]string
	body    *string
	err     error
}

// Deliver runs the full attempt/retry sequence for one leased event and
// submits the outcome to the store. Cancellation at any suspension point
// aborts without reporting (ErrCancelled). Report-submission failures are
// logged and swallowed; Deliver still returns nil in that case, since the
// delivery attempt itself already completed against the target.
func (e *Engine) Deliver(ctx context.Context, leased store.LeasedEvent) error {
	rng := newRNG()

	startedAt := e.clock.Now()

	var final attemptResult
	maxAttempts := e.cfg.ImmediateRetryMax + 1

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ErrCancelled
		}

		final = e.attempt(ctx, leased)

		if final.err == nil && !classify.IsRetryableStatus(final.status) {
			// Success or a hard (non-retryable) status: this is the final
			// result, no further attempts.
			break
		}
		if final.err != nil && !classify.IsRetryableErrorKind(classify.ClassifyError(final.err)) {
			break
		}
		if attempt == maxAttempts {
			break
		}

		delay := jitteredBackoff(rng, attempt)
		if err := e.sleeper.Sleep(ctx, delay); err != nil {
			return ErrCancelled
		}
	}

	if ctx.Err() != nil {
		return ErrCancelled
	}

	finishedAt := e.clock.Now()

	record := buildAttemptRecord(leased, startedAt, finishedAt, final)
	hasResponse := final.err == nil
	outcome := classify.ResolveOutcome(hasResponse, final.status, classifyErrKind(final), leased.Event.Attempts, e.cfg.MaxAttempts)
	retryable := classify.Retryable(hasResponse, final.status, classifyErrKind(final))

	req := store.ReportRequest{
		WorkerID:      e.cfg.WorkerID,
		EventID:       leased.Event.ID,
		Outcome:       outcome,
		Retryable:     retryable,
		NextAttemptAt: nil,
		Attempt:       record,
	}

	resp, err := e.reporter.Report(ctx, req)
	if err != nil {
		e.logger.ErrorContext(ctx, "delivery: report failed",
			slog.String("event_id", leased.Event.ID),
			slog.String("error", err.Error()))
	} else {
		e.logger.DebugContext(ctx, "delivery: report submitted",
			slog.String("event_id", leased.Event.ID),
			slog.Any("circuit", resp.Circuit))
	}

	return nil
}

func classifyErrKind(r attemptResult) classify.ErrorKind {
	if r.err == nil {
		return ""
	}
	return classify.ClassifyError(r.err)
}

// attempt performs exactly one outbound HTTP attempt, bounded by the
// configured per-attempt timeout.
func (e *Engine) attempt(ctx context.Context, leased store.LeasedEvent) attemptResult {
	attemptCtx, cancel := context.WithTimeout(ctx, time.Duration(e.cfg.RequestTimeoutMs)*time.Millisecond)
	defer cancel()

	body := []byte(leased.Event.Payload)
	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, leased.TargetURL, bytes.NewReader(body))
	if err != nil {
		return attemptResult{err: fmt.Errorf("build request: %w", err)}
	}

	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range leased.Event.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return attemptResult{err: err}
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		// Drain any remainder so the connection can still be reused.
		io.Copy(io.Discard, resp.Body)
	}

	headers := map[string]string{}
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}

	if readErr != nil {
		// Best-effort body capture: a read failure does not fail the
		// attempt, it just leaves response_body null.
		return attemptResult{status: resp.StatusCode, headers: headers}
	}

	bodyStr := string(respBody)
	return attemptResult{status: resp.StatusCode, headers: headers, body: &bodyStr}
}

func buildAttemptRecord(leased store.LeasedEvent, startedAt, finishedAt time.Time, final attemptResult) store.AttemptRecord {
	record := store.AttemptRecord{
		StartedAt:      startedAt.Format(timestampLayout),
		FinishedAt:     finishedAt.Format(timestampLayout),
		RequestHeaders: leased.Event.Headers,
		RequestBody:    leased.Event.Payload,
	}

	if final.err == nil {
		status := final.status
		record.ResponseStatus = &status
		if final.headers != nil {
			record.ResponseHeaders = final.headers
		}
		record.ResponseBody = final.body
		return record
	}

	kind := classify.ClassifyError(final.err)
	record.ErrorKind = &kind
	msg := errorMessage(kind, final.err)
	record.ErrorMessage = &msg
	return record
}

func errorMessage(kind classify.ErrorKind, err error) string {
	if kind == classify.Timeout {
		return "Request timed out"
	}
	return err.Error()
}
