// Package classify implements the pure, I/O-free rules that turn an HTTP
// status code or a delivery-attempt error into the outcome, retryable flag,
// and error_kind reported back to the store.
package classify

import (
	"context"
	"errors"
	"io"
	"net"
	"net/url"
)

// Outcome is the worker's classification of a delivery result.
type Outcome string

const (
	Delivered Outcome = "delivered"
	Retry     Outcome = "retry"
	Dead      Outcome = "dead"
)

// ErrorKind discriminates why a delivery attempt produced no response.
type ErrorKind string

const (
	Timeout         ErrorKind = "timeout"
	Network         ErrorKind = "network"
	InvalidResponse ErrorKind = "invalid_response"
	Unexpected      ErrorKind = "unexpected"
)

// ClassifyStatus maps a target HTTP status code to an outcome.
func ClassifyStatus(status int) Outcome {
	switch {
	case status >= 200 && status < 300:
		return Delivered
	case status == 408 || status == 429 || status >= 500:
		return Retry
	default:
		return Dead
	}
}

// IsRetryableStatus reports whether status classifies as Retry.
func IsRetryableStatus(status int) bool {
	return ClassifyStatus(status) == Retry
}

// ClassifyError maps a transport/timeout error from a delivery attempt to
// an error_kind. It never inspects error message text as anything but a
// last-resort fallback; classification is driven by the error chain.
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Timeout
	}

	if errors.Is(err, io.ErrUnexpectedEOF) {
		return InvalidResponse
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return Timeout
		}
		return Network
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return Network
	}

	return Unexpected
}

// IsRetryableErrorKind reports whether a failure of this kind should be
// retried (all three transport/timeout kinds are retryable; only the
// catch-all Unexpected kind never constitutes a retry on its own, though in
// practice every transport path this worker exercises maps to one of the
// three retryable kinds).
func IsRetryableErrorKind(kind ErrorKind) bool {
	switch kind {
	case Timeout, Network, InvalidResponse:
		return true
	default:
		return false
	}
}

// ResolveOutcome classifies the final result of a delivery's attempt
// sequence. hasResponse distinguishes a completed HTTP response (status is
// meaningful) from a transport/timeout failure (errKind is meaningful).
func ResolveOutcome(hasResponse bool, status int, errKind ErrorKind, attemptsBeforeLease, maxAttempts int) Outcome {
	if hasResponse {
		return ClassifyStatus(status)
	}
	if attemptsBeforeLease+1 >= maxAttempts {
		return Dead
	}
	return Retry
}

// Retryable computes the report's retryable flag. It is independent of
// ResolveOutcome's attempt-cap promotion to Dead: a timeout at the attempt
// cap is simultaneously outcome=dead and retryable=true.
func Retryable(hasResponse bool, status int, errKind ErrorKind) bool {
	if hasResponse {
		return IsRetryableStatus(status)
	}
	return IsRetryableErrorKind(errKind)
}
