package store

import "github.com/fluxpoint/dispatcher/internal/classify"

// EventFields mirrors the store's opaque event envelope. Most fields are
// forwarded as-is; only Headers, Payload, and Attempts are interpreted by
// the dispatcher itself.
type EventFields struct {
	ID             string            `json:"id"              validate:"required"`
	EndpointID     string            `json:"endpoint_id"     validate:"required"`
	Provider       string            `json:"provider"`
	Headers        map[string]string `json:"headers"`
	Payload        string            `json:"payload"`
	Attempts       int               `json:"attempts"        validate:"gte=0"`
	Status         string            `json:"status"`
	ReceivedAt     string            `json:"received_at"`
	NextAttemptAt  *string           `json:"next_attempt_at"`
	LeaseExpiresAt string            `json:"lease_expires_at"`
	LeasedBy       string            `json:"leased_by"`
	LastError      *string           `json:"last_error"`
}

// LeasedEvent is one event handed back by the store's /lease endpoint.
type LeasedEvent struct {
	Event          EventFields `json:"event"           validate:"required"`
	TargetURL      string      `json:"target_url"      validate:"required,url"`
	LeaseExpiresAt string      `json:"lease_expires_at"`
	Circuit        any         `json:"circuit,omitempty"`
}

// LeaseResponse is the decoded body of POST /internal/dispatcher/lease.
type LeaseResponse struct {
	Events []LeasedEvent `json:"events" validate:"dive"`
}

// AttemptRecord describes exactly one outbound HTTP attempt sequence for a
// single leased event, as submitted in a ReportRequest.
type AttemptRecord struct {
	StartedAt       string             `json:"started_at"`
	FinishedAt      string             `json:"finished_at"`
	RequestHeaders  map[string]string  `json:"request_headers"`
	RequestBody     string             `json:"request_body"`
	ResponseStatus  *int               `json:"response_status"`
	ResponseHeaders map[string]string  `json:"response_headers"`
	ResponseBody    *string            `json:"response_body"`
	ErrorKind       *classify.ErrorKind `json:"error_kind"`
	ErrorMessage    *string            `json:"error_message"`
}

// ReportRequest is the body submitted to POST /internal/dispatcher/report.
type ReportRequest struct {
	WorkerID      string            `json:"worker_id"`
	EventID       string            `json:"event_id"`
	Outcome       classify.Outcome  `json:"outcome"`
	Retryable     bool              `json:"retryable"`
	NextAttemptAt *string           `json:"next_attempt_at"`
	Attempt       AttemptRecord     `json:"attempt"`
}

// ReportResponse is the decoded body of POST /internal/dispatcher/report.
// Circuit is opaque and only logged, never acted upon.
type ReportResponse struct {
	Circuit any `json:"circuit"`
}

// ApiErrorCode enumerates the store's documented error codes.
type ApiErrorCode string

const (
	CodeValidation  ApiErrorCode = "validation"
	CodeUnauthorized ApiErrorCode = "unauthorized"
	CodeRateLimited ApiErrorCode = "rate_limited"
	CodeNotFound    ApiErrorCode = "not_found"
	CodeConflict    ApiErrorCode = "conflict"
	CodeDatabase    ApiErrorCode = "database"
	CodeInternal    ApiErrorCode = "internal"
)

// apiErrorBody is the JSON shape of an error response from the store.
type apiErrorBody struct {
	Code    ApiErrorCode `json:"code"    validate:"required,oneof=validation unauthorized rate_limited not_found conflict database internal"`
	Message string       `json:"message" validate:"required"`
}

// isTransientCode reports whether code should trigger StoreClient's
// internal transient retry.
func isTransientCode(code ApiErrorCode) bool {
	switch code {
	case CodeRateLimited, CodeDatabase, CodeInternal:
		return true
	default:
		return false
	}
}
