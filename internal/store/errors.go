package store

import "fmt"

// NetworkError wraps a transport-level failure reaching the store.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("store: network error: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// ApiError wraps a store response with status >= 400 whose body decoded
// cleanly as {code, message}.
type ApiError struct {
	Code    ApiErrorCode
	Message string
	Status  int
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("store: api error %s (http %d): %s", e.Code, e.Status, e.Message)
}

// ParseError wraps a response body that was not valid JSON, or that was
// valid JSON missing required fields or carrying the wrong types against
// the documented schema.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("store: parse error: %v", e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }
