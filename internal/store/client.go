// Package store implements a typed HTTP client over the internal
// dispatcher store API: /lease and /report, with schema-validated decoding
// and transient retry of store-side transient errors.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/grafana/dskit/backoff"
)

const (
	transientRetryBaseDelay = 100 * time.Millisecond
	transientRetryMaxDelay  = 2 * time.Second
	// Six total attempts: the first plus five additional retries, per the
	// spec's transient-retry contract for store calls.
	transientRetryMaxAttempts = 6
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Client is a typed HTTP client for the store's dispatcher endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// New creates a Client. httpClient should be a single shared instance with
// connection pooling, safe for concurrent use across deliveries.
func New(httpClient *http.Client, baseURL, token string) *Client {
	return &Client{httpClient: httpClient, baseURL: baseURL, token: token}
}

// Lease requests up to limit pending events, each leased for leaseMs.
func (c *Client) Lease(ctx context.Context, workerID string, limit, leaseMs int) (*LeaseResponse, error) {
	reqBody := struct {
		Limit    int    `json:"limit"`
		LeaseMs  int    `json:"lease_ms"`
		WorkerID string `json:"worker_id"`
	}{Limit: limit, LeaseMs: leaseMs, WorkerID: workerID}

	var out LeaseResponse
	err := c.doWithRetry(ctx, "/internal/dispatcher/lease", reqBody, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Report submits the outcome of a single delivery attempt sequence.
func (c *Client) Report(ctx context.Context, req ReportRequest) (*ReportResponse, error) {
	var out ReportResponse
	err := c.doWithRetry(ctx, "/internal/dispatcher/report", req, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// doWithRetry performs one store call, retrying ApiErrors whose code is
// transient, up to transientRetryMaxAttempts total attempts. NetworkError
// and ParseError are never retried here; they propagate to the caller
// immediately, per the spec's error-handling design.
func (c *Client) doWithRetry(ctx context.Context, path string, reqBody, out any) error {
	var lastErr error

	bo := backoff.New(ctx, backoff.Config{
		MinBackoff: transientRetryBaseDelay,
		MaxBackoff: transientRetryMaxDelay,
		MaxRetries: transientRetryMaxAttempts,
	})

	for attempt := 1; attempt <= transientRetryMaxAttempts; attempt++ {
		err := c.doOnce(ctx, path, reqBody, out)
		if err == nil {
			return nil
		}
		lastErr = err

		var apiErr *ApiError
		if !asApiError(err, &apiErr) || !isTransientCode(apiErr.Code) {
			return err
		}
		if attempt == transientRetryMaxAttempts {
			break
		}
		if !bo.Ongoing() {
			break
		}
		bo.Wait()
	}

	return lastErr
}

func asApiError(err error, target **ApiError) bool {
	apiErr, ok := err.(*ApiError)
	if !ok {
		return false
	}
	*target = apiErr
	return true
}

func (c *Client) doOnce(ctx context.Context, path string, reqBody, out any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return &ParseError{Err: fmt.Errorf("marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &NetworkError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Err: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode >= 400 {
		var apiBody apiErrorBody
		if decErr := json.Unmarshal(body, &apiBody); decErr != nil {
			return &ParseError{Err: fmt.Errorf("decode error body: %w", decErr)}
		}
		if valErr := validate.Struct(&apiBody); valErr != nil {
			return &ParseError{Err: fmt.Errorf("validate error body: %w", valErr)}
		}
		return &ApiError{Code: apiBody.Code, Message: apiBody.Message, Status: resp.StatusCode}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &ParseError{Err: fmt.Errorf("decode response body: %w", err)}
	}
	if err := validate.Struct(out); err != nil {
		return &ParseError{Err: fmt.Errorf("validate response body: %w", err)}
	}

	return nil
}
