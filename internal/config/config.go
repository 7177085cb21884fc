// Package config loads and validates the dispatcher's process-wide
// configuration from environment variables.
package config

import (
	"fmt"
	"net/url"

	"github.com/caarlos0/env/v11"
)

// Config is the immutable, process-wide configuration for the dispatcher.
// It is loaded once at startup and passed by value to every component.
type Config struct {
	WorkerID           string `env:"FLUXPOINT_WORKER_ID,required"`
	InternalAPIBaseURL string `env:"FLUXPOINT_RUST_API_BASE_URL,required"`
	InternalAPIToken   string `env:"FLUXPOINT_RUST_API_TOKEN"`

	PollIntervalMs    int `env:"FLUXPOINT_DISPATCH_POLL_INTERVAL_MS" envDefault:"5000"`
	BatchSize         int `env:"FLUXPOINT_DISPATCH_BATCH_SIZE"        envDefault:"50"`
	Concurrency       int `env:"FLUXPOINT_DISPATCH_CONCURRENCY"       envDefault:"10"`
	LeaseMs           int `env:"FLUXPOINT_DISPATCH_LEASE_MS"          envDefault:"30000"`
	RequestTimeoutMs  int `env:"FLUXPOINT_DISPATCH_REQUEST_TIMEOUT_MS" envDefault:"10000"`
	ImmediateRetryMax int `env:"FLUXPOINT_DISPATCH_IMMEDIATE_RETRY_MAX" envDefault:"2"`
	MaxAttempts       int `env:"FLUXPOINT_DISPATCH_MAX_ATTEMPTS"      envDefault:"10"`
}

// Load parses the environment into a Config and validates it. Any missing
// required variable, non-integer numeric, or out-of-range value is returned
// as an error; the caller is expected to treat this as a fatal startup
// failure per the process exit-code contract.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.WorkerID == "" {
		return fmt.Errorf("config: FLUXPOINT_WORKER_ID must not be empty")
	}
	u, err := url.Parse(c.InternalAPIBaseURL)
	if err != nil || !u.IsAbs() {
		return fmt.Errorf("config: FLUXPOINT_RUST_API_BASE_URL must be an absolute URL, got %q", c.InternalAPIBaseURL)
	}
	if c.PollIntervalMs < 0 {
		return fmt.Errorf("config: FLUXPOINT_DISPATCH_POLL_INTERVAL_MS must be >= 0, got %d", c.PollIntervalMs)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("config: FLUXPOINT_DISPATCH_BATCH_SIZE must be >= 1, got %d", c.BatchSize)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("config: FLUXPOINT_DISPATCH_CONCURRENCY must be >= 1, got %d", c.Concurrency)
	}
	if c.LeaseMs < 1 {
		return fmt.Errorf("config: FLUXPOINT_DISPATCH_LEASE_MS must be >= 1, got %d", c.LeaseMs)
	}
	if c.RequestTimeoutMs < 1 {
		return fmt.Errorf("config: FLUXPOINT_DISPATCH_REQUEST_TIMEOUT_MS must be >= 1, got %d", c.RequestTimeoutMs)
	}
	if c.ImmediateRetryMax < 0 {
		return fmt.Errorf("config: FLUXPOINT_DISPATCH_IMMEDIATE_RETRY_MAX must be >= 0, got %d", c.ImmediateRetryMax)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("config: FLUXPOINT_DISPATCH_MAX_ATTEMPTS must be >= 1, got %d", c.MaxAttempts)
	}
	return nil
}
