package config

import "testing"

func clearEnv(t *testing.T) {
	t.Helper()
	vars := []string{
		"FLUXPOINT_WORKER_ID",
		"FLUXPOINT_RUST_API_BASE_URL",
		"FLUXPOINT_RUST_API_TOKEN",
		"FLUXPOINT_DISPATCH_POLL_INTERVAL_MS",
		"FLUXPOINT_DISPATCH_BATCH_SIZE",
		"FLUXPOINT_DISPATCH_CONCURRENCY",
		"FLUXPOINT_DISPATCH_LEASE_MS",
		"FLUXPOINT_DISPATCH_REQUEST_TIMEOUT_MS",
		"FLUXPOINT_DISPATCH_IMMEDIATE_RETRY_MAX",
		"FLUXPOINT_DISPATCH_MAX_ATTEMPTS",
	}
	for _, v := range vars {
		t.Setenv(v, "")
		// t.Setenv does not unset; clear explicitly via os.Unsetenv semantics
		// by setting to empty and letting required-field checks catch it.
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("FLUXPOINT_WORKER_ID", "w1")
	t.Setenv("FLUXPOINT_RUST_API_BASE_URL", "https://store.internal")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.PollIntervalMs != 5000 {
		t.Errorf("PollIntervalMs = %d, want 5000", cfg.PollIntervalMs)
	}
	if cfg.BatchSize != 50 {
		t.Errorf("BatchSize = %d, want 50", cfg.BatchSize)
	}
	if cfg.Concurrency != 10 {
		t.Errorf("Concurrency = %d, want 10", cfg.Concurrency)
	}
	if cfg.LeaseMs != 30000 {
		t.Errorf("LeaseMs = %d, want 30000", cfg.LeaseMs)
	}
	if cfg.RequestTimeoutMs != 10000 {
		t.Errorf("RequestTimeoutMs = %d, want 10000", cfg.RequestTimeoutMs)
	}
	if cfg.ImmediateRetryMax != 2 {
		t.Errorf("ImmediateRetryMax = %d, want 2", cfg.ImmediateRetryMax)
	}
	if cfg.MaxAttempts != 10 {
		t.Errorf("MaxAttempts = %d, want 10", cfg.MaxAttempts)
	}
}

func TestLoadMissingWorkerID(t *testing.T) {
	clearEnv(t)
	t.Setenv("FLUXPOINT_RUST_API_BASE_URL", "https://store.internal")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing FLUXPOINT_WORKER_ID")
	}
}

func TestLoadMissingBaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("FLUXPOINT_WORKER_ID", "w1")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing FLUXPOINT_RUST_API_BASE_URL")
	}
}

func TestLoadRelativeBaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("FLUXPOINT_WORKER_ID", "w1")
	t.Setenv("FLUXPOINT_RUST_API_BASE_URL", "/not-absolute")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for relative base URL")
	}
}

func TestLoadInvalidBatchSize(t *testing.T) {
	clearEnv(t)
	t.Setenv("FLUXPOINT_WORKER_ID", "w1")
	t.Setenv("FLUXPOINT_RUST_API_BASE_URL", "https://store.internal")
	t.Setenv("FLUXPOINT_DISPATCH_BATCH_SIZE", "0")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for batch size 0")
	}
}

func TestLoadNonIntegerNumeric(t *testing.T) {
	clearEnv(t)
	t.Setenv("FLUXPOINT_WORKER_ID", "w1")
	t.Setenv("FLUXPOINT_RUST_API_BASE_URL", "https://store.internal")
	t.Setenv("FLUXPOINT_DISPATCH_CONCURRENCY", "not-a-number")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-integer concurrency")
	}
}
