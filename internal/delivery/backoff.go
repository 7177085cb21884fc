package delivery

import (
	"math/rand/v2"
	"time"
)

// baseDelay is the base_delay in the spec's retry schedule:
// base_delay · 2^(k-1) ± jitter, jitter uniform in [-0.2·base, +0.2·base]
// of the current (already-doubled) base term.
const baseDelay = time.Second

// jitteredBackoff computes the delay before retry attempt k (k starting at
// 1 for the first retry after the initial attempt). It is a bespoke
// implementation rather than a reach for a library: the ±20% symmetric
// jitter band the spec pins down in its testable invariants does not match
// the "full jitter" shape of github.com/grafana/dskit/backoff (used
// elsewhere in this repo for the store-retry concern), so a small, exact
// function is the faithful one here.
func jitteredBackoff(rng *rand.Rand, k int) time.Duration {
	term := baseDelay * time.Duration(1<<uint(k-1))
	jitterRange := float64(term) * 0.2
	jitter := (rng.Float64()*2 - 1) * jitterRange
	return term + time.Duration(jitter)
}

// newRNG returns a per-delivery PRNG. No cryptographic strength is needed;
// each delivery task owns its own source so no synchronization is required
// across concurrent deliveries.
func newRNG() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
