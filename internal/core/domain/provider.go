package domain

import "time"

// RetryStrategy is the retry budget computed per provider per call.
// Values are never mutated in place; overrides produce a new strategy.
type RetryStrategy struct {
	MaxAttempts       int
	BackoffMultiplier float64
	InitialDelay      time.Duration
	MaxDelay          time.Duration
}

// ProviderStats holds rolling submission statistics for one settlement
// provider. In-memory only: a restart resets adaptivity, which affects
// strategy tuning but not correctness.
type ProviderStats struct {
	Provider      string
	TotalAttempts int
	SuccessCount  int
	FailureCount  int

	// AvgSuccessTime is the incremental mean of successful submission
	// latencies. Failed attempts do not feed it.
	AvgSuccessTime time.Duration

	// RecentFailureRate approximates the failure share of the last 100
	// attempts from the raw counters. A heuristic input to strategy
	// selection, not an auditable metric.
	RecentFailureRate float64

	LastUpdated time.Time
}
