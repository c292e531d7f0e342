package retry

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/x402nexus/relay/internal/core/domain"
	"github.com/x402nexus/relay/internal/metrics"
)

// DefaultStrategy is used for providers with no recorded history.
var DefaultStrategy = domain.RetryStrategy{
	MaxAttempts:       3,
	BackoffMultiplier: 2,
	InitialDelay:      1 * time.Second,
	MaxDelay:          10 * time.Second,
}

// aggressiveStrategy applies when a provider's recent failure rate is high:
// more attempts, slower.
var aggressiveStrategy = domain.RetryStrategy{
	MaxAttempts:       5,
	BackoffMultiplier: 3,
	InitialDelay:      5 * time.Second,
	MaxDelay:          30 * time.Second,
}

// patientStrategy applies when a provider succeeds but slowly.
var patientStrategy = domain.RetryStrategy{
	MaxAttempts:       4,
	BackoffMultiplier: 2.5,
	InitialDelay:      3 * time.Second,
	MaxDelay:          20 * time.Second,
}

// SubmitFunc performs one submission to the settlement backend and returns
// its transaction reference.
type SubmitFunc func(ctx context.Context) (string, error)

// Result is the outcome of ExecuteWithRetry. Attempts is the exact count of
// SubmitFunc invocations made.
type Result struct {
	Success  bool
	TxRef    string
	Attempts int
	Kind     domain.ErrorKind
	Err      error
}

// Engine executes submissions under an adaptively selected retry strategy,
// classifying failures and recording outcomes for future selection.
type Engine struct {
	stats *Tracker
}

// NewEngine creates an engine backed by the given statistics tracker.
func NewEngine(stats *Tracker) *Engine {
	return &Engine{stats: stats}
}

// Stats exposes the underlying tracker for dashboards.
func (e *Engine) Stats() *Tracker { return e.stats }

// CalculateStrategy selects a retry strategy for the provider from its
// recorded history. Non-zero fields of override always win over the
// computed values.
func (e *Engine) CalculateStrategy(provider string, override *domain.RetryStrategy) domain.RetryStrategy {
	strategy := DefaultStrategy

	if stats, ok := e.stats.Stats(provider); ok {
		switch {
		case stats.RecentFailureRate > 0.3:
			strategy = aggressiveStrategy
			slog.Debug("provider unhealthy, using aggressive strategy",
				"provider", provider, "failure_rate", stats.RecentFailureRate)
		case stats.AvgSuccessTime > 5*time.Second:
			strategy = patientStrategy
			slog.Debug("provider slow, using patient strategy",
				"provider", provider, "avg_success_time", stats.AvgSuccessTime)
		}
	}

	if override != nil {
		if override.MaxAttempts > 0 {
			strategy.MaxAttempts = override.MaxAttempts
		}
		if override.BackoffMultiplier > 0 {
			strategy.BackoffMultiplier = override.BackoffMultiplier
		}
		if override.InitialDelay > 0 {
			strategy.InitialDelay = override.InitialDelay
		}
		if override.MaxDelay > 0 {
			strategy.MaxDelay = override.MaxDelay
		}
	}

	if strategy.MaxAttempts < 1 {
		strategy.MaxAttempts = 1
	}

	return strategy
}

// ExecuteWithRetry runs submitFn up to the strategy's attempt budget.
// Attempt numbering is 1-based and matches submission calls exactly. A
// failure classified as permanent returns immediately regardless of the
// remaining budget.
func (e *Engine) ExecuteWithRetry(
	ctx context.Context,
	workID string,
	provider string,
	submitFn SubmitFunc,
	override *domain.RetryStrategy,
) Result {
	strategy := e.CalculateStrategy(provider, override)

	slog.Info("starting submission",
		"work_id", workID, "provider", provider, "max_attempts", strategy.MaxAttempts)

	for attempt := 1; attempt <= strategy.MaxAttempts; attempt++ {
		start := time.Now()
		txRef, err := submitFn(ctx)
		if err == nil {
			elapsed := time.Since(start)
			e.stats.RecordAttempt(provider, true, elapsed)
			metrics.SubmitAttempts.WithLabelValues(provider, "success").Inc()
			metrics.SubmitLatency.WithLabelValues(provider).Observe(elapsed.Seconds())

			slog.Info("submission succeeded",
				"work_id", workID, "attempt", attempt, "elapsed", elapsed)
			return Result{Success: true, TxRef: txRef, Attempts: attempt}
		}

		kind := Classify(err)
		e.stats.RecordAttempt(provider, false, 0)
		metrics.SubmitAttempts.WithLabelValues(provider, "failure").Inc()

		slog.Warn("submission attempt failed",
			"work_id", workID, "attempt", attempt, "kind", kind, "error", err)

		if !IsRetryable(kind) {
			slog.Error("submission failed permanently", "work_id", workID, "kind", kind)
			return Result{
				Attempts: attempt,
				Kind:     kind,
				Err:      fmt.Errorf("%s", Describe(kind)),
			}
		}

		if attempt == strategy.MaxAttempts {
			slog.Error("submission exhausted retries", "work_id", workID, "attempts", attempt)
			return Result{
				Attempts: attempt,
				Kind:     kind,
				Err:      fmt.Errorf("payment failed after %d attempts: %s", attempt, kind),
			}
		}

		delay := calculateBackoff(attempt, strategy, kind)
		slog.Debug("retrying after backoff", "work_id", workID, "delay", delay)

		select {
		case <-ctx.Done():
			return Result{Attempts: attempt, Kind: kind, Err: ctx.Err()}
		case <-time.After(delay):
		}
	}

	// Unreachable: the loop always returns.
	return Result{Attempts: strategy.MaxAttempts, Err: fmt.Errorf("payment failed")}
}

// errorKindMultiplier stretches backoff for congestion and nonce issues,
// which need more time to clear than plain transport hiccups.
func errorKindMultiplier(kind domain.ErrorKind) float64 {
	switch kind {
	case domain.ErrMempoolFull:
		return 1.5
	case domain.ErrNonceConflict:
		return 2.0
	}
	return 1.0
}

// calculateBackoff computes the exponential delay for a 1-based attempt,
// with up to 1s of uniform jitter so concurrently retrying payments do not
// synchronize against the backend, clamped to the strategy's MaxDelay.
func calculateBackoff(attempt int, strategy domain.RetryStrategy, kind domain.ErrorKind) time.Duration {
	exponential := float64(strategy.InitialDelay) *
		math.Pow(strategy.BackoffMultiplier, float64(attempt-1))
	jitter := rand.Float64() * float64(time.Second)

	delay := (exponential + jitter) * errorKindMultiplier(kind)
	if delay > float64(strategy.MaxDelay) {
		delay = float64(strategy.MaxDelay)
	}
	return time.Duration(delay)
}
