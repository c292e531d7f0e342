package retry

import (
	"sync"
	"time"

	"github.com/x402nexus/relay/internal/core/domain"
)

// Tracker maintains rolling per-provider submission statistics used to
// adapt the retry strategy. Process-local and not persisted.
type Tracker struct {
	mu        sync.RWMutex
	providers map[string]*domain.ProviderStats
}

// NewTracker creates an empty statistics tracker.
func NewTracker() *Tracker {
	return &Tracker{providers: make(map[string]*domain.ProviderStats)}
}

// RecordAttempt records one submission outcome for a provider. Only
// successful durations feed the latency average.
func (t *Tracker) RecordAttempt(provider string, success bool, duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	stats, ok := t.providers[provider]
	if !ok {
		stats = &domain.ProviderStats{Provider: provider}
		t.providers[provider] = stats
	}

	stats.TotalAttempts++
	if success {
		stats.SuccessCount++
		n := time.Duration(stats.SuccessCount)
		stats.AvgSuccessTime = (stats.AvgSuccessTime*(n-1) + duration) / n
	} else {
		stats.FailureCount++
	}

	// Failure share of the most recent <=100 attempts, approximated from
	// the raw counters rather than a true sliding window.
	recentTotal := min(stats.TotalAttempts, 100)
	recentFailures := min(stats.FailureCount, recentTotal)
	stats.RecentFailureRate = float64(recentFailures) / float64(recentTotal)

	stats.LastUpdated = time.Now()
}

// Stats returns a copy of the stats for a provider, if any attempts were
// recorded.
func (t *Tracker) Stats(provider string) (domain.ProviderStats, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats, ok := t.providers[provider]
	if !ok {
		return domain.ProviderStats{}, false
	}
	return *stats, true
}

// All returns a snapshot of every provider's stats.
func (t *Tracker) All() []domain.ProviderStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]domain.ProviderStats, 0, len(t.providers))
	for _, stats := range t.providers {
		out = append(out, *stats)
	}
	return out
}
