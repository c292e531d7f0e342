package retry

import (
	"testing"
	"time"
)

func TestTrackerRecordsOutcomes(t *testing.T) {
	tr := NewTracker()

	if _, ok := tr.Stats("testnet"); ok {
		t.Fatal("expected no stats before any attempt")
	}

	tr.RecordAttempt("testnet", true, 100*time.Millisecond)
	tr.RecordAttempt("testnet", true, 300*time.Millisecond)
	tr.RecordAttempt("testnet", false, 0)

	stats, ok := tr.Stats("testnet")
	if !ok {
		t.Fatal("expected stats after attempts")
	}
	if stats.TotalAttempts != 3 {
		t.Errorf("TotalAttempts = %d, want 3", stats.TotalAttempts)
	}
	if stats.SuccessCount != 2 {
		t.Errorf("SuccessCount = %d, want 2", stats.SuccessCount)
	}
	if stats.FailureCount != 1 {
		t.Errorf("FailureCount = %d, want 1", stats.FailureCount)
	}
	// Incremental mean over successful durations only.
	if stats.AvgSuccessTime != 200*time.Millisecond {
		t.Errorf("AvgSuccessTime = %v, want 200ms", stats.AvgSuccessTime)
	}
}

func TestTrackerFailureRateApproximation(t *testing.T) {
	tr := NewTracker()

	// 4 failures out of 10 attempts.
	for i := 0; i < 6; i++ {
		tr.RecordAttempt("flaky", true, time.Millisecond)
	}
	for i := 0; i < 4; i++ {
		tr.RecordAttempt("flaky", false, 0)
	}

	stats, _ := tr.Stats("flaky")
	if stats.RecentFailureRate != 0.4 {
		t.Errorf("RecentFailureRate = %v, want 0.4", stats.RecentFailureRate)
	}
}

func TestTrackerFailureRateWindowCap(t *testing.T) {
	tr := NewTracker()

	// 150 failures then 50 successes: the window denominator caps at 100
	// and failures cap at the window, so the rate saturates at 1.0 until
	// enough history accumulates, then stays a counter approximation.
	for i := 0; i < 150; i++ {
		tr.RecordAttempt("storm", false, 0)
	}
	stats, _ := tr.Stats("storm")
	if stats.RecentFailureRate != 1.0 {
		t.Errorf("RecentFailureRate = %v, want 1.0", stats.RecentFailureRate)
	}

	for i := 0; i < 50; i++ {
		tr.RecordAttempt("storm", true, time.Millisecond)
	}
	stats, _ = tr.Stats("storm")
	if stats.RecentFailureRate != 1.0 {
		// min(failures=150, window=100)/100
		t.Errorf("RecentFailureRate = %v, want 1.0 (counter approximation)", stats.RecentFailureRate)
	}
}

func TestTrackerProvidersIsolated(t *testing.T) {
	tr := NewTracker()
	tr.RecordAttempt("a", false, 0)
	tr.RecordAttempt("b", true, time.Millisecond)

	a, _ := tr.Stats("a")
	b, _ := tr.Stats("b")
	if a.FailureCount != 1 || a.SuccessCount != 0 {
		t.Errorf("provider a stats polluted: %+v", a)
	}
	if b.FailureCount != 0 || b.SuccessCount != 1 {
		t.Errorf("provider b stats polluted: %+v", b)
	}
	if len(tr.All()) != 2 {
		t.Errorf("All() returned %d providers, want 2", len(tr.All()))
	}
}
