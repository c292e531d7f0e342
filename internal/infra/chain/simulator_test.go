package chain

import (
	"context"
	"strings"
	"testing"
)

func TestSimulatorSubmitAndClaim(t *testing.T) {
	ctx := context.Background()
	s := NewSimulator(SimulatorConfig{ClaimAfter: 2, Seed: 1})

	txRef, err := s.Submit(ctx, SubmitRequest{PaymentID: "p1", AmountMicro: 1_000_000})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !strings.HasPrefix(txRef, "0x") {
		t.Errorf("txRef = %q, want 0x prefix", txRef)
	}

	// First poll: exists but not yet claimed.
	st, err := s.Status(ctx, "p1")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !st.Exists || st.Claimed {
		t.Errorf("first poll = %+v, want exists unclaimed", st)
	}

	// Second poll crosses ClaimAfter.
	st, _ = s.Status(ctx, "p1")
	if !st.Claimed {
		t.Errorf("second poll = %+v, want claimed", st)
	}
}

func TestSimulatorUnknownPayment(t *testing.T) {
	s := NewSimulator(SimulatorConfig{Seed: 1})
	st, err := s.Status(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if st.Exists {
		t.Errorf("unknown payment reports exists: %+v", st)
	}
}

func TestSimulatorRejectsNonPositiveAmount(t *testing.T) {
	s := NewSimulator(SimulatorConfig{Seed: 1})
	_, err := s.Submit(context.Background(), SubmitRequest{PaymentID: "p1"})
	if err == nil {
		t.Fatal("Submit with zero amount should fail")
	}
	if !strings.Contains(err.Error(), "invalid payment request") {
		t.Errorf("error = %v, want invalid payment request", err)
	}
}

func TestSimulatorFailureInjection(t *testing.T) {
	ctx := context.Background()
	s := NewSimulator(SimulatorConfig{FailureRate: 1, Seed: 1})

	_, err := s.Submit(ctx, SubmitRequest{PaymentID: "p1", AmountMicro: 1})
	if err == nil {
		t.Fatal("Submit with FailureRate=1 should fail")
	}
	found := false
	for _, msg := range chaosErrors {
		if err.Error() == msg {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("injected error %q not in chaos set", err)
	}

	s.SetFailureRate(0)
	if _, err := s.Submit(ctx, SubmitRequest{PaymentID: "p2", AmountMicro: 1}); err != nil {
		t.Errorf("Submit with FailureRate=0 failed: %v", err)
	}
}

func TestSimulatorForceRefund(t *testing.T) {
	ctx := context.Background()
	s := NewSimulator(SimulatorConfig{ClaimAfter: 100, Seed: 1})

	if s.ForceRefund("ghost") {
		t.Error("ForceRefund on unknown payment should report false")
	}

	if _, err := s.Submit(ctx, SubmitRequest{PaymentID: "p1", AmountMicro: 1}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !s.ForceRefund("p1") {
		t.Fatal("ForceRefund failed for submitted payment")
	}

	st, _ := s.Status(ctx, "p1")
	if !st.Exists || !st.Refunded || st.Claimed {
		t.Errorf("status = %+v, want refunded", st)
	}
}

func TestSimulatorSeedIsReproducible(t *testing.T) {
	ctx := context.Background()
	run := func() []bool {
		s := NewSimulator(SimulatorConfig{FailureRate: 0.5, Seed: 42})
		var outcomes []bool
		for i := 0; i < 20; i++ {
			_, err := s.Submit(ctx, SubmitRequest{PaymentID: "p", AmountMicro: 1})
			outcomes = append(outcomes, err == nil)
		}
		return outcomes
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("outcome %d differs between identically seeded runs", i)
		}
	}
}
