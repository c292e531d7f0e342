package verifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/x402nexus/relay/internal/core/domain"
	"github.com/x402nexus/relay/internal/events"
	"github.com/x402nexus/relay/internal/infra/archive"
	"github.com/x402nexus/relay/internal/infra/chain"
	"github.com/x402nexus/relay/internal/infra/store"
)

// stubSettler maps payment IDs to scripted on-chain statuses.
type stubSettler struct {
	mu       sync.Mutex
	statuses map[string]chain.Status
	errs     map[string]error
	queries  int
}

func (s *stubSettler) Submit(ctx context.Context, req chain.SubmitRequest) (string, error) {
	return "0xunused", nil
}

func (s *stubSettler) Status(ctx context.Context, paymentID string) (chain.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
	if err, ok := s.errs[paymentID]; ok {
		return chain.Status{}, err
	}
	return s.statuses[paymentID], nil
}

func seedPayment(t *testing.T, st store.Store, id string, status domain.PaymentStatus) {
	t.Helper()
	now := time.Now()
	err := st.CreatePayment(context.Background(), &domain.Payment{
		PaymentID: id,
		Status:    status,
		TxHash:    "0x" + id,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreatePayment(%s) failed: %v", id, err)
	}
}

func TestReconcileOneConfirmsClaimedPayment(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	settler := &stubSettler{statuses: map[string]chain.Status{
		"p1": {Exists: true, Claimed: true},
	}}
	bus := events.NewBus()
	v := New(st, settler, bus, archive.Noop{})

	var confirmed []domain.Event
	bus.Subscribe(func(evt domain.Event) {
		if evt.Kind == domain.EventConfirmed {
			confirmed = append(confirmed, evt)
		}
	})

	seedPayment(t, st, "p1", domain.StatusSubmitted)

	if err := v.ReconcileOne(ctx, "p1"); err != nil {
		t.Fatalf("ReconcileOne failed: %v", err)
	}
	p, _ := st.GetPayment(ctx, "p1")
	if p.Status != domain.StatusConfirmed {
		t.Errorf("status = %s, want CONFIRMED", p.Status)
	}
	if len(confirmed) != 1 || confirmed[0].PaymentID != "p1" || confirmed[0].TxHash != "0xp1" {
		t.Errorf("confirmed events = %+v, want exactly one for p1", confirmed)
	}
	if n, _ := st.Metric(ctx, "total_confirmed"); n != 1 {
		t.Errorf("total_confirmed = %d, want 1", n)
	}

	// A second pass sees a terminal record and does nothing: the event
	// fired exactly once.
	if err := v.ReconcileOne(ctx, "p1"); err != nil {
		t.Fatalf("second ReconcileOne failed: %v", err)
	}
	if len(confirmed) != 1 {
		t.Errorf("confirmed events after second pass = %d, want 1", len(confirmed))
	}
	if n, _ := st.Metric(ctx, "total_confirmed"); n != 1 {
		t.Errorf("total_confirmed after second pass = %d, want 1", n)
	}
}

func TestReconcileOneRefundsPayment(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	settler := &stubSettler{statuses: map[string]chain.Status{
		"p1": {Exists: true, Refunded: true},
	}}
	bus := events.NewBus()
	v := New(st, settler, bus, archive.Noop{})

	var kinds []domain.EventKind
	bus.Subscribe(func(evt domain.Event) { kinds = append(kinds, evt.Kind) })

	seedPayment(t, st, "p1", domain.StatusSubmitted)

	if err := v.ReconcileOne(ctx, "p1"); err != nil {
		t.Fatalf("ReconcileOne failed: %v", err)
	}
	p, _ := st.GetPayment(ctx, "p1")
	if p.Status != domain.StatusRefunded {
		t.Errorf("status = %s, want REFUNDED", p.Status)
	}
	if len(kinds) != 1 || kinds[0] != domain.EventRefunded {
		t.Errorf("events = %v, want [payment:refunded]", kinds)
	}
	if n, _ := st.Metric(ctx, "total_refunded"); n != 1 {
		t.Errorf("total_refunded = %d, want 1", n)
	}
}

func TestReconcileOneLeavesUnknownPayment(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	settler := &stubSettler{statuses: map[string]chain.Status{}}
	v := New(st, settler, events.NewBus(), archive.Noop{})

	seedPayment(t, st, "p1", domain.StatusSubmitted)

	// Backend doesn't know the payment yet: leave it for the next pass.
	if err := v.ReconcileOne(ctx, "p1"); err != nil {
		t.Fatalf("ReconcileOne failed: %v", err)
	}
	p, _ := st.GetPayment(ctx, "p1")
	if p.Status != domain.StatusSubmitted {
		t.Errorf("status = %s, want SUBMITTED", p.Status)
	}
}

func TestReconcileOneMissingRecordIsNotAnError(t *testing.T) {
	st := store.NewMemoryStore()
	v := New(st, &stubSettler{}, events.NewBus(), archive.Noop{})

	if err := v.ReconcileOne(context.Background(), "ghost"); err != nil {
		t.Errorf("ReconcileOne(missing) = %v, want nil", err)
	}
}

func TestReconcilePassIsolatesPerPaymentErrors(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	settler := &stubSettler{
		statuses: map[string]chain.Status{
			"good": {Exists: true, Claimed: true},
		},
		errs: map[string]error{
			"bad": errors.New("rpc exploded"),
		},
	}
	v := New(st, settler, events.NewBus(), archive.Noop{})

	seedPayment(t, st, "bad", domain.StatusSubmitted)
	seedPayment(t, st, "good", domain.StatusSubmitted)

	v.reconcileAll()

	// The failing query must not stop the rest of the pass.
	p, _ := st.GetPayment(ctx, "good")
	if p.Status != domain.StatusConfirmed {
		t.Errorf("good status = %s, want CONFIRMED", p.Status)
	}
	p, _ = st.GetPayment(ctx, "bad")
	if p.Status != domain.StatusSubmitted {
		t.Errorf("bad status = %s, want SUBMITTED", p.Status)
	}
}

func TestStartRunsImmediatePass(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	settler := &stubSettler{statuses: map[string]chain.Status{
		"p1": {Exists: true, Claimed: true},
	}}
	v := New(st, settler, events.NewBus(), archive.Noop{})

	seedPayment(t, st, "p1", domain.StatusSubmitted)

	v.Start(time.Hour)
	defer v.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if p, _ := st.GetPayment(ctx, "p1"); p.Status == domain.StatusConfirmed {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("immediate pass never confirmed p1")
}

func TestStopIsIdempotent(t *testing.T) {
	v := New(store.NewMemoryStore(), &stubSettler{}, events.NewBus(), archive.Noop{})

	// Stop on a never-started verifier must not block or panic.
	v.Stop()

	v.Start(time.Hour)
	v.Stop()
	v.Stop()

	// Restart after stop works.
	v.Start(time.Hour)
	v.Stop()
}

func TestStartTwiceIsNoOp(t *testing.T) {
	v := New(store.NewMemoryStore(), &stubSettler{}, events.NewBus(), archive.Noop{})

	v.Start(time.Hour)
	v.Start(time.Hour)
	v.Stop()
}
