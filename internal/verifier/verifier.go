package verifier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/x402nexus/relay/internal/core/domain"
	"github.com/x402nexus/relay/internal/events"
	"github.com/x402nexus/relay/internal/infra/archive"
	"github.com/x402nexus/relay/internal/infra/chain"
	"github.com/x402nexus/relay/internal/infra/store"
	"github.com/x402nexus/relay/internal/metrics"
)

// defaultPassTimeout bounds a single reconciliation pass, independent of
// the scheduling interval.
const defaultPassTimeout = 30 * time.Second

// Verifier reconciles local payment state against on-chain truth. A
// recurring pass polls the settlement backend for every non-terminal
// payment and advances records when the chain has moved.
type Verifier struct {
	store   store.Store
	settler chain.Settler
	bus     *events.Bus
	arch    archive.Archiver

	passTimeout time.Duration

	mu      sync.Mutex
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// New creates a verifier.
func New(st store.Store, settler chain.Settler, bus *events.Bus, arch archive.Archiver) *Verifier {
	return &Verifier{
		store:       st,
		settler:     settler,
		bus:         bus,
		arch:        arch,
		passTimeout: defaultPassTimeout,
	}
}

// Start runs one reconciliation pass immediately, then schedules a pass
// every interval until Stop. Calling Start on a running verifier is a
// no-op.
func (v *Verifier) Start(interval time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.running {
		slog.Warn("verifier already running")
		return
	}
	v.running = true
	v.stopCh = make(chan struct{})
	v.doneCh = make(chan struct{})

	slog.Info("starting blockchain verification", "interval", interval)
	go v.run(interval)
}

// Stop cancels future scheduling. An in-flight pass runs to completion.
// Idempotent, including on a never-started verifier.
func (v *Verifier) Stop() {
	v.mu.Lock()
	if !v.running {
		v.mu.Unlock()
		return
	}
	v.running = false
	close(v.stopCh)
	done := v.doneCh
	v.mu.Unlock()

	<-done
	slog.Info("stopped blockchain verification")
}

func (v *Verifier) run(interval time.Duration) {
	defer close(v.doneCh)

	v.reconcileAll()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-v.stopCh:
			return
		case <-ticker.C:
			v.reconcileAll()
		}
	}
}

// reconcileAll runs one pass over every pending payment. A failure querying
// one payment never aborts the pass for the others.
func (v *Verifier) reconcileAll() {
	ctx, cancel := context.WithTimeout(context.Background(), v.passTimeout)
	defer cancel()

	ids, err := v.store.ListPending(ctx)
	if err != nil {
		slog.Error("failed to list pending payments", "error", err)
		return
	}
	metrics.PendingPayments.Set(float64(len(ids)))
	if len(ids) == 0 {
		metrics.ReconcilePasses.Inc()
		return
	}

	slog.Debug("reconciling pending payments", "count", len(ids))
	for _, id := range ids {
		if err := v.ReconcileOne(ctx, id); err != nil {
			slog.Error("failed to reconcile payment", "payment_id", id, "error", err)
		}
	}
	metrics.ReconcilePasses.Inc()
}

// ReconcileOne aligns a single payment with the backend's authoritative
// status. Terminal records are skipped defensively even when the pending
// index still lists them, and a payment the backend doesn't know yet is
// left for the next pass.
func (v *Verifier) ReconcileOne(ctx context.Context, paymentID string) error {
	p, err := v.store.GetPayment(ctx, paymentID)
	if err == store.ErrNotFound {
		slog.Warn("pending payment missing from store", "payment_id", paymentID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load payment: %w", err)
	}
	if p.Status.Terminal() {
		return nil
	}

	st, err := v.settler.Status(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("failed to query on-chain status: %w", err)
	}
	if !st.Exists {
		// Still propagating; try again next pass.
		return nil
	}

	switch {
	case st.Claimed:
		return v.advance(ctx, p, domain.StatusConfirmed, domain.EventConfirmed, "total_confirmed")
	case st.Refunded:
		return v.advance(ctx, p, domain.StatusRefunded, domain.EventRefunded, "total_refunded")
	}
	return nil
}

// advance moves a payment to its chain-truth status. The store enforces
// forward-only transitions, so a race with a concurrent update degrades to
// a no-op and the event fires exactly once per transition.
func (v *Verifier) advance(
	ctx context.Context,
	p *domain.Payment,
	status domain.PaymentStatus,
	kind domain.EventKind,
	metric string,
) error {
	updated, err := v.store.UpdatePayment(ctx, p.PaymentID, store.Update{
		Status: &status,
		TxHash: &p.TxHash,
	})
	if err == store.ErrInvalidTransition {
		slog.Debug("skipping stale reconciliation", "payment_id", p.PaymentID, "status", status)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to advance payment: %w", err)
	}

	if err := v.store.IncrMetric(ctx, metric, 1); err != nil {
		slog.Debug("metric increment failed", "error", err)
	}
	metrics.Reconciled.WithLabelValues(string(status)).Inc()

	v.bus.Publish(domain.Event{
		Kind:      kind,
		PaymentID: p.PaymentID,
		Timestamp: time.Now(),
		TxHash:    updated.TxHash,
	})

	if err := v.arch.Record(ctx, updated); err != nil {
		slog.Warn("failed to archive payment", "payment_id", p.PaymentID, "error", err)
	}

	slog.Info("payment reconciled", "payment_id", p.PaymentID, "status", status)
	return nil
}
