package orchestrator

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/x402nexus/relay/internal/core/domain"
	"github.com/x402nexus/relay/internal/events"
	"github.com/x402nexus/relay/internal/infra/archive"
	"github.com/x402nexus/relay/internal/infra/chain"
	"github.com/x402nexus/relay/internal/infra/store"
	"github.com/x402nexus/relay/internal/metrics"
	"github.com/x402nexus/relay/internal/retry"
)

const microUnitsPerUnit = 1_000_000

// Orchestrator coordinates payment processing: idempotency, record
// lifecycle, retried submission to the settlement backend, metrics and
// lifecycle events.
type Orchestrator struct {
	store    store.Store
	engine   *retry.Engine
	settler  chain.Settler
	bus      *events.Bus
	arch     archive.Archiver
	provider string
}

// New creates an orchestrator. provider names the settlement network for
// adaptive strategy selection (e.g. "stacks-mainnet").
func New(
	st store.Store,
	engine *retry.Engine,
	settler chain.Settler,
	bus *events.Bus,
	arch archive.Archiver,
	provider string,
) *Orchestrator {
	return &Orchestrator{
		store:    st,
		engine:   engine,
		settler:  settler,
		bus:      bus,
		arch:     arch,
		provider: provider,
	}
}

// newPaymentID generates an opaque payment identifier.
func newPaymentID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ProcessPayment runs one payment through the retry engine and returns the
// public result. A request carrying a known idempotency key returns the
// existing payment's current result instead of creating new work.
func (o *Orchestrator) ProcessPayment(
	ctx context.Context,
	req domain.PaymentRequest,
	senderKey string,
) (domain.PaymentResult, error) {
	start := time.Now()
	paymentID := newPaymentID()

	if req.IdempotencyKey != "" {
		if existing, err := o.store.CheckIdempotency(ctx, req.IdempotencyKey); err == nil && existing != "" {
			slog.Info("idempotent request detected",
				"key", req.IdempotencyKey, "payment_id", existing)
			return o.resultFromRecord(ctx, existing), nil
		}

		// Reserve the key before doing any work so concurrent duplicates
		// race safely: the storage layer is first-writer-wins and the
		// loser converges onto the winner's payment.
		winner, err := o.store.StoreIdempotency(ctx, req.IdempotencyKey, paymentID)
		if err != nil {
			slog.Warn("failed to store idempotency key", "key", req.IdempotencyKey, "error", err)
		} else if winner != paymentID {
			slog.Info("lost idempotency race, converging",
				"key", req.IdempotencyKey, "payment_id", winner)
			return o.resultFromRecord(ctx, winner), nil
		}
	}

	now := time.Now()
	record := &domain.Payment{
		PaymentID: paymentID,
		Status:    domain.StatusPending,
		Amount:    req.Amount,
		Recipient: req.Recipient,
		Metadata:  req.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.store.CreatePayment(ctx, record); err != nil {
		// Degraded bookkeeping is acceptable; the payment path goes on.
		slog.Warn("failed to create payment record", "payment_id", paymentID, "error", err)
	}

	o.bus.Publish(domain.Event{
		Kind:      domain.EventCreated,
		PaymentID: paymentID,
		Timestamp: time.Now(),
		Amount:    req.Amount,
		Recipient: req.Recipient,
	})

	slog.Info("processing payment",
		"payment_id", paymentID, "amount", req.Amount, "recipient", req.Recipient)

	res := o.engine.ExecuteWithRetry(ctx, paymentID, o.provider, func(ctx context.Context) (string, error) {
		attempts := 1
		if p, err := o.store.GetPayment(ctx, paymentID); err == nil {
			attempts = p.Attempts + 1
		}
		status := domain.StatusRetrying
		if _, err := o.store.UpdatePayment(ctx, paymentID, store.Update{
			Status:   &status,
			Attempts: &attempts,
		}); err != nil && err != store.ErrNotFound {
			slog.Warn("failed to mark payment retrying", "payment_id", paymentID, "error", err)
		}

		o.bus.Publish(domain.Event{
			Kind:      domain.EventRetrying,
			PaymentID: paymentID,
			Timestamp: time.Now(),
			Attempts:  attempts,
		})

		return o.settler.Submit(ctx, chain.SubmitRequest{
			PaymentID:   paymentID,
			Recipient:   req.Recipient,
			AmountMicro: int64(req.Amount * microUnitsPerUnit),
			Metadata:    req.Metadata,
			SenderKey:   senderKey,
		})
	}, nil)

	if res.Success {
		return o.finishSubmitted(ctx, paymentID, res, start), nil
	}
	return o.finishFailed(ctx, paymentID, res), nil
}

func (o *Orchestrator) finishSubmitted(
	ctx context.Context,
	paymentID string,
	res retry.Result,
	start time.Time,
) domain.PaymentResult {
	status := domain.StatusSubmitted
	if _, err := o.store.UpdatePayment(ctx, paymentID, store.Update{
		Status:   &status,
		Attempts: &res.Attempts,
		TxHash:   &res.TxRef,
	}); err != nil && err != store.ErrNotFound {
		slog.Warn("failed to mark payment submitted", "payment_id", paymentID, "error", err)
	}

	processingTime := time.Since(start)
	if err := o.store.IncrMetric(ctx, "total_submitted", 1); err != nil {
		slog.Debug("metric increment failed", "error", err)
	}
	if err := o.store.IncrMetric(ctx, "total_processing_time", processingTime.Milliseconds()); err != nil {
		slog.Debug("metric increment failed", "error", err)
	}
	metrics.PaymentsProcessed.WithLabelValues("submitted").Inc()

	o.bus.Publish(domain.Event{
		Kind:      domain.EventSubmitted,
		PaymentID: paymentID,
		Timestamp: time.Now(),
		Attempts:  res.Attempts,
		TxHash:    res.TxRef,
	})

	slog.Info("payment submitted",
		"payment_id", paymentID, "tx_hash", res.TxRef, "attempts", res.Attempts)

	return domain.PaymentResult{
		Success:        true,
		PaymentID:      paymentID,
		TxHash:         res.TxRef,
		Status:         domain.StatusSubmitted,
		Attempts:       res.Attempts,
		ProcessingTime: processingTime.Milliseconds(),
	}
}

func (o *Orchestrator) finishFailed(
	ctx context.Context,
	paymentID string,
	res retry.Result,
) domain.PaymentResult {
	errMsg := ""
	if res.Err != nil {
		errMsg = res.Err.Error()
	}

	status := domain.StatusFailed
	updated, err := o.store.UpdatePayment(ctx, paymentID, store.Update{
		Status:           &status,
		Attempts:         &res.Attempts,
		LastError:        &res.Kind,
		LastErrorMessage: &errMsg,
	})
	if err != nil && err != store.ErrNotFound {
		slog.Warn("failed to mark payment failed", "payment_id", paymentID, "error", err)
	}
	if updated != nil {
		o.archiveTerminal(ctx, updated)
	}

	if err := o.store.IncrMetric(ctx, "total_failed", 1); err != nil {
		slog.Debug("metric increment failed", "error", err)
	}
	metrics.PaymentsProcessed.WithLabelValues("failed").Inc()

	o.bus.Publish(domain.Event{
		Kind:      domain.EventFailed,
		PaymentID: paymentID,
		Timestamp: time.Now(),
		Attempts:  res.Attempts,
		Error:     errMsg,
	})

	slog.Error("payment failed permanently",
		"payment_id", paymentID, "kind", res.Kind, "attempts", res.Attempts)

	return domain.PaymentResult{
		PaymentID: paymentID,
		Status:    domain.StatusFailed,
		Attempts:  res.Attempts,
		Error:     &domain.ErrorInfo{Type: res.Kind, Message: errMsg},
	}
}

// GetPaymentStatus is a read-through to the store shaped into the public
// result type. An absent record returns store.ErrNotFound, which is "not
// found", not a failure.
func (o *Orchestrator) GetPaymentStatus(ctx context.Context, paymentID string) (domain.PaymentResult, error) {
	p, err := o.store.GetPayment(ctx, paymentID)
	if err != nil {
		return domain.PaymentResult{}, err
	}

	result := domain.PaymentResult{
		Success:   p.Status == domain.StatusConfirmed,
		PaymentID: p.PaymentID,
		TxHash:    p.TxHash,
		Status:    p.Status,
		Attempts:  p.Attempts,
	}
	if p.LastError != "" {
		result.Error = &domain.ErrorInfo{Type: p.LastError, Message: p.LastErrorMessage}
	}
	return result, nil
}

// resultFromRecord derives the idempotent response from a payment's current
// state. A record the store cannot produce (degraded mode, or the winner of
// an idempotency race still mid-creation) yields a PENDING placeholder.
func (o *Orchestrator) resultFromRecord(ctx context.Context, paymentID string) domain.PaymentResult {
	result, err := o.GetPaymentStatus(ctx, paymentID)
	if err != nil {
		return domain.PaymentResult{
			PaymentID: paymentID,
			Status:    domain.StatusPending,
		}
	}
	return result
}

func (o *Orchestrator) archiveTerminal(ctx context.Context, p *domain.Payment) {
	if err := o.arch.Record(ctx, p); err != nil {
		slog.Warn("failed to archive payment", "payment_id", p.PaymentID, "error", err)
	}
}
