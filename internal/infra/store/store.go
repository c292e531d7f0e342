package store

import (
	"context"
	"errors"
	"time"

	"github.com/x402nexus/relay/internal/core/domain"
)

var (
	// ErrNotFound is returned when a payment record doesn't exist.
	ErrNotFound = errors.New("payment not found")

	// ErrInvalidTransition is returned when an update would move a record
	// against the state machine, including any move out of a terminal
	// status. The record is left unchanged.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// RecordTTL bounds the lifetime of payment records and idempotency
// mappings. Payments are expected to resolve well within this window.
const RecordTTL = 24 * time.Hour

// Update is a partial merge into an existing payment record. Nil fields are
// left untouched; UpdatedAt refreshes on every applied update.
type Update struct {
	Status           *domain.PaymentStatus
	Attempts         *int
	TxHash           *string
	LastError        *domain.ErrorKind
	LastErrorMessage *string
}

// Store persists payment lifecycle state, the idempotency index and the
// dashboard counters. Implementations: Redis (durable-enough, TTL'd),
// memory (tests, storage-less demo runs) and null (degraded no-op mode when
// the backing service is unreachable at startup).
type Store interface {
	// CreatePayment inserts a new record and indexes it into its status set.
	CreatePayment(ctx context.Context, p *domain.Payment) error

	// GetPayment returns the record or ErrNotFound.
	GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error)

	// UpdatePayment merges fields into the record and moves it between
	// status sets when the status changes. Returns the updated record, or
	// ErrInvalidTransition when the status change is not permitted.
	UpdatePayment(ctx context.Context, paymentID string, u Update) (*domain.Payment, error)

	// CheckIdempotency resolves a caller key to its payment ID, or "" when
	// absent.
	CheckIdempotency(ctx context.Context, key string) (string, error)

	// StoreIdempotency maps key to paymentID first-writer-wins and returns
	// the winning payment ID. A second store for the same key is a no-op;
	// the existing mapping is authoritative.
	StoreIdempotency(ctx context.Context, key, paymentID string) (string, error)

	// ListPending returns the IDs of every payment not yet in a terminal
	// status.
	ListPending(ctx context.Context) ([]string, error)

	// IncrMetric adds delta to a monotonic named counter.
	IncrMetric(ctx context.Context, name string, delta int64) error

	// Metric reads a named counter, 0 when absent.
	Metric(ctx context.Context, name string) (int64, error)

	// Ping checks store health.
	Ping(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}

// applyUpdate merges u into p, enforcing the state machine and refreshing
// UpdatedAt. Returns the previous status and whether the status changed.
func applyUpdate(p *domain.Payment, u Update) (prev domain.PaymentStatus, moved bool, err error) {
	prev = p.Status

	if u.Status != nil && *u.Status != p.Status {
		if !p.Status.CanTransition(*u.Status) {
			return prev, false, ErrInvalidTransition
		}
		p.Status = *u.Status
		moved = true
	}
	if u.Attempts != nil {
		p.Attempts = *u.Attempts
	}
	if u.TxHash != nil {
		p.TxHash = *u.TxHash
	}
	if u.LastError != nil {
		p.LastError = *u.LastError
	}
	if u.LastErrorMessage != nil {
		p.LastErrorMessage = *u.LastErrorMessage
	}
	p.UpdatedAt = time.Now()

	return prev, moved, nil
}
