package store

import (
	"context"
	"errors"

	"github.com/x402nexus/relay/internal/core/domain"
)

// ErrDegraded reports that the store is running in degraded no-op mode.
var ErrDegraded = errors.New("store running in degraded mode")

// NullStore implements Store as a no-op passthrough for degraded operation
// when the backing service is unreachable at startup. Writes are silently
// dropped and reads return absent; callers must tolerate "record not found"
// even for payments they just created. Bookkeeping loss is recoverable,
// crashing the payment path is not.
type NullStore struct{}

// NewNullStore creates the degraded no-op store.
func NewNullStore() *NullStore {
	return &NullStore{}
}

func (*NullStore) CreatePayment(ctx context.Context, p *domain.Payment) error { return nil }

func (*NullStore) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	return nil, ErrNotFound
}

func (*NullStore) UpdatePayment(ctx context.Context, paymentID string, u Update) (*domain.Payment, error) {
	return nil, ErrNotFound
}

func (*NullStore) CheckIdempotency(ctx context.Context, key string) (string, error) {
	return "", nil
}

func (*NullStore) StoreIdempotency(ctx context.Context, key, paymentID string) (string, error) {
	return paymentID, nil
}

func (*NullStore) ListPending(ctx context.Context) ([]string, error) { return nil, nil }

func (*NullStore) IncrMetric(ctx context.Context, name string, delta int64) error { return nil }

func (*NullStore) Metric(ctx context.Context, name string) (int64, error) { return 0, nil }

func (*NullStore) Ping(ctx context.Context) error { return ErrDegraded }

func (*NullStore) Close() error { return nil }
