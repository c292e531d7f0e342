package store

import (
	"context"
	"sync"

	"github.com/x402nexus/relay/internal/core/domain"
)

// MemoryStore implements Store with in-process maps. Used by tests and by
// storage-less demo runs. Records do not expire.
type MemoryStore struct {
	mu          sync.RWMutex
	payments    map[string]*domain.Payment
	idempotency map[string]string
	metrics     map[string]int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		payments:    make(map[string]*domain.Payment),
		idempotency: make(map[string]string),
		metrics:     make(map[string]int64),
	}
}

func (s *MemoryStore) CreatePayment(ctx context.Context, p *domain.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.payments[p.PaymentID] = &cp
	return nil
}

func (s *MemoryStore) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[paymentID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) UpdatePayment(ctx context.Context, paymentID string, u Update) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[paymentID]
	if !ok {
		return nil, ErrNotFound
	}
	if _, _, err := applyUpdate(p, u); err != nil {
		return nil, err
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) CheckIdempotency(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idempotency[key], nil
}

func (s *MemoryStore) StoreIdempotency(ctx context.Context, key, paymentID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.idempotency[key]; ok {
		return existing, nil
	}
	s.idempotency[key] = paymentID
	return paymentID, nil
}

func (s *MemoryStore) ListPending(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for id, p := range s.payments {
		if !p.Status.Terminal() {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *MemoryStore) IncrMetric(ctx context.Context, name string, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics[name] += delta
	return nil
}

func (s *MemoryStore) Metric(ctx context.Context, name string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metrics[name], nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
