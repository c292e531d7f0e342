package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/x402nexus/relay/internal/core/domain"
)

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// RedisStore implements Store on Redis. Records live as JSON values with a
// 24h TTL, membership in per-status sets drives ListPending, idempotency
// uses SETNX and counters use INCRBY.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects to Redis with a bounded connect timeout. Callers
// fall back to NewNullStore when this fails; the process must not hang or
// crash on an unreachable store.
func NewRedisStore(cfg Config) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{rdb: rdb}, nil
}

// Key helpers
func paymentKey(paymentID string) string {
	return fmt.Sprintf("payment:%s", paymentID)
}

func statusKey(status domain.PaymentStatus) string {
	return fmt.Sprintf("payments:%s", strings.ToLower(string(status)))
}

func idempotencyKey(key string) string {
	return fmt.Sprintf("idempotency:%s", key)
}

func metricKey(name string) string {
	return fmt.Sprintf("metric:%s", name)
}

func (s *RedisStore) CreatePayment(ctx context.Context, p *domain.Payment) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal payment: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, paymentKey(p.PaymentID), data, RecordTTL)
	pipe.SAdd(ctx, statusKey(p.Status), p.PaymentID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (s *RedisStore) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	data, err := s.rdb.Get(ctx, paymentKey(paymentID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	var p domain.Payment
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payment: %w", err)
	}
	return &p, nil
}

func (s *RedisStore) UpdatePayment(ctx context.Context, paymentID string, u Update) (*domain.Payment, error) {
	p, err := s.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	prev, moved, err := applyUpdate(p, u)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment: %w", err)
	}

	// Record write and set moves go through one pipeline so a reader never
	// observes a record whose status and index membership disagree.
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, paymentKey(paymentID), data, RecordTTL)
	if moved {
		pipe.SRem(ctx, statusKey(prev), paymentID)
		pipe.SAdd(ctx, statusKey(p.Status), paymentID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}
	return p, nil
}

func (s *RedisStore) CheckIdempotency(ctx context.Context, key string) (string, error) {
	paymentID, err := s.rdb.Get(ctx, idempotencyKey(key)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to check idempotency key: %w", err)
	}
	return paymentID, nil
}

func (s *RedisStore) StoreIdempotency(ctx context.Context, key, paymentID string) (string, error) {
	ok, err := s.rdb.SetNX(ctx, idempotencyKey(key), paymentID, RecordTTL).Result()
	if err != nil {
		return "", fmt.Errorf("failed to store idempotency key: %w", err)
	}
	if ok {
		return paymentID, nil
	}
	// Lost the race: the existing mapping is authoritative.
	return s.CheckIdempotency(ctx, key)
}

func (s *RedisStore) ListPending(ctx context.Context) ([]string, error) {
	keys := []string{
		statusKey(domain.StatusPending),
		statusKey(domain.StatusRetrying),
		statusKey(domain.StatusSubmitted),
	}
	ids, err := s.rdb.SUnion(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list pending payments: %w", err)
	}
	return ids, nil
}

func (s *RedisStore) IncrMetric(ctx context.Context, name string, delta int64) error {
	if err := s.rdb.IncrBy(ctx, metricKey(name), delta).Err(); err != nil {
		return fmt.Errorf("failed to increment metric %s: %w", name, err)
	}
	return nil
}

func (s *RedisStore) Metric(ctx context.Context, name string) (int64, error) {
	val, err := s.rdb.Get(ctx, metricKey(name)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read metric %s: %w", name, err)
	}
	return val, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
