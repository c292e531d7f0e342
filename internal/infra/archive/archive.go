package archive

import (
	"context"

	"github.com/x402nexus/relay/internal/core/domain"
)

// Archiver persists terminal payments durably so history survives the
// state store's record TTL. Best effort: archive failures are logged, never
// propagated into the payment path.
type Archiver interface {
	// Record upserts a terminal payment.
	Record(ctx context.Context, p *domain.Payment) error

	Close() error
}

// Noop discards archive writes. Used when no database is configured.
type Noop struct{}

func (Noop) Record(ctx context.Context, p *domain.Payment) error { return nil }

func (Noop) Close() error { return nil }
