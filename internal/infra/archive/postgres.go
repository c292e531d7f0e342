package archive

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx via database/sql
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/x402nexus/relay/internal/core/domain"
)

// Config holds PostgreSQL connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
}

// Postgres implements Archiver on PostgreSQL.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres opens the archive database and runs pending goose migrations
// from migrationsDir.
func NewPostgres(ctx context.Context, cfg Config, migrationsDir string) (*Postgres, error) {
	db, err := sqlx.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 10
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping archive database: %w", err)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := goose.Up(db.DB, migrationsDir); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate archive database: %w", err)
	}

	return &Postgres{db: db}, nil
}

func (a *Postgres) Record(ctx context.Context, p *domain.Payment) error {
	query := `
		INSERT INTO payment_archive (
			payment_id, status, attempts, tx_hash, last_error, last_error_message,
			amount, recipient, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (payment_id) DO UPDATE SET
			status = EXCLUDED.status,
			attempts = EXCLUDED.attempts,
			tx_hash = EXCLUDED.tx_hash,
			last_error = EXCLUDED.last_error,
			last_error_message = EXCLUDED.last_error_message,
			updated_at = EXCLUDED.updated_at
	`
	_, err := a.db.ExecContext(ctx, query,
		p.PaymentID, string(p.Status), p.Attempts, p.TxHash,
		string(p.LastError), p.LastErrorMessage,
		p.Amount, p.Recipient, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to archive payment: %w", err)
	}
	return nil
}

type archiveRow struct {
	PaymentID        string    `db:"payment_id"`
	Status           string    `db:"status"`
	Attempts         int       `db:"attempts"`
	TxHash           string    `db:"tx_hash"`
	LastError        string    `db:"last_error"`
	LastErrorMessage string    `db:"last_error_message"`
	Amount           float64   `db:"amount"`
	Recipient        string    `db:"recipient"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// Recent returns the most recently archived payments, newest first.
func (a *Postgres) Recent(ctx context.Context, limit int) ([]*domain.Payment, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []archiveRow
	query := `
		SELECT payment_id, status, attempts, tx_hash, last_error, last_error_message,
		       amount, recipient, created_at, updated_at
		FROM payment_archive
		ORDER BY updated_at DESC
		LIMIT $1
	`
	if err := a.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list archived payments: %w", err)
	}

	out := make([]*domain.Payment, 0, len(rows))
	for _, r := range rows {
		out = append(out, &domain.Payment{
			PaymentID:        r.PaymentID,
			Status:           domain.PaymentStatus(r.Status),
			Attempts:         r.Attempts,
			TxHash:           r.TxHash,
			LastError:        domain.ErrorKind(r.LastError),
			LastErrorMessage: r.LastErrorMessage,
			Amount:           r.Amount,
			Recipient:        r.Recipient,
			CreatedAt:        r.CreatedAt,
			UpdatedAt:        r.UpdatedAt,
		})
	}
	return out, nil
}

func (a *Postgres) Close() error {
	return a.db.Close()
}
