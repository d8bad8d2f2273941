package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"veilpay/internal/mint/models"
	"veilpay/pkg/domain"
	"veilpay/pkg/platform/sentinel"
	"veilpay/pkg/platform/tx"
)

// Postgres persists the mint registry. The primary key on address makes
// concurrent initialization a unique-violation race that exactly one caller
// wins, matching the fails-loudly idempotency contract.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, registry *models.Registry) error {
	q := tx.QuerierFrom(ctx, s.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO mint_registry (address, authority, config, bump, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		registry.Address[:], registry.Authority[:], registry.Config[:],
		int16(registry.Bump), registry.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("create mint registry: %w", err)
	}
	return nil
}

func (s *Postgres) FindByAddress(ctx context.Context, addr domain.Address) (*models.Registry, error) {
	row := tx.QuerierFrom(ctx, s.db).QueryRowContext(ctx, `
		SELECT address, authority, config, bump, created_at
		FROM mint_registry
		WHERE address = $1`, addr[:])

	var registry models.Registry
	var address, authority, config []byte
	var bump int16
	err := row.Scan(&address, &authority, &config, &bump, &registry.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan mint registry: %w", err)
	}
	copy(registry.Address[:], address)
	copy(registry.Authority[:], authority)
	copy(registry.Config[:], config)
	registry.Bump = uint8(bump)
	return &registry, nil
}
