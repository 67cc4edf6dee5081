package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"superca/internal/domain"
	"superca/internal/port"
)

type overrideRepo struct {
	db *sqlx.DB
}

// NewOverrideRepo creates a new PostgreSQL-backed OverrideRepository.
func NewOverrideRepo(db *sqlx.DB) port.OverrideRepository {
	return &overrideRepo{db: db}
}

// Upsert replaces any active override for the same field: the old row is
// soft-cleared, the new one inserted, so the audit trail keeps both.
func (r *overrideRepo) Upsert(ctx context.Context, o *domain.FieldOverride) error {
	o.CreatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("overrideRepo.Upsert begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE field_overrides SET cleared_at = $1
		 WHERE taxpayer_id = $2 AND filing_period = $3 AND field = $4 AND cleared_at IS NULL`,
		o.CreatedAt, o.TaxpayerID, o.FilingPeriod, o.Field)
	if err != nil {
		return fmt.Errorf("overrideRepo.Upsert clear: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO field_overrides (
			id, taxpayer_id, filing_period, field, value, reason, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, o.TaxpayerID, o.FilingPeriod, o.Field, o.Value, o.Reason, o.CreatedBy, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("overrideRepo.Upsert insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("overrideRepo.Upsert commit: %w", err)
	}
	return nil
}

func (r *overrideRepo) Clear(ctx context.Context, taxpayerID uuid.UUID, period, field string, clearedAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE field_overrides SET cleared_at = $1
		 WHERE taxpayer_id = $2 AND filing_period = $3 AND field = $4 AND cleared_at IS NULL`,
		clearedAt, taxpayerID, period, field)
	if err != nil {
		return fmt.Errorf("overrideRepo.Clear: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("overrideRepo.Clear rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrOverrideNotFound
	}
	return nil
}

func (r *overrideRepo) ListActive(ctx context.Context, taxpayerID uuid.UUID, period string) ([]domain.FieldOverride, error) {
	var overrides []domain.FieldOverride
	err := r.db.SelectContext(ctx, &overrides,
		`SELECT * FROM field_overrides
		 WHERE taxpayer_id = $1 AND filing_period = $2 AND cleared_at IS NULL
		 ORDER BY field ASC`,
		taxpayerID, period)
	if err != nil {
		return nil, fmt.Errorf("overrideRepo.ListActive: %w", err)
	}
	return overrides, nil
}
