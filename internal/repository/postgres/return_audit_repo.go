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

type returnAuditRepo struct {
	db *sqlx.DB
}

// NewReturnAuditRepo creates a new PostgreSQL-backed ReturnAuditRepository.
func NewReturnAuditRepo(db *sqlx.DB) port.ReturnAuditRepository {
	return &returnAuditRepo{db: db}
}

func (r *returnAuditRepo) Create(ctx context.Context, entry *domain.ReturnAuditEntry) error {
	entry.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO return_audit (
			id, return_id, taxpayer_id, from_status, to_status,
			actor, reason, detail, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.ReturnID, entry.TaxpayerID, entry.FromStatus, entry.ToStatus,
		entry.Actor, entry.Reason, entry.Detail, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("returnAuditRepo.Create: %w", err)
	}
	return nil
}

func (r *returnAuditRepo) ListByReturn(ctx context.Context, returnID uuid.UUID) ([]domain.ReturnAuditEntry, error) {
	var entries []domain.ReturnAuditEntry
	err := r.db.SelectContext(ctx, &entries,
		`SELECT * FROM return_audit WHERE return_id = $1
		 ORDER BY created_at ASC, id ASC`,
		returnID)
	if err != nil {
		return nil, fmt.Errorf("returnAuditRepo.ListByReturn: %w", err)
	}
	return entries, nil
}
