package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"superca/internal/domain"
	"superca/internal/port"
)

type returnRepo struct {
	db *sqlx.DB
}

// NewReturnRepo creates a new PostgreSQL-backed ReturnRepository.
func NewReturnRepo(db *sqlx.DB) port.ReturnRepository {
	return &returnRepo{db: db}
}

func (r *returnRepo) Create(ctx context.Context, rec *domain.ReturnRecord) error {
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	query := `INSERT INTO returns (
		id, taxpayer_id, filing_period, status,
		profile, recon_report, computation,
		chosen_regime, regime_selected_by, rule_version,
		filing_ref, filing_error, rejection_reason,
		confirmed_by, confirmed_at, filed_at,
		created_at, updated_at
	) VALUES (
		$1, $2, $3, $4,
		$5, $6, $7,
		$8, $9, $10,
		$11, $12, $13,
		$14, $15, $16,
		$17, $18
	)`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.TaxpayerID, rec.FilingPeriod, rec.Status,
		rec.Profile, rec.ReconReport, rec.Computation,
		rec.ChosenRegime, rec.RegimeSelectedBy, rec.RuleVersion,
		rec.FilingRef, rec.FilingError, rec.RejectionReason,
		rec.ConfirmedBy, rec.ConfirmedAt, rec.FiledAt,
		rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return domain.ErrStateConflict
		}
		return fmt.Errorf("returnRepo.Create: %w", err)
	}
	return nil
}

func (r *returnRepo) GetByID(ctx context.Context, taxpayerID, returnID uuid.UUID) (*domain.ReturnRecord, error) {
	var rec domain.ReturnRecord
	err := r.db.GetContext(ctx, &rec,
		"SELECT * FROM returns WHERE id = $1 AND taxpayer_id = $2", returnID, taxpayerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrReturnNotFound
		}
		return nil, fmt.Errorf("returnRepo.GetByID: %w", err)
	}
	return &rec, nil
}

func (r *returnRepo) GetByPeriod(ctx context.Context, taxpayerID uuid.UUID, period string) (*domain.ReturnRecord, error) {
	var rec domain.ReturnRecord
	err := r.db.GetContext(ctx, &rec,
		"SELECT * FROM returns WHERE taxpayer_id = $1 AND filing_period = $2", taxpayerID, period)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrReturnNotFound
		}
		return nil, fmt.Errorf("returnRepo.GetByPeriod: %w", err)
	}
	return &rec, nil
}

func (r *returnRepo) ListByTaxpayer(ctx context.Context, taxpayerID uuid.UUID, offset, limit int) ([]domain.ReturnRecord, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM returns WHERE taxpayer_id = $1", taxpayerID)
	if err != nil {
		return nil, 0, fmt.Errorf("returnRepo.ListByTaxpayer count: %w", err)
	}

	var recs []domain.ReturnRecord
	err = r.db.SelectContext(ctx, &recs,
		`SELECT * FROM returns WHERE taxpayer_id = $1
		 ORDER BY filing_period DESC LIMIT $2 OFFSET $3`,
		taxpayerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("returnRepo.ListByTaxpayer: %w", err)
	}
	return recs, total, nil
}

// TransitionStatus writes all mutable columns guarded by a compare-and-swap
// on the prior status. Zero rows affected means another writer already moved
// the return, and the caller gets ErrStateConflict.
func (r *returnRepo) TransitionStatus(ctx context.Context, rec *domain.ReturnRecord, expected domain.ReturnStatus) error {
	rec.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx,
		`UPDATE returns SET
			status = $1, profile = $2, recon_report = $3, computation = $4,
			chosen_regime = $5, regime_selected_by = $6, rule_version = $7,
			filing_ref = $8, filing_error = $9, rejection_reason = $10,
			confirmed_by = $11, confirmed_at = $12, filed_at = $13, updated_at = $14
		 WHERE id = $15 AND taxpayer_id = $16 AND status = $17`,
		rec.Status, rec.Profile, rec.ReconReport, rec.Computation,
		rec.ChosenRegime, rec.RegimeSelectedBy, rec.RuleVersion,
		rec.FilingRef, rec.FilingError, rec.RejectionReason,
		rec.ConfirmedBy, rec.ConfirmedAt, rec.FiledAt, rec.UpdatedAt,
		rec.ID, rec.TaxpayerID, expected)
	if err != nil {
		return fmt.Errorf("returnRepo.TransitionStatus: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("returnRepo.TransitionStatus rows: %w", err)
	}
	if rows == 0 {
		// Distinguish a missing row from a lost race.
		if _, getErr := r.GetByID(ctx, rec.TaxpayerID, rec.ID); getErr != nil {
			return getErr
		}
		return domain.ErrStateConflict
	}
	return nil
}
