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

type extractionResultRepo struct {
	db *sqlx.DB
}

// NewExtractionResultRepo creates a new PostgreSQL-backed
// ExtractionResultRepository.
func NewExtractionResultRepo(db *sqlx.DB) port.ExtractionResultRepository {
	return &extractionResultRepo{db: db}
}

func (r *extractionResultRepo) Create(ctx context.Context, res *domain.ExtractionResult) error {
	res.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO extraction_results (
			id, document_id, taxpayer_id, filing_period, document_type,
			provider, model_used, fields, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		res.ID, res.DocumentID, res.TaxpayerID, res.FilingPeriod, res.DocumentType,
		res.Provider, res.ModelUsed, res.Fields, res.CreatedAt)
	if err != nil {
		return fmt.Errorf("extractionResultRepo.Create: %w", err)
	}
	return nil
}

func (r *extractionResultRepo) ListByPeriod(ctx context.Context, taxpayerID uuid.UUID, period string) ([]domain.ExtractionResult, error) {
	var results []domain.ExtractionResult
	err := r.db.SelectContext(ctx, &results,
		`SELECT * FROM extraction_results
		 WHERE taxpayer_id = $1 AND filing_period = $2
		 ORDER BY created_at ASC, id ASC`,
		taxpayerID, period)
	if err != nil {
		return nil, fmt.Errorf("extractionResultRepo.ListByPeriod: %w", err)
	}
	return results, nil
}

func (r *extractionResultRepo) ListByDocument(ctx context.Context, docID uuid.UUID) ([]domain.ExtractionResult, error) {
	var results []domain.ExtractionResult
	err := r.db.SelectContext(ctx, &results,
		`SELECT * FROM extraction_results WHERE document_id = $1
		 ORDER BY created_at ASC, id ASC`,
		docID)
	if err != nil {
		return nil, fmt.Errorf("extractionResultRepo.ListByDocument: %w", err)
	}
	return results, nil
}
