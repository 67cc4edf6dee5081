package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"superca/internal/domain"
	"superca/internal/port"
)

type documentRepo struct {
	db *sqlx.DB
}

// NewDocumentRepo creates a new PostgreSQL-backed DocumentRepository.
func NewDocumentRepo(db *sqlx.DB) port.DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) Create(ctx context.Context, doc *domain.Document) error {
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	query := `INSERT INTO documents (
		id, taxpayer_id, filing_period, document_type,
		original_name, content_type, file_size, s3_bucket, s3_key,
		extraction_status, extraction_attempts, attempt_count, last_error,
		extracted_at, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4,
		$5, $6, $7, $8, $9,
		$10, $11, $12, $13,
		$14, $15, $16
	)`

	_, err := r.db.ExecContext(ctx, query,
		doc.ID, doc.TaxpayerID, doc.FilingPeriod, doc.DocumentType,
		doc.OriginalName, doc.ContentType, doc.FileSize, doc.S3Bucket, doc.S3Key,
		doc.ExtractionStatus, doc.ExtractionAttempts, doc.AttemptCount, doc.LastError,
		doc.ExtractedAt, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("documentRepo.Create: %w", err)
	}
	return nil
}

func (r *documentRepo) GetByID(ctx context.Context, taxpayerID, docID uuid.UUID) (*domain.Document, error) {
	var doc domain.Document
	err := r.db.GetContext(ctx, &doc,
		"SELECT * FROM documents WHERE id = $1 AND taxpayer_id = $2", docID, taxpayerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("documentRepo.GetByID: %w", err)
	}
	return &doc, nil
}

func (r *documentRepo) ListByPeriod(ctx context.Context, taxpayerID uuid.UUID, period string) ([]domain.Document, error) {
	var docs []domain.Document
	err := r.db.SelectContext(ctx, &docs,
		`SELECT * FROM documents WHERE taxpayer_id = $1 AND filing_period = $2
		 ORDER BY created_at ASC, id ASC`,
		taxpayerID, period)
	if err != nil {
		return nil, fmt.Errorf("documentRepo.ListByPeriod: %w", err)
	}
	return docs, nil
}

func (r *documentRepo) UpdateExtraction(ctx context.Context, doc *domain.Document) error {
	doc.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx,
		`UPDATE documents SET
			extraction_status = $1, extraction_attempts = $2, attempt_count = $3,
			last_error = $4, extracted_at = $5, updated_at = $6
		 WHERE id = $7 AND taxpayer_id = $8`,
		doc.ExtractionStatus, doc.ExtractionAttempts, doc.AttemptCount,
		doc.LastError, doc.ExtractedAt, doc.UpdatedAt,
		doc.ID, doc.TaxpayerID)
	if err != nil {
		return fmt.Errorf("documentRepo.UpdateExtraction: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("documentRepo.UpdateExtraction rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// Claim compare-and-swaps one document from pending to extracting so the
// synchronous upload path and the poll worker never extract the same row.
func (r *documentRepo) Claim(ctx context.Context, doc *domain.Document) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE documents SET extraction_status = $1, updated_at = NOW()
		 WHERE id = $2 AND taxpayer_id = $3 AND extraction_status = $4`,
		domain.ExtractionStatusExtracting, doc.ID, doc.TaxpayerID, domain.ExtractionStatusPending)
	if err != nil {
		return fmt.Errorf("documentRepo.Claim: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("documentRepo.Claim rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrStateConflict
	}
	doc.ExtractionStatus = domain.ExtractionStatusExtracting
	return nil
}

// ClaimPending moves up to limit pending documents to extracting inside one
// statement. SKIP LOCKED lets concurrent workers claim disjoint batches.
func (r *documentRepo) ClaimPending(ctx context.Context, limit int) ([]domain.Document, error) {
	var docs []domain.Document
	err := r.db.SelectContext(ctx, &docs,
		`UPDATE documents SET extraction_status = $1, updated_at = NOW()
		 WHERE id IN (
			SELECT id FROM documents
			WHERE extraction_status = $2
			ORDER BY created_at ASC
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		 )
		 RETURNING *`,
		domain.ExtractionStatusExtracting, domain.ExtractionStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("documentRepo.ClaimPending: %w", err)
	}
	return docs, nil
}
