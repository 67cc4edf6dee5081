package port

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"superca/internal/domain"
)

// DocumentRepository persists uploaded documents and their extraction
// bookkeeping.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, taxpayerID, docID uuid.UUID) (*domain.Document, error)
	ListByPeriod(ctx context.Context, taxpayerID uuid.UUID, period string) ([]domain.Document, error)
	// UpdateExtraction records the outcome of an extraction pass: status,
	// attempt log, attempt count and last error.
	UpdateExtraction(ctx context.Context, doc *domain.Document) error
	// Claim moves one document from pending to extracting. ErrStateConflict
	// means another extractor already owns it.
	Claim(ctx context.Context, doc *domain.Document) error
	// ClaimPending atomically claims up to limit documents still awaiting
	// extraction, moving them to extracting.
	ClaimPending(ctx context.Context, limit int) ([]domain.Document, error)
}

// ExtractionResultRepository is append-only storage for provider field sets.
type ExtractionResultRepository interface {
	Create(ctx context.Context, res *domain.ExtractionResult) error
	ListByPeriod(ctx context.Context, taxpayerID uuid.UUID, period string) ([]domain.ExtractionResult, error)
	ListByDocument(ctx context.Context, docID uuid.UUID) ([]domain.ExtractionResult, error)
}

// OverrideRepository stores manual field overrides layered on the profile.
type OverrideRepository interface {
	Upsert(ctx context.Context, o *domain.FieldOverride) error
	Clear(ctx context.Context, taxpayerID uuid.UUID, period, field string, clearedAt time.Time) error
	ListActive(ctx context.Context, taxpayerID uuid.UUID, period string) ([]domain.FieldOverride, error)
}

// ReturnRepository persists return records. TransitionStatus is the only way
// status changes: it compare-and-swaps on the expected prior status so that
// of two concurrent transitions exactly one succeeds.
type ReturnRepository interface {
	Create(ctx context.Context, rec *domain.ReturnRecord) error
	GetByID(ctx context.Context, taxpayerID, returnID uuid.UUID) (*domain.ReturnRecord, error)
	GetByPeriod(ctx context.Context, taxpayerID uuid.UUID, period string) (*domain.ReturnRecord, error)
	ListByTaxpayer(ctx context.Context, taxpayerID uuid.UUID, offset, limit int) ([]domain.ReturnRecord, int, error)
	// TransitionStatus updates rec (all mutable columns) iff the stored
	// status still equals expected. Returns domain.ErrStateConflict when the
	// row moved underneath the caller.
	TransitionStatus(ctx context.Context, rec *domain.ReturnRecord, expected domain.ReturnStatus) error
}

// ReturnAuditRepository is append-only transition history.
type ReturnAuditRepository interface {
	Create(ctx context.Context, entry *domain.ReturnAuditEntry) error
	ListByReturn(ctx context.Context, returnID uuid.UUID) ([]domain.ReturnAuditEntry, error)
}

// FilingAck is the acknowledgment returned by the e-filing collaborator.
type FilingAck struct {
	Reference string
	FiledAt   time.Time
}

// FilingGateway submits a built return artifact to the external filing
// authority. Calls are bounded by a timeout; the engine never retries
// silently.
type FilingGateway interface {
	File(ctx context.Context, taxpayerID uuid.UUID, artifact json.RawMessage) (*FilingAck, error)
}
