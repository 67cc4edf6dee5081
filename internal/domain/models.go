package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Document represents one uploaded source document for a filing period.
// The stored payload is immutable; only extraction bookkeeping changes.
type Document struct {
	ID                 uuid.UUID        `db:"id" json:"id"`
	TaxpayerID         uuid.UUID        `db:"taxpayer_id" json:"taxpayer_id"`
	FilingPeriod       string           `db:"filing_period" json:"filing_period"`
	DocumentType       DocumentType     `db:"document_type" json:"document_type"`
	OriginalName       string           `db:"original_name" json:"original_name"`
	ContentType        string           `db:"content_type" json:"content_type"`
	FileSize           int64            `db:"file_size" json:"file_size"`
	S3Bucket           string           `db:"s3_bucket" json:"s3_bucket"`
	S3Key              string           `db:"s3_key" json:"s3_key"`
	ExtractionStatus   ExtractionStatus `db:"extraction_status" json:"extraction_status"`
	ExtractionAttempts json.RawMessage  `db:"extraction_attempts" json:"extraction_attempts"`
	AttemptCount       int              `db:"attempt_count" json:"attempt_count"`
	LastError          string           `db:"last_error" json:"last_error"`
	ExtractedAt        *time.Time       `db:"extracted_at" json:"extracted_at"`
	CreatedAt          time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time        `db:"updated_at" json:"updated_at"`
}

// ExtractionResult is one provider's successful field set for one Document.
// Append-only; a document may accumulate results from several providers.
type ExtractionResult struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	DocumentID   uuid.UUID       `db:"document_id" json:"document_id"`
	TaxpayerID   uuid.UUID       `db:"taxpayer_id" json:"taxpayer_id"`
	FilingPeriod string          `db:"filing_period" json:"filing_period"`
	DocumentType DocumentType    `db:"document_type" json:"document_type"`
	Provider     string          `db:"provider" json:"provider"`
	ModelUsed    string          `db:"model_used" json:"model_used"`
	Fields       json.RawMessage `db:"fields" json:"fields"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// DecodeFields unmarshals the stored field set.
func (r *ExtractionResult) DecodeFields() (map[string]ExtractionField, error) {
	fields := map[string]ExtractionField{}
	if len(r.Fields) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(r.Fields, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// FieldOverride is a manual value layered on top of the reconciled profile.
// Overrides survive re-reconciliation until explicitly cleared.
type FieldOverride struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	TaxpayerID   uuid.UUID  `db:"taxpayer_id" json:"taxpayer_id"`
	FilingPeriod string     `db:"filing_period" json:"filing_period"`
	Field        string     `db:"field" json:"field"`
	Value        string     `db:"value" json:"value"`
	Reason       string     `db:"reason" json:"reason"`
	CreatedBy    uuid.UUID  `db:"created_by" json:"created_by"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	ClearedAt    *time.Time `db:"cleared_at" json:"cleared_at"`
}

// ReturnRecord aggregates the reconciled profile, its report, the chosen tax
// computation and the filing lifecycle for one taxpayer and period. It is the
// only entity a consumer mutates, and only by issuing state transitions.
type ReturnRecord struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	TaxpayerID       uuid.UUID       `db:"taxpayer_id" json:"taxpayer_id"`
	FilingPeriod     string          `db:"filing_period" json:"filing_period"`
	Status           ReturnStatus    `db:"status" json:"status"`
	Profile          json.RawMessage `db:"profile" json:"profile"`
	ReconReport      json.RawMessage `db:"recon_report" json:"recon_report"`
	Computation      json.RawMessage `db:"computation" json:"computation"`
	ChosenRegime     string          `db:"chosen_regime" json:"chosen_regime"`
	RegimeSelectedBy RegimeSelection `db:"regime_selected_by" json:"regime_selected_by"`
	RuleVersion      string          `db:"rule_version" json:"rule_version"`
	FilingRef        string          `db:"filing_ref" json:"filing_ref"`
	FilingError      string          `db:"filing_error" json:"filing_error"`
	RejectionReason  string          `db:"rejection_reason" json:"rejection_reason"`
	ConfirmedBy      *uuid.UUID      `db:"confirmed_by" json:"confirmed_by"`
	ConfirmedAt      *time.Time      `db:"confirmed_at" json:"confirmed_at"`
	FiledAt          *time.Time      `db:"filed_at" json:"filed_at"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// DecodeProfile unmarshals the stored canonical profile, or nil if absent.
func (r *ReturnRecord) DecodeProfile() (*CanonicalProfile, error) {
	if len(r.Profile) == 0 {
		return nil, nil
	}
	var p CanonicalProfile
	if err := json.Unmarshal(r.Profile, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DecodeReport unmarshals the stored reconciliation report, or nil if absent.
func (r *ReturnRecord) DecodeReport() (*ReconciliationReport, error) {
	if len(r.ReconReport) == 0 {
		return nil, nil
	}
	var rep ReconciliationReport
	if err := json.Unmarshal(r.ReconReport, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

// DecodeComputation unmarshals the stored tax computation, or nil if voided.
func (r *ReturnRecord) DecodeComputation() (*TaxComputation, error) {
	if len(r.Computation) == 0 {
		return nil, nil
	}
	var c TaxComputation
	if err := json.Unmarshal(r.Computation, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ReturnAuditEntry is one immutable line in a return's transition history.
type ReturnAuditEntry struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	ReturnID   uuid.UUID       `db:"return_id" json:"return_id"`
	TaxpayerID uuid.UUID       `db:"taxpayer_id" json:"taxpayer_id"`
	FromStatus ReturnStatus    `db:"from_status" json:"from_status"`
	ToStatus   ReturnStatus    `db:"to_status" json:"to_status"`
	Actor      uuid.UUID       `db:"actor" json:"actor"`
	Reason     string          `db:"reason" json:"reason"`
	Detail     json.RawMessage `db:"detail" json:"detail"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}
