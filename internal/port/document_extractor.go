package port

import (
	"context"

	"superca/internal/domain"
)

// ExtractInput carries the data needed for one extraction attempt.
type ExtractInput struct {
	FileBytes    []byte
	ContentType  string
	DocumentType domain.DocumentType
	FilingPeriod string
}

// ExtractOutput contains one provider's structured field set.
type ExtractOutput struct {
	Fields    map[string]domain.ExtractionField
	ModelUsed string
	Provider  string
}

// DocumentExtractor abstracts one AI/OCR extraction provider.
type DocumentExtractor interface {
	Extract(ctx context.Context, input ExtractInput) (*ExtractOutput, error)
}
