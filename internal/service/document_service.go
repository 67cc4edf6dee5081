package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"superca/internal/domain"
	"superca/internal/extractor"
	"superca/internal/port"
)

// UploadFile is one file in a process-documents request.
type UploadFile struct {
	Name         string
	ContentType  string
	Data         []byte
	DocumentType domain.DocumentType
}

// ProcessDocumentsInput is the DTO for uploading and extracting a batch of
// documents for one filing period.
type ProcessDocumentsInput struct {
	TaxpayerID   uuid.UUID
	FilingPeriod string
	Files        []UploadFile
}

// DocumentOutcome is the per-file result of a process-documents call.
type DocumentOutcome struct {
	Document *domain.Document    `json:"document"`
	Attempts []extractor.Attempt `json:"attempts,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// DocumentService manages uploaded documents and their extraction.
type DocumentService interface {
	ProcessDocuments(ctx context.Context, input *ProcessDocumentsInput) ([]DocumentOutcome, error)
	GetByID(ctx context.Context, taxpayerID, docID uuid.UUID) (*domain.Document, error)
	ListByPeriod(ctx context.Context, taxpayerID uuid.UUID, period string) ([]domain.Document, error)
	// ExtractDocument runs the provider chain for one stored document and
	// persists the outcome. A document no provider could read ends up
	// unextracted, not failed: the pipeline continues without it.
	ExtractDocument(ctx context.Context, doc *domain.Document) ([]extractor.Attempt, error)
}

type documentService struct {
	docRepo     port.DocumentRepository
	resultRepo  port.ExtractionResultRepository
	storage     port.ObjectStorage
	chain       *extractor.Chain
	bucket      string
	maxFileSize int64
	maxParallel int
}

// NewDocumentService creates a new DocumentService implementation.
func NewDocumentService(
	docRepo port.DocumentRepository,
	resultRepo port.ExtractionResultRepository,
	storage port.ObjectStorage,
	chain *extractor.Chain,
	bucket string,
	maxFileSizeMB int64,
	maxParallel int,
) DocumentService {
	if maxParallel <= 0 {
		maxParallel = 3
	}
	return &documentService{
		docRepo:     docRepo,
		resultRepo:  resultRepo,
		storage:     storage,
		chain:       chain,
		bucket:      bucket,
		maxFileSize: maxFileSizeMB * 1024 * 1024,
		maxParallel: maxParallel,
	}
}

func (s *documentService) ProcessDocuments(ctx context.Context, input *ProcessDocumentsInput) ([]DocumentOutcome, error) {
	if len(input.Files) == 0 {
		return nil, domain.ErrNoExtractionInputs
	}

	outcomes := make([]DocumentOutcome, len(input.Files))

	// Uploads are sequential so a validation failure surfaces before any
	// extraction spend; extraction fans out bounded below.
	for i, file := range input.Files {
		doc, err := s.storeDocument(ctx, input.TaxpayerID, input.FilingPeriod, file)
		if err != nil {
			outcomes[i] = DocumentOutcome{Error: err.Error()}
			continue
		}
		outcomes[i] = DocumentOutcome{Document: doc}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)
	for i := range outcomes {
		if outcomes[i].Document == nil {
			continue
		}
		i := i
		g.Go(func() error {
			// Claim before extracting so the poll worker cannot pick up
			// the same row mid-flight and run the chain a second time.
			if err := s.docRepo.Claim(gctx, outcomes[i].Document); err != nil {
				if errors.Is(err, domain.ErrStateConflict) {
					return nil
				}
				return err
			}
			attempts, err := s.ExtractDocument(gctx, outcomes[i].Document)
			outcomes[i].Attempts = attempts
			if err != nil && !errors.Is(err, domain.ErrUnextractedDocument) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

func (s *documentService) storeDocument(ctx context.Context, taxpayerID uuid.UUID, period string, file UploadFile) (*domain.Document, error) {
	if _, ok := domain.AllowedContentTypes[file.ContentType]; !ok {
		return nil, fmt.Errorf("%s: %w", file.ContentType, domain.ErrUnsupportedFileType)
	}
	if s.maxFileSize > 0 && int64(len(file.Data)) > s.maxFileSize {
		return nil, domain.ErrFileTooLarge
	}
	if _, ok := domain.KnownDocumentTypes[string(file.DocumentType)]; !ok {
		return nil, fmt.Errorf("document type %q: %w", file.DocumentType, domain.ErrUnsupportedFileType)
	}

	doc := &domain.Document{
		ID:               uuid.New(),
		TaxpayerID:       taxpayerID,
		FilingPeriod:     period,
		DocumentType:     file.DocumentType,
		OriginalName:     file.Name,
		ContentType:      file.ContentType,
		FileSize:         int64(len(file.Data)),
		S3Bucket:         s.bucket,
		S3Key:            fmt.Sprintf("documents/%s/%s/%s", taxpayerID, period, uuid.New()),
		ExtractionStatus: domain.ExtractionStatusPending,
	}

	if _, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      doc.S3Bucket,
		Key:         doc.S3Key,
		Body:        bytes.NewReader(file.Data),
		ContentType: file.ContentType,
		Size:        doc.FileSize,
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *documentService) GetByID(ctx context.Context, taxpayerID, docID uuid.UUID) (*domain.Document, error) {
	return s.docRepo.GetByID(ctx, taxpayerID, docID)
}

func (s *documentService) ListByPeriod(ctx context.Context, taxpayerID uuid.UUID, period string) ([]domain.Document, error) {
	return s.docRepo.ListByPeriod(ctx, taxpayerID, period)
}

func (s *documentService) ExtractDocument(ctx context.Context, doc *domain.Document) ([]extractor.Attempt, error) {
	data, err := s.storage.Download(ctx, doc.S3Bucket, doc.S3Key)
	if err != nil {
		// Release the claim so a later worker pass retries the document.
		doc.ExtractionStatus = domain.ExtractionStatusPending
		if uerr := s.docRepo.UpdateExtraction(ctx, doc); uerr != nil {
			log.Printf("documentService.ExtractDocument: release after download failure: %v", uerr)
		}
		return nil, fmt.Errorf("documentService.ExtractDocument download: %w", err)
	}

	attempts, output, extractErr := s.chain.Extract(ctx, port.ExtractInput{
		FileBytes:    data,
		ContentType:  doc.ContentType,
		DocumentType: doc.DocumentType,
		FilingPeriod: doc.FilingPeriod,
	})

	doc.AttemptCount += len(attempts)
	if raw, err := json.Marshal(attempts); err == nil {
		doc.ExtractionAttempts = raw
	}

	if extractErr != nil {
		doc.ExtractionStatus = domain.ExtractionStatusUnextracted
		doc.LastError = lastAttemptError(attempts)
		if err := s.docRepo.UpdateExtraction(ctx, doc); err != nil {
			log.Printf("documentService.ExtractDocument: update after failure: %v", err)
		}
		return attempts, extractErr
	}

	result := &domain.ExtractionResult{
		ID:           uuid.New(),
		DocumentID:   doc.ID,
		TaxpayerID:   doc.TaxpayerID,
		FilingPeriod: doc.FilingPeriod,
		DocumentType: doc.DocumentType,
		Provider:     output.Provider,
		ModelUsed:    output.ModelUsed,
	}
	if raw, err := json.Marshal(output.Fields); err == nil {
		result.Fields = raw
	}
	if err := s.resultRepo.Create(ctx, result); err != nil {
		return attempts, fmt.Errorf("documentService.ExtractDocument result: %w", err)
	}

	now := time.Now().UTC()
	doc.ExtractionStatus = domain.ExtractionStatusExtracted
	doc.LastError = ""
	doc.ExtractedAt = &now
	if err := s.docRepo.UpdateExtraction(ctx, doc); err != nil {
		return attempts, fmt.Errorf("documentService.ExtractDocument update: %w", err)
	}
	return attempts, nil
}

func lastAttemptError(attempts []extractor.Attempt) string {
	for i := len(attempts) - 1; i >= 0; i-- {
		if attempts[i].Error != "" {
			return attempts[i].Error
		}
	}
	return ""
}
