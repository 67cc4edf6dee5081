package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"superca/internal/domain"
	"superca/internal/extractor"
	"superca/internal/service"
)

// MockDocumentService is a mock implementation of service.DocumentService.
type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) ProcessDocuments(ctx context.Context, input *service.ProcessDocumentsInput) ([]service.DocumentOutcome, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.DocumentOutcome), args.Error(1)
}

func (m *MockDocumentService) GetByID(ctx context.Context, taxpayerID, docID uuid.UUID) (*domain.Document, error) {
	args := m.Called(ctx, taxpayerID, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentService) ListByPeriod(ctx context.Context, taxpayerID uuid.UUID, period string) ([]domain.Document, error) {
	args := m.Called(ctx, taxpayerID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Document), args.Error(1)
}

func (m *MockDocumentService) ExtractDocument(ctx context.Context, doc *domain.Document) ([]extractor.Attempt, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]extractor.Attempt), args.Error(1)
}
