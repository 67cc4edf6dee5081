package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"superca/internal/domain"
)

// MockExtractionResultRepo is a mock implementation of port.ExtractionResultRepository.
type MockExtractionResultRepo struct {
	mock.Mock
}

func (m *MockExtractionResultRepo) Create(ctx context.Context, res *domain.ExtractionResult) error {
	args := m.Called(ctx, res)
	return args.Error(0)
}

func (m *MockExtractionResultRepo) ListByPeriod(ctx context.Context, taxpayerID uuid.UUID, period string) ([]domain.ExtractionResult, error) {
	args := m.Called(ctx, taxpayerID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExtractionResult), args.Error(1)
}

func (m *MockExtractionResultRepo) ListByDocument(ctx context.Context, docID uuid.UUID) ([]domain.ExtractionResult, error) {
	args := m.Called(ctx, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExtractionResult), args.Error(1)
}
