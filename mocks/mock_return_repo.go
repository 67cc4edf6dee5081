package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"superca/internal/domain"
)

// MockReturnRepo is a mock implementation of port.ReturnRepository.
type MockReturnRepo struct {
	mock.Mock
}

func (m *MockReturnRepo) Create(ctx context.Context, rec *domain.ReturnRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockReturnRepo) GetByID(ctx context.Context, taxpayerID, returnID uuid.UUID) (*domain.ReturnRecord, error) {
	args := m.Called(ctx, taxpayerID, returnID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReturnRecord), args.Error(1)
}

func (m *MockReturnRepo) GetByPeriod(ctx context.Context, taxpayerID uuid.UUID, period string) (*domain.ReturnRecord, error) {
	args := m.Called(ctx, taxpayerID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReturnRecord), args.Error(1)
}

func (m *MockReturnRepo) ListByTaxpayer(ctx context.Context, taxpayerID uuid.UUID, offset, limit int) ([]domain.ReturnRecord, int, error) {
	args := m.Called(ctx, taxpayerID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ReturnRecord), args.Int(1), args.Error(2)
}

func (m *MockReturnRepo) TransitionStatus(ctx context.Context, rec *domain.ReturnRecord, expected domain.ReturnStatus) error {
	args := m.Called(ctx, rec, expected)
	return args.Error(0)
}
