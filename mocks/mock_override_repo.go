package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"superca/internal/domain"
)

// MockOverrideRepo is a mock implementation of port.OverrideRepository.
type MockOverrideRepo struct {
	mock.Mock
}

func (m *MockOverrideRepo) Upsert(ctx context.Context, o *domain.FieldOverride) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOverrideRepo) Clear(ctx context.Context, taxpayerID uuid.UUID, period, field string, clearedAt time.Time) error {
	args := m.Called(ctx, taxpayerID, period, field, clearedAt)
	return args.Error(0)
}

func (m *MockOverrideRepo) ListActive(ctx context.Context, taxpayerID uuid.UUID, period string) ([]domain.FieldOverride, error) {
	args := m.Called(ctx, taxpayerID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FieldOverride), args.Error(1)
}
