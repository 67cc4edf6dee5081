package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"superca/internal/domain"
)

// MockReturnAuditRepo is a mock implementation of port.ReturnAuditRepository.
type MockReturnAuditRepo struct {
	mock.Mock
}

func (m *MockReturnAuditRepo) Create(ctx context.Context, entry *domain.ReturnAuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockReturnAuditRepo) ListByReturn(ctx context.Context, returnID uuid.UUID) ([]domain.ReturnAuditEntry, error) {
	args := m.Called(ctx, returnID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReturnAuditEntry), args.Error(1)
}
