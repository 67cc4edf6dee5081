package mocks

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"superca/internal/domain"
	"superca/internal/service"
)

// MockReturnService is a mock implementation of service.ReturnService.
type MockReturnService struct {
	mock.Mock
}

func (m *MockReturnService) GetOrCreateDraft(ctx context.Context, taxpayerID uuid.UUID, period string) (*domain.ReturnRecord, error) {
	args := m.Called(ctx, taxpayerID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReturnRecord), args.Error(1)
}

func (m *MockReturnService) GetByID(ctx context.Context, taxpayerID, returnID uuid.UUID) (*domain.ReturnRecord, error) {
	args := m.Called(ctx, taxpayerID, returnID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReturnRecord), args.Error(1)
}

func (m *MockReturnService) History(ctx context.Context, taxpayerID uuid.UUID, offset, limit int) ([]domain.ReturnRecord, int, error) {
	args := m.Called(ctx, taxpayerID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ReturnRecord), args.Int(1), args.Error(2)
}

func (m *MockReturnService) AuditTrail(ctx context.Context, taxpayerID, returnID uuid.UUID) ([]domain.ReturnAuditEntry, error) {
	args := m.Called(ctx, taxpayerID, returnID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReturnAuditEntry), args.Error(1)
}

func (m *MockReturnService) Reconcile(ctx context.Context, taxpayerID, returnID, actor uuid.UUID) (*domain.ReturnRecord, error) {
	args := m.Called(ctx, taxpayerID, returnID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReturnRecord), args.Error(1)
}

func (m *MockReturnService) Compute(ctx context.Context, input *service.ComputeInput) (*domain.ReturnRecord, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReturnRecord), args.Error(1)
}

func (m *MockReturnService) Confirm(ctx context.Context, taxpayerID, returnID, actor uuid.UUID) (*domain.ReturnRecord, error) {
	args := m.Called(ctx, taxpayerID, returnID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReturnRecord), args.Error(1)
}

func (m *MockReturnService) File(ctx context.Context, taxpayerID, returnID, actor uuid.UUID, notifyEmail string) (*domain.ReturnRecord, error) {
	args := m.Called(ctx, taxpayerID, returnID, actor, notifyEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReturnRecord), args.Error(1)
}

func (m *MockReturnService) Reject(ctx context.Context, taxpayerID, returnID, actor uuid.UUID, reason, notifyEmail string) (*domain.ReturnRecord, error) {
	args := m.Called(ctx, taxpayerID, returnID, actor, reason, notifyEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReturnRecord), args.Error(1)
}

func (m *MockReturnService) Reopen(ctx context.Context, taxpayerID, returnID, actor uuid.UUID, reason string) (*domain.ReturnRecord, error) {
	args := m.Called(ctx, taxpayerID, returnID, actor, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReturnRecord), args.Error(1)
}

func (m *MockReturnService) SetOverride(ctx context.Context, input *service.OverrideInput) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

func (m *MockReturnService) ClearOverride(ctx context.Context, taxpayerID uuid.UUID, period, field string) error {
	args := m.Called(ctx, taxpayerID, period, field)
	return args.Error(0)
}

func (m *MockReturnService) BuildArtifact(ctx context.Context, taxpayerID, returnID uuid.UUID) (json.RawMessage, error) {
	args := m.Called(ctx, taxpayerID, returnID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}
