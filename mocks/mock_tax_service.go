package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"superca/internal/domain"
	"superca/internal/service"
)

// MockTaxService is a mock implementation of service.TaxService.
type MockTaxService struct {
	mock.Mock
}

func (m *MockTaxService) Calculate(ctx context.Context, input *service.CalculateTaxInput) (*domain.TaxComputation, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TaxComputation), args.Error(1)
}

func (m *MockTaxService) ReconcileAndCompute(ctx context.Context, taxpayerID uuid.UUID, period string, actor uuid.UUID) (*domain.ReturnRecord, error) {
	args := m.Called(ctx, taxpayerID, period, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReturnRecord), args.Error(1)
}

func (m *MockTaxService) RuleVersions() []string {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}
