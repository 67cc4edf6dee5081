package mocks

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"superca/internal/port"
)

// MockFilingGateway is a mock implementation of port.FilingGateway.
type MockFilingGateway struct {
	mock.Mock
}

func (m *MockFilingGateway) File(ctx context.Context, taxpayerID uuid.UUID, artifact json.RawMessage) (*port.FilingAck, error) {
	args := m.Called(ctx, taxpayerID, artifact)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.FilingAck), args.Error(1)
}
