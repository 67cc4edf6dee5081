package mocks

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"superca/internal/port"
)

// MockArtifactRenderer is a mock implementation of port.ArtifactRenderer.
type MockArtifactRenderer struct {
	mock.Mock
}

func (m *MockArtifactRenderer) Render(ctx context.Context, doc json.RawMessage, fileName string) (*port.RenderedArtifact, error) {
	args := m.Called(ctx, doc, fileName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.RenderedArtifact), args.Error(1)
}
