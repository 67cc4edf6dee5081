package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockEmailSender is a mock implementation of port.EmailSender.
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendFilingAccepted(ctx context.Context, toEmail, period, reference string) error {
	args := m.Called(ctx, toEmail, period, reference)
	return args.Error(0)
}

func (m *MockEmailSender) SendFilingRejected(ctx context.Context, toEmail, period, reason string) error {
	args := m.Called(ctx, toEmail, period, reason)
	return args.Error(0)
}
