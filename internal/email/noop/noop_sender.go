package noop

import (
	"context"
	"log"

	"superca/internal/port"
)

type noopSender struct{}

// NewNoopSender creates a no-op EmailSender that logs instead of sending.
func NewNoopSender() port.EmailSender {
	return &noopSender{}
}

func (s *noopSender) SendFilingAccepted(_ context.Context, toEmail, period, reference string) error {
	log.Printf("[NOOP EMAIL] Filing accepted for %s, period %s, reference %s", toEmail, period, reference)
	return nil
}

func (s *noopSender) SendFilingRejected(_ context.Context, toEmail, period, reason string) error {
	log.Printf("[NOOP EMAIL] Filing rejected for %s, period %s: %s", toEmail, period, reason)
	return nil
}
