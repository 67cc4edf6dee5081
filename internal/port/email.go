package port

import "context"

// EmailSender notifies a taxpayer about filing outcomes.
type EmailSender interface {
	SendFilingAccepted(ctx context.Context, toEmail, period, reference string) error
	SendFilingRejected(ctx context.Context, toEmail, period, reason string) error
}
