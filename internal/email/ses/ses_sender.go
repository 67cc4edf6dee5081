package ses

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"superca/internal/port"
)

type sesSender struct {
	client      *sesv2.Client
	fromAddress string
	fromName    string
}

// NewSESSender creates a new SES-backed EmailSender.
func NewSESSender(region, fromAddress, fromName string) (port.EmailSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	client := sesv2.NewFromConfig(cfg)
	return &sesSender{
		client:      client,
		fromAddress: fromAddress,
		fromName:    fromName,
	}, nil
}

func (s *sesSender) SendFilingAccepted(ctx context.Context, toEmail, period, reference string) error {
	subject := fmt.Sprintf("Your %s income tax return has been filed", period)
	htmlBody := buildFilingAcceptedHTML(period, reference)
	textBody := fmt.Sprintf("Your income tax return for %s has been filed successfully.\n\nAcknowledgment reference: %s\n\nKeep this reference for your records.\n\nSuperCA Team", period, reference)
	return s.send(ctx, toEmail, subject, htmlBody, textBody)
}

func (s *sesSender) SendFilingRejected(ctx context.Context, toEmail, period, reason string) error {
	subject := fmt.Sprintf("Your %s income tax return was rejected", period)
	htmlBody := buildFilingRejectedHTML(period, reason)
	textBody := fmt.Sprintf("Your income tax return for %s was rejected by the filing authority.\n\nReason: %s\n\nPlease review and refile.\n\nSuperCA Team", period, reason)
	return s.send(ctx, toEmail, subject, htmlBody, textBody)
}

func (s *sesSender) send(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

func buildFilingAcceptedHTML(period, reference string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Return filed successfully</h2>
  <p>Your income tax return for <strong>%s</strong> has been filed.</p>
  <p>Acknowledgment reference:</p>
  <p style="font-size: 18px; font-weight: bold; color: #4F46E5;">%s</p>
  <p>Keep this reference for your records.</p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">SuperCA - Tax Filing Platform</p>
</body>
</html>`, period, reference)
}

func buildFilingRejectedHTML(period, reason string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Return rejected</h2>
  <p>Your income tax return for <strong>%s</strong> was rejected by the filing authority.</p>
  <p>Reason:</p>
  <p style="color: #B91C1C;">%s</p>
  <p>Please review the return and refile.</p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">SuperCA - Tax Filing Platform</p>
</body>
</html>`, period, reason)
}
