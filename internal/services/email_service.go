package services

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	"github.com/BradenHooton/useradmin/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// EmailService delivers verification codes to new users.
type EmailService interface {
	SendVerificationCode(ctx context.Context, email, name, code string) error
}

// sesSender is the part of the SES client used here.
type sesSender interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// AWSSESEmailService sends emails using AWS SES
type AWSSESEmailService struct {
	client      sesSender
	fromAddress string
	logger      *slog.Logger
}

// NewAWSSESEmailService creates a new AWS SES email service
func NewAWSSESEmailService(ctx context.Context, region, fromAddress string, logger *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return newSESEmailService(ses.NewFromConfig(cfg), fromAddress, logger), nil
}

func newSESEmailService(client sesSender, fromAddress string, logger *slog.Logger) *AWSSESEmailService {
	return &AWSSESEmailService{
		client:      client,
		fromAddress: fromAddress,
		logger:      logger,
	}
}

func verificationBodies(name, code string) (htmlBody, textBody string) {
	htmlBody = fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h1>Verify your account</h1>
        <p>Hello %s,</p>
        <p>An administrator created an account for you. Use the code below to verify it:</p>
        <p style="font-size: 28px; letter-spacing: 6px;"><strong>%s</strong></p>
        <p>If you did not expect this email, you can ignore it.</p>
        <p style="color: #666; font-size: 12px;">This is an automated message. Please do not reply to this email.</p>
    </div>
</body>
</html>
`, html.EscapeString(name), code)

	textBody = fmt.Sprintf(`Verify your account

Hello %s,

An administrator created an account for you. Use the code below to verify it:

%s

If you did not expect this email, you can ignore it.
`, name, code)

	return htmlBody, textBody
}

// SendVerificationCode sends the verification code to email
func (s *AWSSESEmailService) SendVerificationCode(ctx context.Context, email, name, code string) error {
	htmlBody, textBody := verificationBodies(name, code)

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String("Your verification code"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send verification code via SES",
			slog.String("email", logger.SanitizedEmail(email)),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("verification code sent",
		slog.String("email", logger.SanitizedEmail(email)),
		slog.String("message_id", aws.ToString(result.MessageId)))

	return nil
}

// LogEmailService writes verification codes to the log instead of sending
// them. Used in development.
type LogEmailService struct {
	logger *slog.Logger
}

func NewLogEmailService(logger *slog.Logger) *LogEmailService {
	return &LogEmailService{logger: logger}
}

func (s *LogEmailService) SendVerificationCode(ctx context.Context, email, name, code string) error {
	s.logger.InfoContext(ctx, "verification code issued",
		slog.String("email", logger.SanitizedEmail(email)),
		slog.String("code", code))
	return nil
}
