package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/daricheva/streamgate/internal/models"
	pkglogger "github.com/daricheva/streamgate/pkg/logger"
)

// AWSSESNotifier sends device security notifications using AWS SES
type AWSSESNotifier struct {
	sesClient   *ses.Client
	fromAddress string
	logger      *slog.Logger
}

// NewAWSSESNotifier creates a new AWS SES notification service
func NewAWSSESNotifier(region, fromAddress string, logger *slog.Logger) (*AWSSESNotifier, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESNotifier{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		logger:      logger,
	}, nil
}

// NotifyNewDevice tells the account owner a new device was registered
func (n *AWSSESNotifier) NotifyNewDevice(ctx context.Context, email string, device *models.Device) error {
	if email == "" {
		return nil
	}

	subject := "New device registered on your account"
	textBody := fmt.Sprintf(`A new device was just registered on your account.

Device: %s
Registered at: %s

If this was you, no action is needed. If you don't recognize this device,
remove it from your account's device list and contact support.
`, device.UserAgent, device.FirstSeen.Format("2006-01-02 15:04 MST"))

	if err := n.send(ctx, email, subject, textBody); err != nil {
		return err
	}

	n.logger.Info("new device notification sent",
		slog.String("email", pkglogger.SanitizedEmail(email)))
	return nil
}

// NotifyDeviceLimitReached tells the account owner an admission was
// rejected because the account is at its device cap
func (n *AWSSESNotifier) NotifyDeviceLimitReached(ctx context.Context, email, deviceID string) error {
	if email == "" {
		return nil
	}

	subject := "Device limit reached on your account"
	textBody := `A sign-in from a new device was blocked because your account has
reached its device limit.

To use a new device, remove one of your existing devices from your
account's device list first. If you believe this is an error, contact
support.
`

	if err := n.send(ctx, email, subject, textBody); err != nil {
		return err
	}

	n.logger.Info("device limit notification sent",
		slog.String("email", pkglogger.SanitizedEmail(email)))
	return nil
}

func (n *AWSSESNotifier) send(ctx context.Context, email, subject, textBody string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(n.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data:    aws.String(textBody),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	if _, err := n.sesClient.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// NoopNotifier discards notifications. Used when EMAIL_ENABLED is false
// and in tests.
type NoopNotifier struct{}

func (NoopNotifier) NotifyNewDevice(ctx context.Context, email string, device *models.Device) error {
	return nil
}

func (NoopNotifier) NotifyDeviceLimitReached(ctx context.Context, email, deviceID string) error {
	return nil
}
