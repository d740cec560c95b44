package ses

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"erpverify/internal/config"
	"erpverify/internal/domain"
	"erpverify/internal/notify"
)

// SendEmailAPI is the part of the SES client the notifier uses.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Notifier sends result alerts through Amazon SES.
type Notifier struct {
	client      SendEmailAPI
	fromAddress string
	fromName    string
	to          string
}

// NewNotifier creates an SES-backed Notifier from the email config section.
func NewNotifier(ctx context.Context, cfg *config.EmailConfig) (*Notifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	return NewNotifierWithClient(sesv2.NewFromConfig(awsCfg), cfg), nil
}

// NewNotifierWithClient creates a Notifier on an existing client.
func NewNotifierWithClient(client SendEmailAPI, cfg *config.EmailConfig) *Notifier {
	return &Notifier{
		client:      client,
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
		to:          cfg.NotifyAddress,
	}
}

func (n *Notifier) NotifyResult(ctx context.Context, res *domain.VerificationResult) error {
	msg := notify.Compose(res)
	from := n.fromAddress
	if n.fromName != "" {
		from = fmt.Sprintf("%s <%s>", n.fromName, n.fromAddress)
	}

	_, err := n.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: []string{n.to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &msg.Subject},
				Body: &types.Body{
					Html: &types.Content{Data: &msg.HTML},
					Text: &types.Content{Data: &msg.Text},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}
