package ses_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpverify/internal/config"
	"erpverify/internal/domain"
	"erpverify/internal/notify/ses"
)

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

var emailCfg = &config.EmailConfig{
	FromAddress:   "alerts@example.com",
	FromName:      "ERP Verify",
	NotifyAddress: "ops@example.com",
}

func TestNotifier_SendsComposedAlert(t *testing.T) {
	client := &fakeSES{}
	n := ses.NewNotifierWithClient(client, emailCfg)

	err := n.NotifyResult(context.Background(), &domain.VerificationResult{
		JobNo:        "J-100",
		State:        domain.StateFailed,
		ErrorMessage: domain.StringPtr("verification cancelled"),
	})

	require.NoError(t, err)
	require.NotNil(t, client.input)
	assert.Equal(t, "ERP Verify <alerts@example.com>", aws.ToString(client.input.FromEmailAddress))
	assert.Equal(t, []string{"ops@example.com"}, client.input.Destination.ToAddresses)
	assert.Contains(t, aws.ToString(client.input.Content.Simple.Subject.Data), "J-100")
	assert.Contains(t, aws.ToString(client.input.Content.Simple.Body.Text.Data), "verification cancelled")
}

func TestNotifier_WrapsSendError(t *testing.T) {
	n := ses.NewNotifierWithClient(&fakeSES{err: errors.New("MessageRejected")}, emailCfg)

	err := n.NotifyResult(context.Background(), &domain.VerificationResult{State: domain.StateFailed})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SES SendEmail")
}
