package gigachat_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpverify/internal/domain"
	"erpverify/internal/llm"
	"erpverify/internal/llm/gigachat"
	"erpverify/internal/port"
)

func TestGigaChatModel_Complete_SendsOcrTranscript(t *testing.T) {
	var sent string
	m := gigachat.NewModelWithGenerator("GigaChat", time.Second, func(_ context.Context, message string) (string, error) {
		sent = message
		return "  {\"documentType\":\"ProformaInvoice\"}\n", nil
	})

	out, err := m.Complete(context.Background(), port.Prompt{
		Text:    "classify",
		Images:  []domain.DocumentImage{{Data: []byte("png"), MimeType: domain.MimePNG}},
		OcrText: "PROFORMA INVOICE PI-7",
	})

	require.NoError(t, err)
	assert.Equal(t, `{"documentType":"ProformaInvoice"}`, out.Text)
	assert.Equal(t, "GigaChat", out.Model)
	assert.Contains(t, sent, "PROFORMA INVOICE PI-7")
}

func TestGigaChatModel_Complete_RequiresTranscriptForImages(t *testing.T) {
	m := gigachat.NewModelWithGenerator("GigaChat", time.Second, func(context.Context, string) (string, error) {
		t.Fatal("generate must not be called")
		return "", nil
	})

	_, err := m.Complete(context.Background(), port.Prompt{
		Images: []domain.DocumentImage{{Data: []byte("png"), MimeType: domain.MimePNG}},
	})

	assert.Error(t, err)
}

func TestGigaChatModel_Complete_ErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
		rateLimit bool
	}{
		{"rate limit", errors.New("unexpected status 429 Too Many Requests"), true, true},
		{"unauthorized", errors.New("status 401 unauthorized"), false, false},
		{"network", errors.New("dial tcp: connection reset"), true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := gigachat.NewModelWithGenerator("GigaChat", time.Second, func(context.Context, string) (string, error) {
				return "", tt.err
			})

			_, err := m.Complete(context.Background(), port.Prompt{Text: "x"})

			require.Error(t, err)
			assert.Equal(t, tt.transient, domain.IsTransient(err))
			var rlErr *llm.RateLimitError
			assert.Equal(t, tt.rateLimit, errors.As(err, &rlErr))
		})
	}
}

func TestGigaChatModel_Complete_EmptyReply(t *testing.T) {
	m := gigachat.NewModelWithGenerator("GigaChat", time.Second, func(context.Context, string) (string, error) {
		return "   ", nil
	})

	_, err := m.Complete(context.Background(), port.Prompt{Text: "x"})

	assert.ErrorIs(t, err, domain.ErrEmptyResponse)
}
