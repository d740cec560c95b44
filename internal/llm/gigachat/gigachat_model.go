package gigachat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Role1776/gigago"

	"erpverify/internal/config"
	"erpverify/internal/domain"
	"erpverify/internal/llm"
	"erpverify/internal/port"
)

const (
	defaultModel = "GigaChat"
	defaultScope = "GIGACHAT_API_PERS"
)

const systemInstruction = "You are an accounts assistant that reads business documents and answers strictly in JSON."

func init() {
	llm.RegisterProvider("gigachat", func(cfg *config.ProviderConfig) (port.LanguageModel, error) {
		return NewModel(cfg)
	})
}

// GenerateFunc sends a single user message and returns the reply text.
type GenerateFunc func(ctx context.Context, message string) (string, error)

// Model implements port.LanguageModel on GigaChat. GigaChat is text only, so
// the document is passed as its OCR transcript.
type Model struct {
	model    string
	timeout  time.Duration
	generate GenerateFunc
	closer   func()
}

// NewModel creates a GigaChat client and obtains an access token.
func NewModel(cfg *config.ProviderConfig) (*Model, error) {
	scope := cfg.Scope
	if scope == "" {
		scope = defaultScope
	}
	opts := []gigago.Option{
		gigago.WithCustomScope(scope),
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	client, err := gigago.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating GigaChat client: %w", err)
	}

	name := cfg.DefaultModel
	if name == "" {
		name = defaultModel
	}
	gm := client.GenerativeModel(name)
	gm.SystemInstruction = systemInstruction
	gm.Temperature = 0.1

	generate := func(ctx context.Context, message string) (string, error) {
		resp, err := gm.Generate(ctx, []gigago.Message{
			{Role: gigago.RoleUser, Content: message},
		})
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", nil
		}
		return resp.Choices[0].Message.Content, nil
	}

	m := NewModelWithGenerator(name, time.Duration(cfg.TimeoutSecs)*time.Second, generate)
	m.closer = func() { client.Close() }
	return m, nil
}

// NewModelWithGenerator creates a model around a custom generate function (for testing).
func NewModelWithGenerator(name string, timeout time.Duration, generate GenerateFunc) *Model {
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Model{model: name, timeout: timeout, generate: generate}
}

func (m *Model) Complete(ctx context.Context, prompt port.Prompt) (*port.Completion, error) {
	if strings.TrimSpace(prompt.OcrText) == "" && len(prompt.Images) > 0 {
		return nil, fmt.Errorf("gigachat: document has no OCR transcript and images are not supported")
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	text, err := m.generate(ctx, llm.ComposeText(prompt))
	if err != nil {
		return nil, classifyError(err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyResponse
	}
	return &port.Completion{Text: text, Model: m.model}, nil
}

// Close releases the underlying client.
func (m *Model) Close() {
	if m.closer != nil {
		m.closer()
	}
}

// classifyError maps client errors onto the error taxonomy. The client does
// not expose status codes, so the message is inspected.
func classifyError(err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("calling gigachat API: %w", err)
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "too many requests"):
		return llm.NewRateLimitError("gigachat", err, 0)
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") || strings.Contains(msg, "400"):
		return fmt.Errorf("gigachat API error: %w", err)
	default:
		return domain.NewTransientError("gigachat", "complete", err)
	}
}
