package claude_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpverify/internal/config"
	"erpverify/internal/domain"
	"erpverify/internal/llm"
	"erpverify/internal/llm/claude"
	"erpverify/internal/port"
)

func newTestModel(serverURL string) *claude.Model {
	return claude.NewModelWithEndpoint(&config.ProviderConfig{
		Provider:     "claude",
		APIKey:       "test-api-key",
		DefaultModel: "claude-sonnet-4-20250514",
		TimeoutSecs:  30,
	}, serverURL)
}

func TestClaudeModel_Complete_ImagesAndText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-api-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var reqBody map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "claude-sonnet-4-20250514", reqBody["model"])

		msg := reqBody["messages"].([]interface{})[0].(map[string]interface{})
		content := msg["content"].([]interface{})
		require.Len(t, content, 3)
		assert.Equal(t, "image", content[0].(map[string]interface{})["type"])
		assert.Equal(t, "document", content[1].(map[string]interface{})["type"])
		text := content[2].(map[string]interface{})
		assert.Equal(t, "text", text["type"])
		assert.Contains(t, text["text"], "OCR transcript")

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"content":     []map[string]interface{}{{"type": "text", "text": `{"documentType":"SalesQuote"}`}},
			"stop_reason": "end_turn",
		})
	}))
	defer server.Close()

	out, err := newTestModel(server.URL).Complete(context.Background(), port.Prompt{
		Purpose: port.PurposeClassification,
		Text:    "classify this",
		Images: []domain.DocumentImage{
			{Data: []byte("png"), MimeType: domain.MimePNG, Page: 1},
			{Data: []byte("%PDF"), MimeType: domain.MimePDFPage, Page: 2},
		},
		OcrText: "SALES QUOTE",
	})

	require.NoError(t, err)
	assert.Equal(t, `{"documentType":"SalesQuote"}`, out.Text)
	assert.Equal(t, "claude-sonnet-4-20250514", out.Model)
}

func TestClaudeModel_Complete_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "12")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate_limit"}`))
	}))
	defer server.Close()

	_, err := newTestModel(server.URL).Complete(context.Background(), port.Prompt{Text: "x"})

	var rlErr *llm.RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, "claude", rlErr.Provider)
	assert.Equal(t, 12.0, rlErr.RetryAfter.Seconds())
}

func TestClaudeModel_Complete_ServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestModel(server.URL).Complete(context.Background(), port.Prompt{Text: "x"})

	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))
}

func TestClaudeModel_Complete_BadRequestIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid"}`))
	}))
	defer server.Close()

	_, err := newTestModel(server.URL).Complete(context.Background(), port.Prompt{Text: "x"})

	require.Error(t, err)
	assert.False(t, domain.IsTransient(err))
}

func TestClaudeModel_Complete_Truncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"content":     []map[string]interface{}{{"type": "text", "text": `{"fields":[`}},
			"stop_reason": "max_tokens",
		})
	}))
	defer server.Close()

	_, err := newTestModel(server.URL).Complete(context.Background(), port.Prompt{Text: "x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "truncated")
}

func TestClaudeModel_Complete_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[]}`))
	}))
	defer server.Close()

	_, err := newTestModel(server.URL).Complete(context.Background(), port.Prompt{Text: "x"})

	assert.ErrorIs(t, err, domain.ErrEmptyResponse)
}

func TestClaudeModel_Complete_ConnectionRefusedIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestModel(url).Complete(context.Background(), port.Prompt{Text: "x"})

	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))
}

func TestClaudeModel_RegisteredInFactory(t *testing.T) {
	m, err := llm.NewModel(&config.ProviderConfig{Provider: "claude", APIKey: "k"})

	require.NoError(t, err)
	assert.IsType(t, &claude.Model{}, m)
}
