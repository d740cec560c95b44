package gemini_test

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
	"erpverify/internal/llm/gemini"
	"erpverify/internal/port"
)

func newTestModel(serverURL string) *gemini.Model {
	return gemini.NewModelWithEndpoint(&config.ProviderConfig{
		Provider:     "gemini",
		APIKey:       "test-gemini-key",
		DefaultModel: "gemini-2.0-flash",
	}, serverURL)
}

func TestGeminiModel_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-gemini-key", r.Header.Get("x-goog-api-key"))

		var reqBody map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		contents := reqBody["contents"].([]interface{})
		parts := contents[0].(map[string]interface{})["parts"].([]interface{})
		require.Len(t, parts, 2)
		inline := parts[0].(map[string]interface{})["inline_data"].(map[string]interface{})
		assert.Equal(t, "image/jpeg", inline["mime_type"])
		assert.Equal(t, "extract", parts[1].(map[string]interface{})["text"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{
					"content": map[string]interface{}{
						"parts": []map[string]interface{}{{"text": `{"fields":`}, {"text": `[]}`}},
					},
					"finishReason": "STOP",
				},
			},
		})
	}))
	defer server.Close()

	out, err := newTestModel(server.URL).Complete(context.Background(), port.Prompt{
		Purpose: port.PurposeExtraction,
		Text:    "extract",
		Images:  []domain.DocumentImage{{Data: []byte("jpg"), MimeType: domain.MimeJPEG, Page: 1}},
	})

	require.NoError(t, err)
	assert.Equal(t, `{"fields":[]}`, out.Text)
	assert.Equal(t, "gemini-2.0-flash", out.Model)
}

func TestGeminiModel_Complete_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestModel(server.URL).Complete(context.Background(), port.Prompt{Text: "x"})

	var rlErr *llm.RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, "gemini", rlErr.Provider)
	assert.Equal(t, 60.0, rlErr.RetryAfter.Seconds())
}

func TestGeminiModel_Complete_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	_, err := newTestModel(server.URL).Complete(context.Background(), port.Prompt{Text: "x"})

	assert.ErrorIs(t, err, domain.ErrEmptyResponse)
}

func TestGeminiModel_Complete_MaxTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{"}]},"finishReason":"MAX_TOKENS"}]}`))
	}))
	defer server.Close()

	_, err := newTestModel(server.URL).Complete(context.Background(), port.Prompt{Text: "x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "truncated")
}

func TestGeminiModel_Complete_UnsupportedImage(t *testing.T) {
	_, err := newTestModel("http://127.0.0.1:0").Complete(context.Background(), port.Prompt{
		Images: []domain.DocumentImage{{Data: []byte("x"), MimeType: "image/gif"}},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported content type")
}
