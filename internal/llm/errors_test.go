package llm_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpverify/internal/domain"
	"erpverify/internal/llm"
)

func TestNewRateLimitError_DefaultsTo60s(t *testing.T) {
	err := llm.NewRateLimitError("claude", errors.New("429"), 0)

	assert.Equal(t, 60*time.Second, err.RetryAfter)
	assert.Equal(t, "claude", err.Provider)
	assert.Contains(t, err.Error(), "claude rate limited")
}

func TestRateLimitError_IsTransient(t *testing.T) {
	err := llm.NewRateLimitError("openai", errors.New("429"), 5)

	assert.True(t, domain.IsTransient(err))
	assert.True(t, domain.IsTransient(errors.Join(errors.New("wrapped"), err)))
}

func TestParseRetryAfterHeader(t *testing.T) {
	assert.Equal(t, 0, llm.ParseRetryAfterHeader(""))
	assert.Equal(t, 30, llm.ParseRetryAfterHeader("30"))
	assert.Equal(t, 0, llm.ParseRetryAfterHeader("soon"))

	future := time.Now().Add(2 * time.Minute).UTC().Format(http.TimeFormat)
	secs := llm.ParseRetryAfterHeader(future)
	assert.Greater(t, secs, 100)
	assert.LessOrEqual(t, secs, 121)
}

func TestStatusError_Classification(t *testing.T) {
	header := http.Header{}
	header.Set("Retry-After", "7")

	rl := llm.StatusError("gemini", http.StatusTooManyRequests, []byte("slow down"), header)
	var rlErr *llm.RateLimitError
	require.ErrorAs(t, rl, &rlErr)
	assert.Equal(t, 7*time.Second, rlErr.RetryAfter)

	server := llm.StatusError("gemini", http.StatusBadGateway, []byte("oops"), http.Header{})
	var transient *domain.TransientServiceError
	require.ErrorAs(t, server, &transient)
	assert.True(t, domain.IsTransient(server))

	bad := llm.StatusError("gemini", http.StatusBadRequest, []byte("bad"), http.Header{})
	assert.False(t, domain.IsTransient(bad))
	assert.Contains(t, bad.Error(), "status 400")
}

func TestTransportError(t *testing.T) {
	assert.True(t, domain.IsTransient(llm.TransportError("claude", errors.New("connection refused"))))
	assert.False(t, domain.IsTransient(llm.TransportError("claude", context.Canceled)))
}
