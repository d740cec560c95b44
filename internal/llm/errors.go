package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"erpverify/internal/domain"
)

// RateLimitError indicates a model provider returned HTTP 429.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// Temporary marks rate limiting as retryable.
func (e *RateLimitError) Temporary() bool {
	return true
}

// NewRateLimitError creates a RateLimitError. If retryAfterSecs is 0, defaults to 60s.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *RateLimitError {
	if retryAfterSecs <= 0 {
		retryAfterSecs = 60
	}
	return &RateLimitError{
		Err:        err,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
		Provider:   provider,
	}
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Both the delta-seconds and HTTP-date forms are accepted. Returns 0 if the
// value is empty or malformed.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return secs
	}
	if at, err := http.ParseTime(val); err == nil {
		if d := time.Until(at); d > 0 {
			return int(d.Seconds()) + 1
		}
	}
	return 0
}

// StatusError maps a non-200 provider response onto the error taxonomy:
// 429 is a RateLimitError, 408 and 5xx are transient, everything else is permanent.
func StatusError(provider string, status int, body []byte, header http.Header) error {
	baseErr := fmt.Errorf("%s API error (status %d): %s", provider, status, truncate(string(body), 500))
	switch {
	case status == http.StatusTooManyRequests:
		return NewRateLimitError(provider, baseErr, ParseRetryAfterHeader(header.Get("Retry-After")))
	case status == http.StatusRequestTimeout || status >= 500:
		return domain.NewTransientError(provider, "complete", baseErr)
	default:
		return baseErr
	}
}

// TransportError classifies a failed round trip. Caller cancellation stays
// permanent; timeouts and connection failures are transient.
func TransportError(provider string, err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("calling %s API: %w", provider, err)
	}
	return domain.NewTransientError(provider, "complete", err)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
