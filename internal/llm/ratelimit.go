package llm

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"erpverify/internal/port"
)

// RateLimitedModel throttles calls to a model with a token bucket and holds
// off further calls after the provider reports a 429.
type RateLimitedModel struct {
	inner   port.LanguageModel
	limiter *rate.Limiter

	mu      sync.Mutex
	retryAt time.Time
}

// NewRateLimitedModel wraps inner with a limiter of rps requests per second.
func NewRateLimitedModel(inner port.LanguageModel, rps float64, burst int) *RateLimitedModel {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitedModel{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Wait blocks until a request can be made without exceeding the rate limit.
// It also respects any backoff period set by a previous rate limit error.
func (r *RateLimitedModel) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if time.Now().Before(retryAt) {
		timer := time.NewTimer(time.Until(retryAt))
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.limiter.Wait(ctx)
}

func (r *RateLimitedModel) recordRateLimit(retryAfter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	at := time.Now().Add(retryAfter)
	if at.After(r.retryAt) {
		r.retryAt = at
	}
}

func (r *RateLimitedModel) Complete(ctx context.Context, prompt port.Prompt) (*port.Completion, error) {
	if err := r.Wait(ctx); err != nil {
		return nil, err
	}
	out, err := r.inner.Complete(ctx, prompt)
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		r.recordRateLimit(rlErr.RetryAfter)
	}
	return out, err
}
