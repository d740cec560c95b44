package pipeline

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"erpverify/internal/domain"
)

// ErrPoolClosed is recorded on requests submitted after Shutdown.
var ErrPoolClosed = errors.New("verification pool is shut down")

// Runner verifies a single request.
type Runner interface {
	Run(ctx context.Context, req domain.VerificationRequest) *domain.VerificationResult
}

// Pool runs verification requests concurrently, bounded by a semaphore.
// Results of different requests complete in no particular order.
type Pool struct {
	runner Runner
	sem    chan struct{}
	logger *zap.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewPool creates a Pool running at most maxConcurrency requests at once.
func NewPool(runner Runner, maxConcurrency int, logger *zap.Logger) *Pool {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("pipeline.Pool: started", zap.Int("concurrency", maxConcurrency))
	return &Pool{
		runner: runner,
		sem:    make(chan struct{}, maxConcurrency),
		logger: logger,
	}
}

// Submit schedules req and returns a channel that receives its result. A
// request cancelled while waiting for a slot still yields a result.
func (p *Pool) Submit(ctx context.Context, req domain.VerificationRequest) <-chan *domain.VerificationResult {
	out := make(chan *domain.VerificationResult, 1)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		out <- FailedResult(req, ErrPoolClosed)
		close(out)
		return out
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		defer close(out)

		select {
		case p.sem <- struct{}{}:
			defer func() { <-p.sem }()
		case <-ctx.Done():
			// the runner observes the cancellation before any external call
		}
		out <- p.runner.Run(ctx, req)
	}()
	return out
}

// VerifyBatch runs all requests and returns their results in submission order.
func (p *Pool) VerifyBatch(ctx context.Context, reqs []domain.VerificationRequest) []*domain.VerificationResult {
	chans := make([]<-chan *domain.VerificationResult, len(reqs))
	for i, req := range reqs {
		chans[i] = p.Submit(ctx, req)
	}
	results := make([]*domain.VerificationResult, len(reqs))
	for i, ch := range chans {
		results[i] = <-ch
	}
	return results
}

// Shutdown stops accepting requests and waits for in-flight runs, or until
// ctx is done.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.logger.Info("pipeline.Pool: shutting down, waiting for in-flight runs...")
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("pipeline.Pool: shutdown complete")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
