package pipeline

import (
	"context"
	"errors"

	"erpverify/internal/domain"
	"erpverify/internal/port"
)

// MultiSink fans a result out to several sinks. Every sink is tried; their
// errors are joined.
type MultiSink []port.ResultSink

func (m MultiSink) Save(ctx context.Context, result *domain.VerificationResult) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Save(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SinkFunc adapts a function to port.ResultSink.
type SinkFunc func(ctx context.Context, result *domain.VerificationResult) error

func (f SinkFunc) Save(ctx context.Context, result *domain.VerificationResult) error {
	return f(ctx, result)
}
