package port

import (
	"context"

	"github.com/google/uuid"

	"erpverify/internal/domain"
)

// ResultSink receives finished verification results for persistence or
// notification.
type ResultSink interface {
	Save(ctx context.Context, result *domain.VerificationResult) error
}

// ResultReader loads previously stored verification results.
type ResultReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.VerificationResult, error)
	ListByJob(ctx context.Context, jobNo string, offset, limit int) ([]domain.VerificationResult, int, error)
	LatestByJob(ctx context.Context, jobNo string) (*domain.VerificationResult, error)
}

// ResultRepository is both a sink and a reader.
type ResultRepository interface {
	ResultSink
	ResultReader
}
