package port

import (
	"context"

	"erpverify/internal/domain"
)

// Notifier alerts people about verification results that need attention.
type Notifier interface {
	NotifyResult(ctx context.Context, result *domain.VerificationResult) error
}
