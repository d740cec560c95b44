package noop

import (
	"context"

	"go.uber.org/zap"

	"erpverify/internal/domain"
	"erpverify/internal/notify"
)

// Notifier logs alerts instead of sending them.
type Notifier struct {
	logger *zap.Logger
}

// NewNotifier creates a no-op Notifier.
func NewNotifier(logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{logger: logger}
}

func (n *Notifier) NotifyResult(_ context.Context, res *domain.VerificationResult) error {
	n.logger.Info("[NOOP NOTIFY] "+notify.Compose(res).Subject,
		zap.String("job_no", res.JobNo),
		zap.String("run_id", res.ID.String()),
	)
	return nil
}
