package classify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"erpverify/internal/domain"
	"erpverify/internal/port"
)

// Engine asks a language model which document template a set of pages is.
type Engine struct {
	model  port.LanguageModel
	logger *zap.Logger
}

// NewEngine creates a classification Engine.
func NewEngine(model port.LanguageModel, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{model: model, logger: logger}
}

// Classify makes exactly one model call. Model failures are returned as
// errors so the caller can decide whether to retry; an answer that cannot be
// understood is reported in the result, never as an error.
func (e *Engine) Classify(ctx context.Context, jobNo string, images []domain.DocumentImage, ocrText string) (domain.ClassificationResult, error) {
	out, err := e.model.Complete(ctx, port.Prompt{
		Purpose: port.PurposeClassification,
		Text:    BuildPrompt(jobNo),
		Images:  images,
		OcrText: ocrText,
	})
	if errors.Is(err, domain.ErrEmptyResponse) {
		e.logger.Warn("classify.Engine.Classify: empty model response", zap.String("job_no", jobNo))
		return domain.FailedClassification(UnparseableMessage, ""), nil
	}
	if err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("classify.Engine.Classify: %w", err)
	}

	res := Parse(out.Text)
	res.ModelUsed = out.Model

	if res.ErrorMessage != nil {
		e.logger.Warn("classify.Engine.Classify: unparseable response",
			zap.String("job_no", jobNo),
			zap.String("model", out.Model),
		)
	} else {
		e.logger.Info("classify.Engine.Classify: classified",
			zap.String("job_no", jobNo),
			zap.String("document_type", string(res.DocumentType)),
			zap.Float64("confidence", res.Confidence),
			zap.String("model", out.Model),
		)
	}
	return res, nil
}
