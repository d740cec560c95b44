package port

import (
	"context"

	"erpverify/internal/domain"
)

// Prompt purposes.
const (
	PurposeClassification = "classification"
	PurposeExtraction     = "extraction"
)

// Prompt is a single instruction sent to a language model, optionally with
// page images. OcrText carries the OCR transcript for text-only models.
type Prompt struct {
	Purpose string
	Text    string
	Images  []domain.DocumentImage
	OcrText string
}

// Completion is the raw text a model returned.
type Completion struct {
	Text  string
	Model string
}

// LanguageModel abstracts a black-box LLM: prompt in, text out. It may fail
// transiently or return text that does not follow the instruction.
type LanguageModel interface {
	Complete(ctx context.Context, prompt Prompt) (*Completion, error)
}
