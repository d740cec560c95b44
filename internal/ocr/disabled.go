package ocr

import (
	"context"

	"erpverify/internal/domain"
	"erpverify/internal/port"
)

// Disabled is an OcrEngine for deployments without Tesseract. Every call fails,
// so the pipeline proceeds without OCR.
type Disabled struct{}

func (Disabled) Name() string { return "disabled" }

func (Disabled) Recognize(context.Context, domain.DocumentImage) (*port.OcrResult, error) {
	return nil, &domain.OcrError{Reason: "ocr disabled"}
}
