package llm

import (
	"strings"

	"erpverify/internal/port"
)

// ComposeText returns the prompt text with the OCR transcript appended as a
// hint when one is present.
func ComposeText(p port.Prompt) string {
	ocr := strings.TrimSpace(p.OcrText)
	if ocr == "" {
		return p.Text
	}
	return p.Text + "\n\nOCR transcript of the document (may contain recognition errors, use it only as a hint):\n" + ocr
}
