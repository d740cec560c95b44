package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"erpverify/internal/port"
)

// ReadPDFText returns the embedded text layer of a PDF. Each non-empty line
// is a region with confidence 1.
func ReadPDFText(data []byte) (res *port.OcrResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}

	res = &port.OcrResult{}
	var lines []string
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("reading page %d: %w", i, err)
		}
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			lines = append(lines, line)
			res.RegionConfidences = append(res.RegionConfidences, port.RegionConfidence{Text: line, Confidence: 1})
		}
	}
	if len(lines) == 0 {
		return nil, errors.New("pdf has no text layer")
	}
	res.Text = strings.Join(lines, "\n")
	res.MeanConfidence = 1
	return res, nil
}
