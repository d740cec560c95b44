package normalize

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"erpverify/internal/domain"
)

// CountPages returns the page count of a PDF document.
func CountPages(data []byte) (n int, err error) {
	// The reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("malformed pdf: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	return r.NumPage(), nil
}

func (n *Normalizer) normalizePDF(data []byte) ([]domain.DocumentImage, error) {
	pages, err := CountPages(data)
	if err != nil {
		return nil, &domain.NormalizationError{Reason: "unreadable pdf", Err: err}
	}
	if pages == 0 {
		return nil, &domain.NormalizationError{Reason: "pdf has no pages"}
	}
	if n.maxPages > 0 && pages > n.maxPages {
		return nil, &domain.NormalizationError{
			Reason: fmt.Sprintf("pdf has %d pages, limit is %d", pages, n.maxPages),
		}
	}

	if n.renderer == nil {
		if pages > 1 {
			return nil, &domain.NormalizationError{
				Reason: fmt.Sprintf("pdf has %d pages and no page renderer is configured", pages),
			}
		}
		return []domain.DocumentImage{{Data: data, MimeType: domain.MimePDFPage, Page: 1}}, nil
	}

	rendered, err := n.renderer.RenderPNG(data, n.dpi)
	if err != nil {
		return nil, &domain.NormalizationError{Reason: "rendering pdf", Err: err}
	}
	if len(rendered) != pages {
		n.logger.Warn("normalize.Normalizer: rendered page count differs from pdf page count",
			zap.Int("pages", pages),
			zap.Int("rendered", len(rendered)),
		)
	}
	if len(rendered) == 0 {
		return nil, &domain.NormalizationError{Reason: "pdf rendered no pages"}
	}

	out := make([]domain.DocumentImage, len(rendered))
	for i, page := range rendered {
		if len(page) == 0 {
			return nil, &domain.NormalizationError{Reason: fmt.Sprintf("page %d rendered empty", i+1)}
		}
		out[i] = domain.DocumentImage{Data: page, MimeType: domain.MimePNG, Page: i + 1}
	}
	return out, nil
}
