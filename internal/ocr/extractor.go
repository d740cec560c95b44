package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"erpverify/internal/domain"
	"erpverify/internal/port"
)

// Transcript is the OCR text of a whole document.
type Transcript struct {
	Text           string
	Pages          []*port.OcrResult
	MeanConfidence float64
}

// Extractor runs an OCR engine over every page of a document. pdf-page images
// are read from their embedded text layer instead of being recognized.
type Extractor struct {
	engine      port.OcrEngine
	timeout     time.Duration
	concurrency int
	logger      *zap.Logger
}

// NewExtractor creates an Extractor. timeout bounds each page; concurrency
// bounds the number of pages recognized at once.
func NewExtractor(engine port.OcrEngine, timeout time.Duration, concurrency int, logger *zap.Logger) *Extractor {
	if engine == nil {
		engine = Disabled{}
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{engine: engine, timeout: timeout, concurrency: concurrency, logger: logger}
}

// ExtractText recognizes all pages and joins their text in page order. Any
// page failure fails the whole call with an *domain.OcrError.
func (e *Extractor) ExtractText(ctx context.Context, images []domain.DocumentImage) (*Transcript, error) {
	results := make([]*port.OcrResult, len(images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, img := range images {
		i, img := i, img
		g.Go(func() error {
			res, err := e.recognizePage(gctx, img)
			if err != nil {
				return &domain.OcrError{Reason: fmt.Sprintf("page %d", img.Page), Err: err}
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	t := &Transcript{Pages: results}
	texts := make([]string, 0, len(results))
	var confSum float64
	var confN int
	for _, r := range results {
		if text := strings.TrimSpace(r.Text); text != "" {
			texts = append(texts, text)
		}
		if len(r.RegionConfidences) > 0 {
			confSum += r.MeanConfidence
			confN++
		}
	}
	t.Text = strings.Join(texts, "\n\n")
	if confN > 0 {
		t.MeanConfidence = confSum / float64(confN)
	}

	e.logger.Debug("ocr.Extractor: text extracted",
		zap.String("engine", e.engine.Name()),
		zap.Int("pages", len(images)),
		zap.Int("text_length", len(t.Text)),
		zap.Float64("mean_confidence", t.MeanConfidence),
	)
	return t, nil
}

func (e *Extractor) recognizePage(ctx context.Context, img domain.DocumentImage) (*port.OcrResult, error) {
	if img.MimeType == domain.MimePDFPage {
		return ReadPDFText(img.Data)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type outcome struct {
		res *port.OcrResult
		err error
	}
	// Recognition may block in native code, so it runs detached and the wait
	// is bounded by the timeout.
	done := make(chan outcome, 1)
	go func() {
		res, err := e.engine.Recognize(ctx, img)
		done <- outcome{res, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case o := <-done:
		if o.err != nil {
			return nil, o.err
		}
		if o.res == nil {
			return &port.OcrResult{}, nil
		}
		return o.res, nil
	}
}
