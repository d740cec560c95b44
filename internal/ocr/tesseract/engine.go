package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"erpverify/internal/domain"
	"erpverify/internal/port"
)

// Engine implements port.OcrEngine with the Tesseract client.
type Engine struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// NewEngine constructs a Tesseract-backed OCR engine.
func NewEngine(languages []string) *Engine {
	return &Engine{
		languages:     append([]string(nil), languages...),
		clientFactory: gosseract.NewClient,
	}
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize performs OCR on a single raster page. A new client is created
// per call; clients are not safe for concurrent use.
func (e *Engine) Recognize(ctx context.Context, img domain.DocumentImage) (*port.OcrResult, error) {
	if img.MimeType != domain.MimePNG && img.MimeType != domain.MimeJPEG {
		return nil, fmt.Errorf("tesseract cannot read %s", img.MimeType)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := e.clientFactory()
	defer func() { _ = c.Close() }()

	if err := c.SetImageFromBytes(img.Data); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	if len(e.languages) > 0 {
		if err := c.SetLanguage(e.languages...); err != nil {
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	text, err := c.Text()
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}

	regions, mean := regionsFromBoxes(c)
	return &port.OcrResult{
		Text:              strings.TrimSpace(text),
		RegionConfidences: regions,
		MeanConfidence:    mean,
	}, nil
}

func regionsFromBoxes(c *gosseract.Client) ([]port.RegionConfidence, float64) {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return nil, 0
	}
	return toRegions(boxes)
}

func toRegions(boxes []gosseract.BoundingBox) ([]port.RegionConfidence, float64) {
	regions := make([]port.RegionConfidence, 0, len(boxes))
	var sum float64
	for _, b := range boxes {
		conf := clamp(b.Confidence / 100.0)
		sum += conf
		regions = append(regions, port.RegionConfidence{
			Text:       b.Word,
			Confidence: conf,
			Bounds: port.Region{
				X:      float64(b.Box.Min.X),
				Y:      float64(b.Box.Min.Y),
				Width:  float64(b.Box.Dx()),
				Height: float64(b.Box.Dy()),
			},
		})
	}
	if len(regions) == 0 {
		return regions, 0
	}
	return regions, sum / float64(len(regions))
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
