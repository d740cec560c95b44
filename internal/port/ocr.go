package port

import (
	"context"

	"erpverify/internal/domain"
)

// Region is a rectangle on a page in pixel coordinates.
type Region struct {
	X, Y, Width, Height float64
}

// RegionConfidence is recognized text for one region with its confidence in [0,1].
type RegionConfidence struct {
	Text       string
	Confidence float64
	Bounds     Region
}

// OcrResult is the recognized text of one page.
type OcrResult struct {
	Text              string
	RegionConfidences []RegionConfidence
	MeanConfidence    float64
}

// OcrEngine recognizes text on a normalized document image.
type OcrEngine interface {
	Name() string
	Recognize(ctx context.Context, img domain.DocumentImage) (*OcrResult, error)
}
