package fitz

import (
	"fmt"

	"github.com/gen2brain/go-fitz"
)

// Renderer rasterizes PDF pages with MuPDF.
type Renderer struct{}

// NewRenderer creates a Renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderPNG renders every page of pdf as a PNG at the given resolution, in page order.
func (r *Renderer) RenderPNG(pdf []byte, dpi float64) ([][]byte, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	defer doc.Close()

	pages := make([][]byte, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		png, err := doc.ImagePNG(i, dpi)
		if err != nil {
			return nil, fmt.Errorf("rendering page %d: %w", i+1, err)
		}
		pages = append(pages, png)
	}
	return pages, nil
}
