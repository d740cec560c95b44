package port

// PageRenderer rasterizes the pages of a PDF into PNG images.
type PageRenderer interface {
	RenderPNG(pdf []byte, dpi float64) ([][]byte, error)
}
