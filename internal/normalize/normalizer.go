package normalize

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"mime"
	"strings"

	// Decoders for formats that are re-encoded to PNG.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"erpverify/internal/config"
	"erpverify/internal/domain"
	"erpverify/internal/port"
)

const defaultDPI = 300

var mimeAliases = map[string]string{
	"image/jpg":         "image/jpeg",
	"image/pjpeg":       "image/jpeg",
	"image/x-png":       "image/png",
	"image/x-bmp":       "image/bmp",
	"image/x-ms-bmp":    "image/bmp",
	"application/x-pdf": "application/pdf",
}

// convertible formats are decoded and re-encoded as PNG.
var convertible = map[string]bool{
	"image/gif":  true,
	"image/bmp":  true,
	"image/tiff": true,
	"image/webp": true,
}

// Normalizer converts inbound images into validated DocumentImages.
// It is stateless and safe for concurrent use.
type Normalizer struct {
	renderer port.PageRenderer
	dpi      float64
	maxPages int
	logger   *zap.Logger
}

// New creates a Normalizer. A nil renderer disables PDF rasterization; single
// page PDFs are then passed through as pdf-page images.
func New(cfg *config.NormalizeConfig, renderer port.PageRenderer, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &Normalizer{renderer: renderer, dpi: defaultDPI, logger: logger}
	if cfg != nil {
		if cfg.PDFDPI > 0 {
			n.dpi = cfg.PDFDPI
		}
		n.maxPages = cfg.MaxPages
	}
	return n
}

// Normalize converts one raw image into one or more DocumentImages, one per
// page, numbered from 1.
func (n *Normalizer) Normalize(raw domain.RawImage) ([]domain.DocumentImage, error) {
	if len(raw.Data) == 0 {
		return nil, &domain.NormalizationError{Reason: "empty image"}
	}

	kind := n.detect(raw)
	switch {
	case kind == string(domain.MimePNG) || kind == string(domain.MimeJPEG):
		if err := checkRaster(raw.Data); err != nil {
			return nil, err
		}
		return []domain.DocumentImage{{Data: raw.Data, MimeType: domain.MimeType(kind), Page: 1}}, nil
	case convertible[kind]:
		data, err := toPNG(raw.Data)
		if err != nil {
			return nil, err
		}
		return []domain.DocumentImage{{Data: data, MimeType: domain.MimePNG, Page: 1}}, nil
	case kind == string(domain.MimePDFPage):
		return n.normalizePDF(raw.Data)
	default:
		return nil, &domain.NormalizationError{
			Reason: "unsupported mime type: " + kind,
			Err:    domain.ErrUnsupportedMediaType,
		}
	}
}

// NormalizeAll normalizes every image of a request. Pages are numbered
// consecutively across images in request order.
func (n *Normalizer) NormalizeAll(raws []domain.RawImage) ([]domain.DocumentImage, error) {
	var out []domain.DocumentImage
	for i, raw := range raws {
		pages, err := n.Normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i+1, err)
		}
		out = append(out, pages...)
		if n.maxPages > 0 && len(out) > n.maxPages {
			return nil, &domain.NormalizationError{
				Reason: fmt.Sprintf("request has more than %d pages", n.maxPages),
			}
		}
	}
	for i := range out {
		out[i].Page = i + 1
	}
	return out, nil
}

// detect prefers the sniffed content type when it is one we handle, and falls
// back to the declared type otherwise.
func (n *Normalizer) detect(raw domain.RawImage) string {
	declared := canonicalMime(raw.MimeType)
	sniffed := canonicalMime(mimetype.Detect(raw.Data).String())
	if handled(sniffed) {
		if declared != "" && declared != sniffed {
			n.logger.Debug("normalize.Normalizer: declared mime type overridden by content",
				zap.String("declared", declared),
				zap.String("sniffed", sniffed),
			)
		}
		return sniffed
	}
	if declared == "" {
		return sniffed
	}
	return declared
}

func handled(kind string) bool {
	return kind == string(domain.MimePNG) || kind == string(domain.MimeJPEG) ||
		kind == string(domain.MimePDFPage) || convertible[kind]
}

func canonicalMime(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(s); err == nil {
		s = mt
	}
	if alias, ok := mimeAliases[s]; ok {
		return alias
	}
	return s
}

func checkRaster(data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return &domain.NormalizationError{Reason: "corrupt image", Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return &domain.NormalizationError{Reason: "image has no pixels"}
	}
	return nil
}

func toPNG(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &domain.NormalizationError{Reason: "corrupt image", Err: err}
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, &domain.NormalizationError{Reason: "encoding png", Err: err}
	}
	return buf.Bytes(), nil
}
