package ocr_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"erpverify/internal/domain"
	"erpverify/internal/ocr"
	"erpverify/internal/port"
	"erpverify/mocks"
)

func page(n int) domain.DocumentImage {
	return domain.DocumentImage{Data: []byte(fmt.Sprintf("page-%d", n)), MimeType: domain.MimePNG, Page: n}
}

func ocrResult(text string, conf float64) *port.OcrResult {
	return &port.OcrResult{
		Text:              text,
		RegionConfidences: []port.RegionConfidence{{Text: text, Confidence: conf}},
		MeanConfidence:    conf,
	}
}

func TestExtractor_JoinsPagesInOrder(t *testing.T) {
	engine := new(mocks.MockOcrEngine)
	engine.On("Name").Return("mock")
	engine.On("Recognize", mock.Anything, page(1)).Return(ocrResult("SALES QUOTE", 0.9), nil)
	engine.On("Recognize", mock.Anything, page(2)).Return(ocrResult("Total 1,250.00", 0.7), nil)
	engine.On("Recognize", mock.Anything, page(3)).Return(ocrResult("  ", 0), nil)

	ex := ocr.NewExtractor(engine, time.Second, 3, nil)

	tr, err := ex.ExtractText(context.Background(), []domain.DocumentImage{page(1), page(2), page(3)})

	require.NoError(t, err)
	assert.Equal(t, "SALES QUOTE\n\nTotal 1,250.00", tr.Text)
	assert.Len(t, tr.Pages, 3)
	assert.InDelta(t, 0.5333, tr.MeanConfidence, 0.001)
}

func TestExtractor_FailureIsOcrError(t *testing.T) {
	engine := new(mocks.MockOcrEngine)
	engine.On("Name").Return("mock")
	engine.On("Recognize", mock.Anything, page(1)).Return(nil, errors.New("tesseract crashed"))

	ex := ocr.NewExtractor(engine, time.Second, 1, nil)

	_, err := ex.ExtractText(context.Background(), []domain.DocumentImage{page(1)})

	var ocrErr *domain.OcrError
	require.ErrorAs(t, err, &ocrErr)
	assert.Equal(t, "page 1", ocrErr.Reason)
}

func TestExtractor_Timeout(t *testing.T) {
	engine := new(mocks.MockOcrEngine)
	engine.On("Name").Return("mock")
	engine.On("Recognize", mock.Anything, page(1)).
		Run(func(mock.Arguments) { time.Sleep(200 * time.Millisecond) }).
		Return(ocrResult("late", 1), nil)

	ex := ocr.NewExtractor(engine, 20*time.Millisecond, 1, nil)

	_, err := ex.ExtractText(context.Background(), []domain.DocumentImage{page(1)})

	var ocrErr *domain.OcrError
	require.ErrorAs(t, err, &ocrErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExtractor_DisabledEngine(t *testing.T) {
	ex := ocr.NewExtractor(nil, time.Second, 1, nil)

	_, err := ex.ExtractText(context.Background(), []domain.DocumentImage{page(1)})

	var ocrErr *domain.OcrError
	require.ErrorAs(t, err, &ocrErr)
	assert.Contains(t, err.Error(), "ocr disabled")
}

func TestExtractor_PDFPageWithoutTextLayer(t *testing.T) {
	engine := new(mocks.MockOcrEngine)
	engine.On("Name").Return("mock")
	ex := ocr.NewExtractor(engine, time.Second, 1, nil)

	_, err := ex.ExtractText(context.Background(), []domain.DocumentImage{
		{Data: blankPDF(), MimeType: domain.MimePDFPage, Page: 1},
	})

	var ocrErr *domain.OcrError
	require.ErrorAs(t, err, &ocrErr)
	engine.AssertNotCalled(t, "Recognize", mock.Anything, mock.Anything)
}

func TestReadPDFText_Malformed(t *testing.T) {
	_, err := ocr.ReadPDFText([]byte("not a pdf"))
	assert.Error(t, err)
}

func blankPDF() []byte {
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>",
	}
	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return b.Bytes()
}
