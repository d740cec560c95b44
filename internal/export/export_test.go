package export_test

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"erpverify/internal/domain"
	"erpverify/internal/export"
)

func results() []domain.VerificationResult {
	completed := time.Date(2026, 3, 1, 10, 0, 5, 0, time.UTC)
	return []domain.VerificationResult{
		{
			ID:                       uuid.MustParse("5a0d5f42-9f0b-4c5c-8a55-2a7e3f9b1c01"),
			JobNo:                    "J-100",
			DocumentID:               "doc-1",
			DocumentType:             domain.DocumentTypeSalesQuote,
			ClassificationConfidence: 0.95,
			Discrepancies: []domain.Discrepancy{
				{
					FieldName:     "Total_Price_LCY",
					DocumentValue: "1200.00",
					ErpValue:      "1000.00",
					Severity:      domain.SeverityHigh,
					Type:          domain.DiscrepancyValueMismatch,
					Description:   domain.StringPtr("Sales Quote vs ERP Mismatch"),
				},
				{
					FieldName: "Customer_Name",
					ErpValue:  "ACME, Inc.",
					Severity:  domain.SeverityMedium,
					Type:      domain.DiscrepancyMissingInDocument,
				},
			},
			FieldConfidences: []domain.FieldConfidence{
				{FieldName: "Total_Price_LCY", Confidence: 0.9},
			},
			OverallVerificationConfidence: 0.41,
			State:                         domain.StateCompleted,
			CompletedAt:                   completed,
		},
		{
			ID:           uuid.MustParse("5a0d5f42-9f0b-4c5c-8a55-2a7e3f9b1c02"),
			JobNo:        "J-101",
			DocumentType: domain.DocumentTypeUnknown,
			State:        domain.StateFailed,
			ErrorMessage: domain.StringPtr("verification cancelled"),
			CompletedAt:  completed,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, results()))

	raw := buf.Bytes()
	require.True(t, bytes.HasPrefix(raw, export.BOM))

	rows, err := csv.NewReader(bytes.NewReader(raw[len(export.BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, "Job No", rows[0][0])
	assert.Equal(t, "Completed At", rows[0][len(rows[0])-1])

	assert.Equal(t, []string{
		"J-100", "doc-1", "SalesQuote", "COMPLETED",
		"Total_Price_LCY", "1200.00", "1000.00", "HIGH", "VALUE_MISMATCH",
		"Sales Quote vs ERP Mismatch", "0.9000", "0.4100", "2026-03-01T10:00:05Z",
	}, rows[1])
	assert.Equal(t, "ACME, Inc.", rows[2][6])
	assert.Empty(t, rows[2][10])

	// a result without discrepancies still appears once
	assert.Equal(t, "J-101", rows[3][0])
	assert.Equal(t, "FAILED", rows[3][3])
	assert.Empty(t, rows[3][4])
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, nil))

	rows, err := csv.NewReader(bytes.NewReader(buf.Bytes()[len(export.BOM):])).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteXLSX(&buf, results()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{export.SummarySheet, export.DiscrepanciesSheet}, f.GetSheetList())

	summary, err := f.GetRows(export.SummarySheet)
	require.NoError(t, err)
	require.Len(t, summary, 3)
	assert.Equal(t, "Run ID", summary[0][0])
	assert.Equal(t, "J-100", summary[1][1])
	assert.Equal(t, "2", summary[1][6])
	assert.Equal(t, "1", summary[1][7])
	assert.Equal(t, "1", summary[1][8])
	assert.Equal(t, "verification cancelled", summary[2][11])

	details, err := f.GetRows(export.DiscrepanciesSheet)
	require.NoError(t, err)
	require.Len(t, details, 4)
	assert.Equal(t, "Total_Price_LCY", details[1][4])
	assert.Equal(t, "HIGH", details[1][7])
	assert.Equal(t, "MEDIUM", details[2][7])
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want export.Format
		ok   bool
	}{
		{"", export.FormatCSV, true},
		{"CSV", export.FormatCSV, true},
		{" xlsx ", export.FormatXLSX, true},
		{"pdf", "", false},
	}
	for _, tt := range tests {
		got, ok := export.ParseFormat(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	assert.Equal(t, "text/csv; charset=utf-8", export.FormatCSV.ContentType())
	assert.Contains(t, export.FormatXLSX.ContentType(), "spreadsheetml")
}

func TestBuildFilename(t *testing.T) {
	assert.Equal(t, "J-100_Q3_run_abc.csv", export.BuildFilename("J-100", "Q3 run/abc", export.FormatCSV))
	assert.Equal(t, "verification_x.xlsx", export.BuildFilename("  ", "x", export.FormatXLSX))
	assert.Equal(t, "a_b", export.SanitizeFilename("__a!!!b__"))
}
