// Package export renders verification results as CSV and XLSX reports.
package export

import (
	"strconv"
	"strings"
	"time"

	"erpverify/internal/domain"
)

// discrepancyColumns is the header of the per-discrepancy report.
var discrepancyColumns = []string{
	"Job No",
	"Document ID",
	"Document Type",
	"State",
	"Field",
	"Document Value",
	"ERP Value",
	"Severity",
	"Discrepancy Type",
	"Description",
	"Field Confidence",
	"Overall Confidence",
	"Completed At",
}

// summaryColumns is the header of the per-result report.
var summaryColumns = []string{
	"Run ID",
	"Job No",
	"Document ID",
	"Document Type",
	"Classification Confidence",
	"State",
	"Discrepancies",
	"High",
	"Medium",
	"Low",
	"Overall Confidence",
	"Error",
	"Notes",
	"Model",
	"Started At",
	"Completed At",
}

// discrepancyRows returns one row per discrepancy. A result without
// discrepancies still gets one row with the field columns left empty.
func discrepancyRows(res *domain.VerificationResult) [][]string {
	confidences := make(map[string]float64, len(res.FieldConfidences))
	for _, fc := range res.FieldConfidences {
		confidences[fc.FieldName] = fc.Confidence
	}

	base := func() []string {
		row := make([]string, len(discrepancyColumns))
		row[0] = res.JobNo
		row[1] = res.DocumentID
		row[2] = string(res.DocumentType)
		row[3] = string(res.State)
		row[11] = formatConfidence(res.OverallVerificationConfidence)
		row[12] = formatTime(res.CompletedAt)
		return row
	}

	if len(res.Discrepancies) == 0 {
		return [][]string{base()}
	}
	rows := make([][]string, 0, len(res.Discrepancies))
	for _, d := range res.Discrepancies {
		row := base()
		row[4] = d.FieldName
		row[5] = d.DocumentValue
		row[6] = d.ErpValue
		row[7] = strings.ToUpper(string(d.Severity))
		row[8] = string(d.Type)
		row[9] = domain.TrimmedOrEmpty(d.Description)
		if c, ok := confidences[d.FieldName]; ok {
			row[10] = formatConfidence(c)
		}
		rows = append(rows, row)
	}
	return rows
}

func summaryRow(res *domain.VerificationResult) []string {
	counts := res.CountBySeverity()
	return []string{
		res.ID.String(),
		res.JobNo,
		res.DocumentID,
		string(res.DocumentType),
		formatConfidence(res.ClassificationConfidence),
		string(res.State),
		strconv.Itoa(len(res.Discrepancies)),
		strconv.Itoa(counts[domain.SeverityHigh]),
		strconv.Itoa(counts[domain.SeverityMedium]),
		strconv.Itoa(counts[domain.SeverityLow]),
		formatConfidence(res.OverallVerificationConfidence),
		domain.TrimmedOrEmpty(res.ErrorMessage),
		strings.Join(res.Notes, "; "),
		res.ModelUsed,
		formatTime(res.StartedAt),
		formatTime(res.CompletedAt),
	}
}

func formatConfidence(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
