package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"erpverify/internal/domain"
)

const (
	SummarySheet       = "Summary"
	DiscrepanciesSheet = "Discrepancies"
)

var severityFill = map[string]string{
	"HIGH":   "F8CBAD",
	"MEDIUM": "FFE699",
	"LOW":    "E2EFDA",
}

// WriteXLSX writes a workbook with a summary sheet (one row per result) and
// a discrepancies sheet (one row per discrepancy).
func WriteXLSX(out io.Writer, results []domain.VerificationResult) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		return fmt.Errorf("export.WriteXLSX: %w", err)
	}
	if _, err := f.NewSheet(DiscrepanciesSheet); err != nil {
		return fmt.Errorf("export.WriteXLSX: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9E1F2"}},
	})
	if err != nil {
		return fmt.Errorf("export.WriteXLSX: header style: %w", err)
	}
	fills := make(map[string]int, len(severityFill))
	for sev, color := range severityFill {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
		})
		if err != nil {
			return fmt.Errorf("export.WriteXLSX: severity style: %w", err)
		}
		fills[sev] = id
	}

	summary := make([][]string, 0, len(results))
	var details [][]string
	for i := range results {
		summary = append(summary, summaryRow(&results[i]))
		details = append(details, discrepancyRows(&results[i])...)
	}

	if err := writeSheet(f, SummarySheet, summaryColumns, summary, headerStyle); err != nil {
		return err
	}
	if err := writeSheet(f, DiscrepanciesSheet, discrepancyColumns, details, headerStyle); err != nil {
		return err
	}

	// severity column of the discrepancies sheet
	for i, row := range details {
		style, ok := fills[row[7]]
		if !ok {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(8, i+2)
		if err != nil {
			return fmt.Errorf("export.WriteXLSX: %w", err)
		}
		if err := f.SetCellStyle(DiscrepanciesSheet, cell, cell, style); err != nil {
			return fmt.Errorf("export.WriteXLSX: %w", err)
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(out); err != nil {
		return fmt.Errorf("export.WriteXLSX: writing workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]string, headerStyle int) error {
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return fmt.Errorf("export.WriteXLSX: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", headerStyle); err != nil {
		return fmt.Errorf("export.WriteXLSX: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", last, 18); err != nil {
		return fmt.Errorf("export.WriteXLSX: %w", err)
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("export.WriteXLSX: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("export.WriteXLSX: %w", err)
	}
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &row); err != nil {
		return fmt.Errorf("export.WriteXLSX: %s row %d: %w", sheet, rowNum, err)
	}
	return nil
}
