package report

import (
	"fmt"
	"io"
	"strings"
)

// ExportFilename is the download name of the weekly report.
const ExportFilename = "weekly_report.csv"

// ExportContentType is the MIME type sent with the CSV download.
const ExportContentType = "text/csv;charset=utf-8"

var csvHeader = []string{"Vehicle", "Total Income", "Total Expenses", "Net Profit"}

// WriteCSV serializes the per-vehicle report followed by a final Total row.
// Every field is double-quoted with embedded quotes doubled, which is what
// the consuming spreadsheet templates expect; encoding/csv quotes only when
// forced, so the writer is explicit here. Amounts use fixed two-decimal
// formatting to match the rest of the UI.
func WriteCSV(w io.Writer, rows []Row, totals Totals) error {
	records := make([][]string, 0, len(rows)+2)
	records = append(records, csvHeader)
	for _, row := range rows {
		records = append(records, []string{
			row.VehicleName,
			row.Income.Format(),
			row.Expenses.Format(),
			row.Profit.Format(),
		})
	}
	records = append(records, []string{
		"Total",
		totals.Income.Format(),
		totals.Expenses.Format(),
		totals.Profit.Format(),
	})

	for i, record := range records {
		quoted := make([]string, len(record))
		for j, field := range record {
			quoted[j] = `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
		}
		line := strings.Join(quoted, ",")
		if i < len(records)-1 {
			line += "\n"
		}
		if _, err := io.WriteString(w, line); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	return nil
}
