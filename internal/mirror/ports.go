// Package mirror defines the outbound port for publishing the weekly report
// to an external sheet.
package mirror

import (
	"context"

	"fleetledger/internal/report"
)

// ReportMirror replaces the mirrored weekly report for one account with the
// given rows and totals.
type ReportMirror interface {
	WriteWeeklyReport(ctx context.Context, ownerID string, rows []report.Row, totals report.Totals) error
}
