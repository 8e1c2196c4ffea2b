// Package worker recomputes and mirrors the weekly report whenever an
// account's ledger changes.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fleetledger/internal/events"
	"fleetledger/internal/mirror"
	"fleetledger/internal/report"
	"fleetledger/internal/store"
)

// ReportWorker consumes change events, rebuilds the current week's report for
// the affected account, and pushes it to the configured mirror.
type ReportWorker struct {
	vehicles     store.VehicleStore
	transactions store.TransactionStore
	mirror       mirror.ReportMirror
	now          func() time.Time
}

func NewReportWorker(vehicles store.VehicleStore, transactions store.TransactionStore, m mirror.ReportMirror) *ReportWorker {
	return &ReportWorker{
		vehicles:     vehicles,
		transactions: transactions,
		mirror:       m,
		now:          time.Now,
	}
}

// HandleChange rebuilds the mirrored weekly report for the event's owner. The
// event only says which account changed; current state comes from the store.
func (w *ReportWorker) HandleChange(ctx context.Context, ev *events.ChangeEvent) error {
	slog.InfoContext(ctx, "processing change event",
		"entity", ev.Entity,
		"action", ev.Action,
		"owner_id", ev.OwnerID)

	if ev.OwnerID == "" {
		return fmt.Errorf("change event missing owner id")
	}

	vehicles, err := w.vehicles.ListVehicles(ctx, ev.OwnerID)
	if err != nil {
		return fmt.Errorf("list vehicles: %w", err)
	}

	transactions, err := w.transactions.ListTransactions(ctx, ev.OwnerID, 0)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}

	week := report.WeekOf(w.now())
	rows, totals := report.ForVehicles(transactions, vehicles, week)

	if err := w.mirror.WriteWeeklyReport(ctx, ev.OwnerID, rows, totals); err != nil {
		return fmt.Errorf("mirror weekly report: %w", err)
	}

	slog.InfoContext(ctx, "mirrored weekly report for account",
		"owner_id", ev.OwnerID,
		"vehicles", len(rows),
		"week_start", week.Start.Format("2006-01-02"))

	return nil
}
