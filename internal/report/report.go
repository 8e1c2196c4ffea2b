// Package report is the aggregation engine: pure, synchronous functions that
// turn in-memory transaction and vehicle snapshots into report-ready shapes.
// Nothing in this package touches storage or the network; callers hand in
// already-loaded slices and get deterministic output back. Empty input yields
// zero-valued output, never an error.
package report

import (
	"time"

	"fleetledger/internal/core"
)

// Row is the aggregated income/expenses/profit for one vehicle over a range.
type Row struct {
	VehicleID   string
	VehicleName string
	Income      core.Money
	Expenses    core.Money
	Profit      core.Money
}

// Totals is the element-wise sum across report rows.
type Totals struct {
	Income   core.Money
	Expenses core.Money
	Profit   core.Money
}

// Range is an inclusive calendar date range. The end bound extends to
// 23:59:59.999 of its day, so a transaction dated exactly on End is included.
type Range struct {
	Start core.Date
	End   core.Date
}

func (r Range) Contains(d core.Date) bool {
	if d.Before(r.Start.Time) {
		return false
	}
	return !d.After(r.End.EndOfDay())
}

// WeekOf returns the Monday-through-Sunday week containing t. The weekly
// report and its export default to this range.
func WeekOf(t time.Time) Range {
	d := core.DateOf(t)
	weekday := int(d.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday closes the week
	}
	start := core.DateOf(d.AddDate(0, 0, 1-weekday))
	end := core.DateOf(start.AddDate(0, 0, 6))
	return Range{Start: start, End: end}
}

// ForVehicles builds the per-vehicle report for the given range. Every
// vehicle appears exactly once, in input order, even with no matching
// transactions; the totals row is the element-wise sum of all rows.
func ForVehicles(txs []core.Transaction, vehicles []core.Vehicle, rng Range) ([]Row, Totals) {
	byVehicle := make(map[string]*Row, len(vehicles))
	rows := make([]Row, 0, len(vehicles))
	for _, v := range vehicles {
		rows = append(rows, Row{VehicleID: v.ID, VehicleName: v.DisplayName()})
		byVehicle[v.ID] = &rows[len(rows)-1]
	}

	for _, tx := range txs {
		if !rng.Contains(tx.Date) {
			continue
		}
		row, ok := byVehicle[tx.VehicleID]
		if !ok {
			// Transaction against a since-deleted vehicle; not reportable.
			continue
		}
		switch tx.Type {
		case core.Income:
			row.Income = row.Income.Add(tx.Amount)
		case core.Expense:
			row.Expenses = row.Expenses.Add(tx.Amount)
		}
	}

	var totals Totals
	for i := range rows {
		rows[i].Profit = rows[i].Income.Sub(rows[i].Expenses)
		totals.Income = totals.Income.Add(rows[i].Income)
		totals.Expenses = totals.Expenses.Add(rows[i].Expenses)
	}
	totals.Profit = totals.Income.Sub(totals.Expenses)
	return rows, totals
}

// DashboardTotals sums all-time income and expenses with no date filtering.
func DashboardTotals(txs []core.Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			t.Income = t.Income.Add(tx.Amount)
		case core.Expense:
			t.Expenses = t.Expenses.Add(tx.Amount)
		}
	}
	t.Profit = t.Income.Sub(t.Expenses)
	return t
}
