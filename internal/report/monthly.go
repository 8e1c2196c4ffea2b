package report

import (
	"sort"

	"fleetledger/internal/core"
)

// MonthTotals holds one calendar month of the monthly summary.
type MonthTotals struct {
	Income   core.Money
	Expenses core.Money
	Profit   core.Money
}

// MonthlySummary partitions the full transaction history by "YYYY-MM" key.
// It deliberately ignores any selected report range: the summary spans
// everything the ledger remembers.
func MonthlySummary(txs []core.Transaction) map[string]MonthTotals {
	monthly := make(map[string]MonthTotals)
	for _, tx := range txs {
		key := tx.Date.MonthKey()
		mt := monthly[key]
		switch tx.Type {
		case core.Income:
			mt.Income = mt.Income.Add(tx.Amount)
		case core.Expense:
			mt.Expenses = mt.Expenses.Add(tx.Amount)
		}
		mt.Profit = mt.Income.Sub(mt.Expenses)
		monthly[key] = mt
	}
	return monthly
}

// SortedMonthKeys returns the summary's keys oldest first. A plain string
// sort is chronological because the keys are zero-padded "YYYY-MM".
func SortedMonthKeys(summary map[string]MonthTotals) []string {
	keys := make([]string, 0, len(summary))
	for k := range summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
