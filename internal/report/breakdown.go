package report

import (
	"sort"
	"time"

	"fleetledger/internal/core"
)

// CategoryAmount is one slice of the category breakdown.
type CategoryAmount struct {
	Name   string
	Amount core.Money
}

// MonthPoint is one bar of the trailing twelve-month chart.
type MonthPoint struct {
	Key      string // "YYYY-MM"
	Income   core.Money
	Expenses core.Money
}

// trailingMonthKeys lists the 12 month keys ending at now's month, oldest
// first.
func trailingMonthKeys(now time.Time) []string {
	keys := make([]string, 0, 12)
	anchor := time.Date(now.UTC().Year(), now.UTC().Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := 11; i >= 0; i-- {
		keys = append(keys, core.MonthKeyOf(anchor.AddDate(0, -i, 0)))
	}
	return keys
}

// MonthlySeries buckets transactions into the trailing 12 calendar months
// anchored at now. Months with no activity stay in the series with zero
// values; older transactions are dropped.
func MonthlySeries(txs []core.Transaction, now time.Time) []MonthPoint {
	keys := trailingMonthKeys(now)
	index := make(map[string]int, len(keys))
	series := make([]MonthPoint, len(keys))
	for i, k := range keys {
		series[i] = MonthPoint{Key: k}
		index[k] = i
	}
	for _, tx := range txs {
		i, ok := index[tx.Date.MonthKey()]
		if !ok {
			continue
		}
		switch tx.Type {
		case core.Income:
			series[i].Income = series[i].Income.Add(tx.Amount)
		case core.Expense:
			series[i].Expenses = series[i].Expenses.Add(tx.Amount)
		}
	}
	return series
}

// CategoryBreakdown accumulates per-category sums over the same trailing
// 12-month window, split by transaction type. Categories without activity in
// the window are absent, unlike the per-vehicle report which zero-pads.
// Output is sorted by descending amount with the name as tiebreak so the
// resulting pie slices are stable.
func CategoryBreakdown(txs []core.Transaction, now time.Time) (income, expense []CategoryAmount) {
	window := make(map[string]struct{}, 12)
	for _, k := range trailingMonthKeys(now) {
		window[k] = struct{}{}
	}

	incomeSums := make(map[string]core.Money)
	expenseSums := make(map[string]core.Money)
	for _, tx := range txs {
		if _, ok := window[tx.Date.MonthKey()]; !ok {
			continue
		}
		switch tx.Type {
		case core.Income:
			incomeSums[tx.Category] = incomeSums[tx.Category].Add(tx.Amount)
		case core.Expense:
			expenseSums[tx.Category] = expenseSums[tx.Category].Add(tx.Amount)
		}
	}
	return sortedCategories(incomeSums), sortedCategories(expenseSums)
}

func sortedCategories(sums map[string]core.Money) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(sums))
	for name, amount := range sums {
		out = append(out, CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}
