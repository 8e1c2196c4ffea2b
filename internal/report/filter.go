package report

import (
	"strings"

	"fleetledger/internal/core"
)

// CategoryAll is the sentinel that disables the category clause.
const CategoryAll = "all"

// Filter is the recent-transactions table filter. It is independent of the
// report Range above: it narrows the listing, never the totals. Zero-valued
// fields mean "no bound" and trivially match.
type Filter struct {
	Start    core.Date // inclusive; zero = unbounded
	End      core.Date // inclusive (end of day); zero = unbounded
	Category string    // exact match; "" or "all" matches everything
	Min      core.Money // minimum amount; zero = unbounded
	Max      core.Money // maximum amount; zero = unbounded
	Search   string    // case-insensitive substring of vehicle name or notes
}

// Matches reports whether the transaction satisfies every active clause.
func (f Filter) Matches(tx core.Transaction) bool {
	if !f.Start.IsZero() && tx.Date.Before(f.Start.Time) {
		return false
	}
	if !f.End.IsZero() && tx.Date.After(f.End.EndOfDay()) {
		return false
	}
	if f.Category != "" && f.Category != CategoryAll && tx.Category != f.Category {
		return false
	}
	if f.Min.Cents > 0 && tx.Amount.Cents < f.Min.Cents {
		return false
	}
	if f.Max.Cents > 0 && tx.Amount.Cents > f.Max.Cents {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(tx.VehicleName), needle) &&
			!strings.Contains(strings.ToLower(tx.Notes), needle) {
			return false
		}
	}
	return true
}

// Apply returns the transactions matching the filter, preserving input order.
func Apply(f Filter, txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Matches(tx) {
			out = append(out, tx)
		}
	}
	return out
}
