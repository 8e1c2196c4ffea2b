package report

import (
	"sort"
	"testing"

	"fleetledger/internal/core"
)

func TestMonthlySummaryScenario(t *testing.T) {
	summary := MonthlySummary(sampleTransactions())

	if len(summary) != 2 {
		t.Fatalf("expected 2 months, got %d", len(summary))
	}
	jan, ok := summary["2024-01"]
	if !ok {
		t.Fatalf("missing 2024-01")
	}
	if jan.Income.Cents != 50000 || jan.Expenses.Cents != 12000 || jan.Profit.Cents != 38000 {
		t.Fatalf("unexpected january totals: %+v", jan)
	}
	feb := summary["2024-02"]
	if feb.Income.Cents != 30000 || feb.Expenses.Cents != 0 || feb.Profit.Cents != 30000 {
		t.Fatalf("unexpected february totals: %+v", feb)
	}
}

func TestMonthlySummaryEmpty(t *testing.T) {
	if got := MonthlySummary(nil); len(got) != 0 {
		t.Fatalf("expected empty summary, got %v", got)
	}
}

func TestMonthlySummaryKeysAreValid(t *testing.T) {
	summary := MonthlySummary(sampleTransactions())
	for key := range summary {
		if len(key) != 7 || key[4] != '-' {
			t.Fatalf("malformed month key %q", key)
		}
	}
}

func TestSortedMonthKeysChronological(t *testing.T) {
	txs := []core.Transaction{
		{VehicleID: "A", Type: core.Income, Amount: core.Money{Cents: 1}, Date: core.NewDate(2023, 12, 1)},
		{VehicleID: "A", Type: core.Income, Amount: core.Money{Cents: 1}, Date: core.NewDate(2024, 2, 1)},
		{VehicleID: "A", Type: core.Income, Amount: core.Money{Cents: 1}, Date: core.NewDate(2024, 1, 1)},
	}
	keys := SortedMonthKeys(MonthlySummary(txs))
	want := []string{"2023-12", "2024-01", "2024-02"}
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %d", len(want), len(keys))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], keys[i])
		}
	}
	if !sort.StringsAreSorted(keys) {
		t.Fatalf("keys not sorted: %v", keys)
	}
}
