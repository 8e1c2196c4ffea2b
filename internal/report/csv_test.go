package report

import (
	"encoding/csv"
	"strings"
	"testing"

	"fleetledger/internal/core"
)

func TestWriteCSVRoundTrip(t *testing.T) {
	rows, totals := ForVehicles(sampleTransactions(), sampleVehicles(), january2024())

	var buf strings.Builder
	if err := WriteCSV(&buf, rows, totals); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("parse generated csv: %v", err)
	}
	if len(records) != 4 { // header + 2 vehicles + total
		t.Fatalf("expected 4 records, got %d", len(records))
	}
	header := records[0]
	want := []string{"Vehicle", "Total Income", "Total Expenses", "Net Profit"}
	for i := range want {
		if header[i] != want[i] {
			t.Fatalf("header column %d: expected %q, got %q", i, want[i], header[i])
		}
	}
	a := records[1]
	if a[0] != "Truck A (DHK-0001)" || a[1] != "500.00" || a[2] != "120.00" || a[3] != "380.00" {
		t.Fatalf("unexpected row A: %v", a)
	}
	total := records[3]
	if total[0] != "Total" || total[1] != "500.00" || total[2] != "120.00" || total[3] != "380.00" {
		t.Fatalf("unexpected total row: %v", total)
	}
}

func TestWriteCSVQuotesEveryField(t *testing.T) {
	var buf strings.Builder
	if err := WriteCSV(&buf, nil, Totals{}); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	for _, line := range strings.Split(buf.String(), "\n") {
		for _, field := range strings.Split(line, ",") {
			if !strings.HasPrefix(field, `"`) || !strings.HasSuffix(field, `"`) {
				t.Fatalf("field %q is not quoted", field)
			}
		}
	}
}

func TestWriteCSVEscapesEmbeddedQuotes(t *testing.T) {
	rows := []Row{{
		VehicleID:   "A",
		VehicleName: `The "Beast" (DHK-0001)`,
		Income:      core.Money{Cents: 100},
	}}

	var buf strings.Builder
	if err := WriteCSV(&buf, rows, Totals{Income: core.Money{Cents: 100}}); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"The ""Beast"" (DHK-0001)"`) {
		t.Fatalf("embedded quotes not doubled: %s", out)
	}

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("parse generated csv: %v", err)
	}
	if records[1][0] != `The "Beast" (DHK-0001)` {
		t.Fatalf("quote round-trip failed: %q", records[1][0])
	}
}

func TestWriteCSVEmptyReport(t *testing.T) {
	var buf strings.Builder
	if err := WriteCSV(&buf, nil, Totals{}); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("parse generated csv: %v", err)
	}
	if len(records) != 2 { // header + total only
		t.Fatalf("expected header and total rows, got %d records", len(records))
	}
	if records[1][0] != "Total" || records[1][1] != "0.00" {
		t.Fatalf("unexpected total row: %v", records[1])
	}
}
