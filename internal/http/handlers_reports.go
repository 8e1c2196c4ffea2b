package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"fleetledger/internal/auth"
	"fleetledger/internal/core"
	"fleetledger/internal/report"
)

type reportRowDTO struct {
	VehicleID   string   `json:"vehicleId"`
	VehicleName string   `json:"vehicleName"`
	Income      moneyDTO `json:"income"`
	Expenses    moneyDTO `json:"expenses"`
	Profit      moneyDTO `json:"profit"`
}

type reportTotalsDTO struct {
	Income   moneyDTO `json:"income"`
	Expenses moneyDTO `json:"expenses"`
	Profit   moneyDTO `json:"profit"`
}

type reportResponse struct {
	StartDate string          `json:"startDate"`
	EndDate   string          `json:"endDate"`
	Rows      []reportRowDTO  `json:"rows"`
	Totals    reportTotalsDTO `json:"totals"`
}

func toReportResponse(rng report.Range, rows []report.Row, totals report.Totals) reportResponse {
	resp := reportResponse{
		StartDate: rng.Start.String(),
		EndDate:   rng.End.String(),
		Rows:      make([]reportRowDTO, 0, len(rows)),
		Totals: reportTotalsDTO{
			Income:   toMoneyDTO(totals.Income),
			Expenses: toMoneyDTO(totals.Expenses),
			Profit:   toMoneyDTO(totals.Profit),
		},
	}
	for _, row := range rows {
		resp.Rows = append(resp.Rows, reportRowDTO{
			VehicleID:   row.VehicleID,
			VehicleName: row.VehicleName,
			Income:      toMoneyDTO(row.Income),
			Expenses:    toMoneyDTO(row.Expenses),
			Profit:      toMoneyDTO(row.Profit),
		})
	}
	return resp
}

// parseRange reads startDate/endDate query parameters, defaulting to the
// Monday-to-Sunday week containing today.
func parseRange(r *http.Request) (report.Range, error) {
	rng := report.WeekOf(time.Now())
	q := r.URL.Query()

	if v := strings.TrimSpace(q.Get("startDate")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return rng, err
		}
		rng.Start = d
	}
	if v := strings.TrimSpace(q.Get("endDate")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return rng, err
		}
		rng.End = d
	}
	if rng.End.Before(rng.Start.Time) {
		return rng, fmt.Errorf("end date before start date")
	}
	return rng, nil
}

func (s *Server) buildReport(r *http.Request, rng report.Range) ([]report.Row, report.Totals, error) {
	ownerID := auth.UserID(r.Context())

	vehicles, err := s.store.ListVehicles(r.Context(), ownerID)
	if err != nil {
		return nil, report.Totals{}, err
	}
	txs, err := s.store.ListTransactions(r.Context(), ownerID, 0)
	if err != nil {
		return nil, report.Totals{}, err
	}

	rows, totals := report.ForVehicles(txs, vehicles, rng)
	return rows, totals, nil
}

// handleWeeklyReport reports the current week, one row per vehicle.
func (s *Server) handleWeeklyReport(w http.ResponseWriter, r *http.Request) {
	rng := report.WeekOf(time.Now())
	rows, totals, err := s.buildReport(r, rng)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportResponse(rng, rows, totals))
}

// handleVehicleReport is the weekly report generalized to a caller-chosen
// date range.
func (s *Server) handleVehicleReport(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid range: "+err.Error())
		return
	}
	rows, totals, err := s.buildReport(r, rng)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportResponse(rng, rows, totals))
}

// handleWeeklyReportCSV streams the range's report as a CSV download.
func (s *Server) handleWeeklyReportCSV(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid range: "+err.Error())
		return
	}
	rows, totals, err := s.buildReport(r, rng)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", report.ExportContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.ExportFilename))
	if err := report.WriteCSV(w, rows, totals); err != nil {
		// Headers are already out; nothing useful left to send.
		return
	}
}

type monthTotalsDTO struct {
	Month    string   `json:"month"`
	Income   moneyDTO `json:"income"`
	Expenses moneyDTO `json:"expenses"`
	Profit   moneyDTO `json:"profit"`
}

// handleMonthlyReport summarizes the entire ledger month by month, newest
// last.
func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())

	txs, err := s.store.ListTransactions(r.Context(), ownerID, 0)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	summary := report.MonthlySummary(txs)
	keys := report.SortedMonthKeys(summary)

	out := make([]monthTotalsDTO, 0, len(keys))
	for _, key := range keys {
		mt := summary[key]
		out = append(out, monthTotalsDTO{
			Month:    key,
			Income:   toMoneyDTO(mt.Income),
			Expenses: toMoneyDTO(mt.Expenses),
			Profit:   toMoneyDTO(mt.Profit),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
