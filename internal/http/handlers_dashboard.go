package http

import (
	"net/http"
	"time"

	"fleetledger/internal/auth"
	"fleetledger/internal/core"
	"fleetledger/internal/report"
)

type moneyDTO struct {
	Amount string `json:"amount"`
	Cents  int64  `json:"cents"`
}

func toMoneyDTO(m core.Money) moneyDTO {
	return moneyDTO{Amount: m.Format(), Cents: m.Cents}
}

type dashboardStats struct {
	TotalIncome   moneyDTO `json:"totalIncome"`
	TotalExpenses moneyDTO `json:"totalExpenses"`
	NetProfit     moneyDTO `json:"netProfit"`
	VehicleCount  int      `json:"vehicleCount"`
	ActiveCount   int      `json:"activeVehicleCount"`
}

type monthPointDTO struct {
	Month    string   `json:"month"`
	Income   moneyDTO `json:"income"`
	Expenses moneyDTO `json:"expenses"`
}

type categoryAmountDTO struct {
	Category string   `json:"category"`
	Total    moneyDTO `json:"total"`
}

type dashboardChart struct {
	Months            []monthPointDTO     `json:"months"`
	IncomeByCategory  []categoryAmountDTO `json:"incomeByCategory"`
	ExpenseByCategory []categoryAmountDTO `json:"expenseByCategory"`
}

// handleDashboardStats returns all-time totals plus the fleet headcount.
// Responses are cached per owner and invalidated on mutation.
func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())

	cacheKey := ownerID + ":stats"
	if stats, ok := s.statsCache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, stats)
		return
	}

	txs, err := s.store.ListTransactions(r.Context(), ownerID, 0)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	vehicles, err := s.store.ListVehicles(r.Context(), ownerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	totals := report.DashboardTotals(txs)
	active := 0
	for _, v := range vehicles {
		if v.Status == core.StatusActive {
			active++
		}
	}

	stats := dashboardStats{
		TotalIncome:   toMoneyDTO(totals.Income),
		TotalExpenses: toMoneyDTO(totals.Expenses),
		NetProfit:     toMoneyDTO(totals.Profit),
		VehicleCount:  len(vehicles),
		ActiveCount:   active,
	}
	s.statsCache.Set(cacheKey, stats)
	writeJSON(w, http.StatusOK, stats)
}

// handleDashboardChart returns the trailing-twelve-months series and the
// per-category breakdown over the same window.
func (s *Server) handleDashboardChart(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())

	cacheKey := ownerID + ":chart"
	if chart, ok := s.chartCache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, chart)
		return
	}

	txs, err := s.store.ListTransactions(r.Context(), ownerID, 0)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	now := time.Now()
	series := report.MonthlySeries(txs, now)
	income, expense := report.CategoryBreakdown(txs, now)

	chart := dashboardChart{
		Months:            make([]monthPointDTO, 0, len(series)),
		IncomeByCategory:  make([]categoryAmountDTO, 0, len(income)),
		ExpenseByCategory: make([]categoryAmountDTO, 0, len(expense)),
	}
	for _, p := range series {
		chart.Months = append(chart.Months, monthPointDTO{
			Month:    p.Key,
			Income:   toMoneyDTO(p.Income),
			Expenses: toMoneyDTO(p.Expenses),
		})
	}
	for _, c := range income {
		chart.IncomeByCategory = append(chart.IncomeByCategory, categoryAmountDTO{
			Category: c.Name,
			Total:    toMoneyDTO(c.Amount),
		})
	}
	for _, c := range expense {
		chart.ExpenseByCategory = append(chart.ExpenseByCategory, categoryAmountDTO{
			Category: c.Name,
			Total:    toMoneyDTO(c.Amount),
		})
	}

	s.chartCache.Set(cacheKey, chart)
	writeJSON(w, http.StatusOK, chart)
}
