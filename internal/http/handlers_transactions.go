package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"fleetledger/internal/auth"
	"fleetledger/internal/core"
	"fleetledger/internal/events"
	"fleetledger/internal/report"
)

type transactionDTO struct {
	ID          string `json:"id"`
	VehicleID   string `json:"vehicleId"`
	VehicleName string `json:"vehicleName"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amountCents"`
	Date        string `json:"date"`
	Notes       string `json:"notes,omitempty"`
}

func toTransactionDTO(t core.Transaction) transactionDTO {
	return transactionDTO{
		ID:          t.ID,
		VehicleID:   t.VehicleID,
		VehicleName: t.VehicleName,
		Type:        string(t.Type),
		Category:    t.Category,
		Amount:      t.Amount.Format(),
		AmountCents: t.Amount.Cents,
		Date:        t.Date.String(),
		Notes:       t.Notes,
	}
}

// parseFilter reads the listing filter from query parameters. Absent
// parameters leave the corresponding clause unbounded.
func parseFilter(r *http.Request) (report.Filter, error) {
	q := r.URL.Query()
	var f report.Filter

	if v := strings.TrimSpace(q.Get("startDate")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return f, err
		}
		f.Start = d
	}
	if v := strings.TrimSpace(q.Get("endDate")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return f, err
		}
		f.End = d
	}
	f.Category = strings.TrimSpace(q.Get("category"))
	if v := strings.TrimSpace(q.Get("minAmount")); v != "" {
		cents, err := core.ParseDecimalToCents(v)
		if err != nil {
			return f, err
		}
		f.Min = core.Money{Cents: cents}
	}
	if v := strings.TrimSpace(q.Get("maxAmount")); v != "" {
		cents, err := core.ParseDecimalToCents(v)
		if err != nil {
			return f, err
		}
		f.Max = core.Money{Cents: cents}
	}
	f.Search = strings.TrimSpace(q.Get("search"))

	return f, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())

	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid filter: "+err.Error())
		return
	}

	limit := 0
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	// Filter first, then cap: "the 10 most recent matching" rather than
	// "matching among the 10 most recent".
	txs, err := s.store.ListTransactions(r.Context(), ownerID, 0)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	txs = report.Apply(filter, txs)
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}

	out := make([]transactionDTO, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionDTO(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())

	var req struct {
		VehicleID string `json:"vehicleId"`
		Type      string `json:"type"`
		Category  string `json:"category"`
		Amount    string `json:"amount"`
		Date      string `json:"date"`
		Notes     string `json:"notes"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	cents, err := core.ParseDecimalToCents(strings.TrimSpace(req.Amount))
	if err != nil {
		writeDomainError(w, core.ErrInvalidAmount)
		return
	}
	date, err := core.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	// The vehicle name is frozen onto the transaction at creation time, so
	// listings survive later renames and deletes.
	vehicles, err := s.store.ListVehicles(r.Context(), ownerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	vehicleName := ""
	for _, v := range vehicles {
		if v.ID == req.VehicleID {
			vehicleName = v.DisplayName()
			break
		}
	}
	if vehicleName == "" {
		writeDomainError(w, core.ErrMissingVehicle)
		return
	}

	tx := core.Transaction{
		VehicleID:   req.VehicleID,
		VehicleName: vehicleName,
		Type:        core.TransactionType(req.Type),
		Category:    sanitizeInput(req.Category),
		Amount:      core.Money{Cents: cents},
		Date:        date,
		Notes:       sanitizeInput(req.Notes),
	}
	if err := tx.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	id, err := s.store.CreateTransaction(r.Context(), ownerID, tx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	tx.ID = id

	slog.InfoContext(r.Context(), "transaction created",
		"transaction_id", id,
		"owner_id", ownerID,
		"type", tx.Type,
		"amount_cents", tx.Amount.Cents)
	s.notifyChange(r.Context(), ownerID, events.EntityTransaction, events.ActionCreated, id)
	writeJSON(w, http.StatusCreated, toTransactionDTO(tx))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())
	id := r.PathValue("id")

	if err := s.store.DeleteTransaction(r.Context(), ownerID, id); err != nil {
		writeDomainError(w, err)
		return
	}

	slog.InfoContext(r.Context(), "transaction deleted", "transaction_id", id, "owner_id", ownerID)
	s.notifyChange(r.Context(), ownerID, events.EntityTransaction, events.ActionDeleted, id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
