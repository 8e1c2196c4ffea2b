package http

import (
	"net/http"
	"strings"

	"fleetledger/internal/auth"
	"fleetledger/internal/core"
)

func categoryType(r *http.Request) (core.TransactionType, bool) {
	typ := core.TransactionType(strings.TrimSpace(r.URL.Query().Get("type")))
	if typ.Validate() != nil {
		return "", false
	}
	return typ, true
}

// handleListCategories returns built-in labels followed by the owner's
// custom labels for the requested type.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())

	typ, ok := categoryType(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "type must be income or expense")
		return
	}

	custom, err := s.store.ListCategories(r.Context(), ownerID, typ)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	builtin := core.BuiltinIncomeCategories
	if typ == core.Expense {
		builtin = core.BuiltinExpenseCategories
	}

	out := make([]string, 0, len(builtin)+len(custom))
	out = append(out, builtin...)
	out = append(out, custom...)
	writeJSON(w, http.StatusOK, map[string]any{
		"type":       string(typ),
		"categories": out,
	})
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())

	var req struct {
		Type  string `json:"type"`
		Label string `json:"label"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	typ := core.TransactionType(req.Type)
	if err := typ.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}
	label, err := core.NormalizeCategory(sanitizeInput(req.Label))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if err := s.store.AddCategory(r.Context(), ownerID, typ, label); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"type": string(typ), "label": label})
}

func (s *Server) handleRemoveCategory(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())

	typ, ok := categoryType(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "type must be income or expense")
		return
	}
	label := strings.TrimSpace(r.URL.Query().Get("label"))
	if label == "" {
		writeError(w, http.StatusBadRequest, "label is required")
		return
	}

	if err := s.store.RemoveCategory(r.Context(), ownerID, typ, label); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
