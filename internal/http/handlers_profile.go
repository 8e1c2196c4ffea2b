package http

import (
	"log/slog"
	"net/http"

	"fleetledger/internal/auth"
	"fleetledger/internal/core"
	"fleetledger/internal/store"
)

type profileDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
}

func toProfileDTO(p core.UserProfile) profileDTO {
	return profileDTO{
		ID:            p.ID,
		Name:          p.Name,
		Phone:         p.Phone,
		Email:         p.Email,
		EmailVerified: p.EmailVerified,
	}
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	profile, err := s.store.GetProfile(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(profile))
}

// handleUpdateProfile changes name and phone. Email changes go through the
// auth endpoint because they need password re-authentication.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req struct {
		Name  *string `json:"name"`
		Phone *string `json:"phone"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	patch := store.ProfilePatch{}
	if req.Name != nil {
		name := sanitizeInput(*req.Name)
		if name == "" {
			writeDomainError(w, core.ErrEmptyName)
			return
		}
		patch.Name = &name
	}
	if req.Phone != nil {
		phone := sanitizeInput(*req.Phone)
		patch.Phone = &phone
	}

	if err := s.store.UpdateProfile(r.Context(), userID, patch); err != nil {
		writeDomainError(w, err)
		return
	}

	profile, err := s.store.GetProfile(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(profile))
}

// handleVerifyEmail marks the current address verified. Delivery of the
// verification mail happens out of band; this endpoint records the outcome.
func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	if err := s.store.SetEmailVerified(r.Context(), userID, true); err != nil {
		writeDomainError(w, err)
		return
	}

	slog.InfoContext(r.Context(), "email verified", "user_id", userID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}
