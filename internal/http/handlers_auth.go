package http

import (
	"log/slog"
	"net/http"

	"fleetledger/internal/auth"
)

type sessionResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

func (s *Server) writeSession(w http.ResponseWriter, sess auth.Session) {
	auth.SetSessionCookie(w, sess.Token, int(s.auth.SessionTTL().Seconds()))
	writeJSON(w, http.StatusOK, sessionResponse{
		Token:  sess.Token,
		UserID: sess.UserID,
		Name:   sess.Name,
	})
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	sess, err := s.auth.SignUp(r.Context(), sanitizeInput(req.Name), sanitizeInput(req.Email), req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	slog.InfoContext(r.Context(), "account created", "user_id", sess.UserID)
	s.writeSession(w, sess)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	sess, err := s.auth.SignIn(r.Context(), sanitizeInput(req.Email), req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.writeSession(w, sess)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	if err := s.auth.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		writeDomainError(w, err)
		return
	}

	slog.InfoContext(r.Context(), "password changed", "user_id", userID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}

// handleChangeEmail re-authenticates with the current password; the new
// address starts unverified.
func (s *Server) handleChangeEmail(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req struct {
		Password string `json:"password"`
		NewEmail string `json:"newEmail"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	if err := s.auth.ChangeEmail(r.Context(), userID, req.Password, sanitizeInput(req.NewEmail)); err != nil {
		writeDomainError(w, err)
		return
	}

	slog.InfoContext(r.Context(), "email changed", "user_id", userID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "email changed, verification required"})
}
