package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// SessionCookie is the name of the HttpOnly cookie carrying the session
// token. The token is also accepted as a Bearer header for API clients.
const SessionCookie = "fleetledger_session"

type contextKey string

const userIDKey contextKey = "user_id"

// UserID returns the authenticated account ID placed by Middleware, or ""
// on an unguarded path.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// Middleware gates protected routes. Browser requests without a valid
// session are redirected to the login view; API requests get 401 JSON. An
// expired token is treated as a forced sign-out: the cookie is cleared
// before redirecting.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			s.reject(w, r, ErrInvalidSession)
			return
		}
		userID, err := s.Verify(r.Context(), token)
		if err != nil {
			slog.DebugContext(r.Context(), "Session rejected", "error", err, "path", r.URL.Path)
			s.reject(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func (s *Service) reject(w http.ResponseWriter, r *http.Request, err error) {
	ClearSessionCookie(w)
	if wantsHTML(r) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	msg := "authentication required"
	if errors.Is(err, ErrSessionExpired) {
		msg = "session expired, sign in again"
	} else if errors.Is(err, ErrAccountDisabled) {
		msg = ErrAccountDisabled.Error()
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// wantsHTML distinguishes browser navigation from API calls.
func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// SetSessionCookie installs the session token as an HttpOnly cookie.
func SetSessionCookie(w http.ResponseWriter, token string, maxAgeSeconds int) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAgeSeconds,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie removes the session cookie (sign-out).
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
