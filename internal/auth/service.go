// Package auth owns account credentials and session tokens: bcrypt password
// hashes, HS256 JWT sessions carried in an HttpOnly cookie (or Bearer
// header), and the middleware that gates protected routes.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fleetledger/internal/core"
	"fleetledger/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidSession     = errors.New("invalid session")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
)

// Service implements sign-up, sign-in and credential changes over the user
// store. Tokens are stateless; sign-out is the client dropping its cookie.
type Service struct {
	users      store.UserStore
	profiles   store.ProfileStore
	secret     string
	sessionTTL time.Duration
}

func NewService(users store.UserStore, profiles store.ProfileStore, secret string, sessionTTL time.Duration) *Service {
	return &Service{users: users, profiles: profiles, secret: secret, sessionTTL: sessionTTL}
}

// Session is the result of a successful sign-up or sign-in.
type Session struct {
	Token  string
	UserID string
	Name   string
}

func (s *Service) SignUp(ctx context.Context, name, email, password string) (Session, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" {
		return Session{}, core.ErrEmptyName
	}
	if err := core.ValidateEmail(email); err != nil {
		return Session{}, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return Session{}, err
	}

	id, err := s.users.CreateUser(ctx, store.User{Email: email, PasswordHash: hash, Name: name})
	if err != nil {
		return Session{}, err
	}
	slog.InfoContext(ctx, "Account created", "user_id", id)
	return s.issue(id, name)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	u, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Same failure as a wrong password; do not leak which one it was.
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("look up user: %w", err)
	}
	if !CheckPassword(u.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	if u.Disabled {
		return Session{}, ErrAccountDisabled
	}
	slog.InfoContext(ctx, "User signed in", "user_id", u.ID)
	return s.issue(u.ID, u.Name)
}

// ChangePassword re-checks the current credential before accepting the new
// one, mirroring the re-authentication step of the settings flow.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	u, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("look up user: %w", err)
	}
	if !CheckPassword(u.PasswordHash, currentPassword) {
		return ErrInvalidCredentials
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	slog.InfoContext(ctx, "Password changed", "user_id", userID)
	return nil
}

// ChangeEmail updates the credential email and marks the profile unverified
// until the address is confirmed again.
func (s *Service) ChangeEmail(ctx context.Context, userID, password, newEmail string) error {
	newEmail = strings.TrimSpace(strings.ToLower(newEmail))
	if err := core.ValidateEmail(newEmail); err != nil {
		return err
	}
	u, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("look up user: %w", err)
	}
	if !CheckPassword(u.PasswordHash, password) {
		return ErrInvalidCredentials
	}
	if err := s.users.UpdateEmail(ctx, userID, newEmail); err != nil {
		return err
	}
	if err := s.profiles.UpdateProfile(ctx, userID, store.ProfilePatch{Email: &newEmail}); err != nil {
		return fmt.Errorf("update profile email: %w", err)
	}
	slog.InfoContext(ctx, "Email changed, re-verification required", "user_id", userID)
	return nil
}

// Verify parses a session token and confirms the account is still usable.
func (s *Service) Verify(ctx context.Context, token string) (string, error) {
	userID, err := ParseSessionToken(token, s.secret)
	if err != nil {
		return "", err
	}
	u, err := s.users.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidSession
		}
		return "", fmt.Errorf("look up user: %w", err)
	}
	if u.Disabled {
		return "", ErrAccountDisabled
	}
	return userID, nil
}

func (s *Service) issue(userID, name string) (Session, error) {
	token, err := CreateSessionToken(userID, name, s.secret, s.sessionTTL)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, UserID: userID, Name: name}, nil
}

// SessionTTL is exposed so the HTTP layer can align cookie expiry.
func (s *Service) SessionTTL() time.Duration {
	return s.sessionTTL
}
