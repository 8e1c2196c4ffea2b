// Package store defines the ports the HTTP and live layers consume, plus the
// shared types and errors every adapter implements. Concrete adapters live in
// the sqlite and memory subpackages.
package store

import (
	"context"
	"errors"

	"fleetledger/internal/core"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already registered")
)

// User is an account credential record. Profile data lives separately in
// core.UserProfile.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Disabled     bool
}

// VehiclePatch carries a partial vehicle update; nil fields are untouched.
// An empty DriverPhone clears the stored value (persisted as absent, never
// as an empty string).
type VehiclePatch struct {
	Name        *string
	PlateNumber *string
	DriverPhone *string
	Status      *core.VehicleStatus
}

// ProfilePatch carries a partial profile update; nil fields are untouched.
type ProfilePatch struct {
	Name  *string
	Phone *string
	Email *string
}

type (
	VehicleStore interface {
		// ListVehicles returns the owner's vehicles ordered by name.
		ListVehicles(ctx context.Context, ownerID string) ([]core.Vehicle, error)
		CreateVehicle(ctx context.Context, ownerID string, v core.Vehicle) (id string, err error)
		UpdateVehicle(ctx context.Context, ownerID, id string, patch VehiclePatch) error
		DeleteVehicle(ctx context.Context, ownerID, id string) error
	}

	TransactionStore interface {
		// ListTransactions returns the owner's transactions ordered by date
		// descending. limit <= 0 means no cap; otherwise only the most
		// recent limit entries are returned.
		ListTransactions(ctx context.Context, ownerID string, limit int) ([]core.Transaction, error)
		CreateTransaction(ctx context.Context, ownerID string, t core.Transaction) (id string, err error)
		DeleteTransaction(ctx context.Context, ownerID, id string) error
	}

	CategoryStore interface {
		// ListCategories returns the owner's custom labels for the type, in
		// insertion order. Built-in labels are not stored.
		ListCategories(ctx context.Context, ownerID string, typ core.TransactionType) ([]string, error)
		AddCategory(ctx context.Context, ownerID string, typ core.TransactionType, label string) error
		RemoveCategory(ctx context.Context, ownerID string, typ core.TransactionType, label string) error
	}

	ProfileStore interface {
		GetProfile(ctx context.Context, id string) (core.UserProfile, error)
		UpdateProfile(ctx context.Context, id string, patch ProfilePatch) error
		// SetEmailVerified flips the re-verification flag set by email changes.
		SetEmailVerified(ctx context.Context, id string, verified bool) error
	}

	UserStore interface {
		CreateUser(ctx context.Context, u User) (id string, err error)
		UserByEmail(ctx context.Context, email string) (User, error)
		UserByID(ctx context.Context, id string) (User, error)
		UpdatePassword(ctx context.Context, id, passwordHash string) error
		UpdateEmail(ctx context.Context, id, email string) error
	}
)

// Store aggregates every port; both adapters satisfy it.
type Store interface {
	VehicleStore
	TransactionStore
	CategoryStore
	ProfileStore
	UserStore
}
