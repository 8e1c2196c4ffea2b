package core

import (
	"errors"
	"fmt"
	"strings"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	StatusActive      VehicleStatus = "Active"
	StatusMaintenance VehicleStatus = "Maintenance"
	StatusInactive    VehicleStatus = "Inactive"
)

type (
	TransactionType string

	VehicleStatus string

	Vehicle struct {
		ID          string
		Name        string
		PlateNumber string
		DriverPhone string // empty means not provided
		Status      VehicleStatus
	}

	Transaction struct {
		ID          string
		VehicleID   string
		VehicleName string // copied from the vehicle at creation time
		Type        TransactionType
		Category    string
		Amount      Money
		Date        Date
		Notes       string
	}

	UserProfile struct {
		ID            string
		Name          string
		Phone         string
		Email         string
		EmailVerified bool
	}
)

// Built-in categories always offered alongside user-defined ones.
var (
	BuiltinIncomeCategories  = []string{"Daily Submission"}
	BuiltinExpenseCategories = []string{"Charging Fee", "Maintenance Fee", "Custom Expense"}
)

var (
	ErrInvalidType    = errors.New("invalid transaction type")
	ErrInvalidStatus  = errors.New("invalid vehicle status")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrEmptyName      = errors.New("empty name")
	ErrEmptyPlate     = errors.New("empty plate number")
	ErrEmptyCategory  = errors.New("empty category")
	ErrMissingVehicle = errors.New("missing vehicle reference")
	ErrInvalidEmail   = errors.New("invalid email address")
)

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	}
	return ErrInvalidType
}

func (s VehicleStatus) Validate() error {
	switch s {
	case StatusActive, StatusMaintenance, StatusInactive:
		return nil
	}
	return ErrInvalidStatus
}

func (v Vehicle) Validate() error {
	if strings.TrimSpace(v.Name) == "" {
		return ErrEmptyName
	}
	if len(v.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if strings.TrimSpace(v.PlateNumber) == "" {
		return ErrEmptyPlate
	}
	return v.Status.Validate()
}

// DisplayName is the label used in tables and reports.
func (v Vehicle) DisplayName() string {
	return fmt.Sprintf("%s (%s)", v.Name, v.PlateNumber)
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.VehicleID) == "" {
		return ErrMissingVehicle
	}
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	// Amount is positive regardless of type; income vs expense is carried
	// by the Type field, never by the sign.
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Notes) > 500 {
		return errors.New("notes too long (max 500 characters)")
	}
	return nil
}

// NormalizeCategory trims a user-supplied category label.
func NormalizeCategory(label string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", ErrEmptyCategory
	}
	if len(label) > 60 {
		return "", errors.New("category too long (max 60 characters)")
	}
	return label, nil
}

// ValidateEmail performs the same lightweight shape check the sign-up form does.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return ErrInvalidEmail
	}
	if !strings.Contains(email[at+1:], ".") {
		return ErrInvalidEmail
	}
	return nil
}
