package core

import (
	"errors"
	"math"
	"strings"
)

// MonthLength is the number of characters in the YYYY-MM prefix of a date.
const MonthLength = 7

type (
	// Expense is one persisted spending record. Date is kept as opaque
	// text and is never parsed as a calendar date.
	Expense struct {
		ID       int64
		Amount   float64
		Category string
		Date     string // YYYY-MM-DD by convention
	}

	// ExpenseInput is the validated payload for inserts and updates.
	ExpenseInput struct {
		Amount   float64
		Category string
		Date     string
	}

	// ExpenseForm carries the raw submitted field values.
	ExpenseForm struct {
		Amount   string
		Category string
		Date     string
	}
)

var (
	ErrMissingFields     = errors.New("missing required fields")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrExpenseNotFound   = errors.New("expense not found")
)

// Month returns the YYYY-MM prefix of the date. Short dates yield
// whatever prefix exists.
func (e Expense) Month() string {
	return MonthOf(e.Date)
}

// Input returns the writable fields of the expense.
func (e Expense) Input() ExpenseInput {
	return ExpenseInput{Amount: e.Amount, Category: e.Category, Date: e.Date}
}

// MonthOf returns the first seven characters of a date string, matching
// SQLite's substr(date, 1, 7).
func MonthOf(date string) string {
	n := 0
	for i := range date {
		if n == MonthLength {
			return date[:i]
		}
		n++
	}
	return date
}

// Validate checks the write-time invariants of an input.
func (in ExpenseInput) Validate() error {
	if strings.TrimSpace(in.Category) == "" || strings.TrimSpace(in.Date) == "" {
		return ErrMissingFields
	}
	if math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) {
		return ErrInvalidAmount
	}
	if in.Amount <= 0 {
		return ErrNonPositiveAmount
	}
	return nil
}

// Parse validates the raw form and converts it into an ExpenseInput.
// Presence is checked on every field before the amount is parsed.
func (f ExpenseForm) Parse() (ExpenseInput, error) {
	amount := strings.TrimSpace(f.Amount)
	category := strings.TrimSpace(f.Category)
	date := strings.TrimSpace(f.Date)

	if amount == "" || category == "" || date == "" {
		return ExpenseInput{}, ErrMissingFields
	}

	value, err := ParseAmount(amount)
	if err != nil {
		return ExpenseInput{}, err
	}

	return ExpenseInput{Amount: value, Category: category, Date: date}, nil
}

// ValidationMessage returns the user-facing notice for a validation error,
// or an empty string when err is not a validation failure.
func ValidationMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingFields):
		return "All fields are required."
	case errors.Is(err, ErrInvalidAmount):
		return "Invalid amount. Please enter a number."
	case errors.Is(err, ErrNonPositiveAmount):
		return "Amount must be a positive number."
	default:
		return ""
	}
}
