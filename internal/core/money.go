package core

import (
	"math"
	"strconv"
	"strings"
)

// ParseAmount converts a decimal string into a positive amount.
//
// Surrounding whitespace is ignored. Non-numeric input, NaN and infinities
// return ErrInvalidAmount; zero and negative values return
// ErrNonPositiveAmount.
//
// Examples:
//
//	ParseAmount("12.5")  -> 12.5, nil
//	ParseAmount("1e3")   -> 1000, nil
//	ParseAmount("abc")   -> 0, ErrInvalidAmount
//	ParseAmount("-5")    -> 0, ErrNonPositiveAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidAmount
	}
	if v <= 0 {
		return 0, ErrNonPositiveAmount
	}
	return v, nil
}

// FormatAmount renders an amount with two decimals for display.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
