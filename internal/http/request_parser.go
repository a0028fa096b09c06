// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.

package http

import (
	"net/http"

	"expenses/internal/core"
)

// maxFormBytes bounds the size of an expense form body.
const maxFormBytes = 64 << 10

// ParseExpenseForm reads the amount, category and date fields from a
// submitted form. Values are sanitized but not validated.
func ParseExpenseForm(w http.ResponseWriter, r *http.Request) (core.ExpenseForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return core.ExpenseForm{}, err
	}
	return core.ExpenseForm{
		Amount:   sanitizeInput(r.PostForm.Get("amount")),
		Category: sanitizeInput(r.PostForm.Get("category")),
		Date:     sanitizeInput(r.PostForm.Get("date")),
	}, nil
}

// ParseMonthParam returns the optional month query parameter. The value
// is used as a date prefix as given.
func ParseMonthParam(r *http.Request) string {
	return sanitizeInput(r.URL.Query().Get("month"))
}

// PathID extracts the {id} path value. ok is false when it is not a
// positive integer.
func PathID(r *http.Request) (int64, bool) {
	return parseID(r.PathValue("id"))
}
