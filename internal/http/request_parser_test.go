package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"expenses/internal/core"
)

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  food  ", "food"},
		{"fo\x00od", "food"},
		{"line\nbreak", "line\nbreak"},
		{"tab\there", "tab\there"},
		{"\x1b[31mred", "[31mred"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
		ok   bool
	}{
		{"1", 1, true},
		{"42", 42, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
		{"1.5", 0, false},
		{"", 0, false},
		{"99999999999999999999", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseID(tt.raw)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseID(%q) = %d, %v; want %d, %v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseExpenseForm(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/add?amount=999",
		strings.NewReader("amount=+12.5+&category=%20food%00&date=2024-01-05"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	got, err := ParseExpenseForm(httptest.NewRecorder(), req)
	if err != nil {
		t.Fatalf("ParseExpenseForm: %v", err)
	}
	want := core.ExpenseForm{Amount: "12.5", Category: "food", Date: "2024-01-05"}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestParseExpenseFormTooLarge(t *testing.T) {
	body := "category=" + strings.Repeat("a", maxFormBytes+1)
	req := httptest.NewRequest(http.MethodPost, "/add", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if _, err := ParseExpenseForm(httptest.NewRecorder(), req); err == nil {
		t.Fatal("expected error for oversized body")
	}
}

func TestParseMonthParam(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/chart-data?month=%202024-01%20", nil)
	if got := ParseMonthParam(req); got != "2024-01" {
		t.Fatalf("ParseMonthParam = %q", got)
	}
	req = httptest.NewRequest(http.MethodGet, "/chart-data", nil)
	if got := ParseMonthParam(req); got != "" {
		t.Fatalf("ParseMonthParam without value = %q", got)
	}
}
