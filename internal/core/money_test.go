package core

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in      string
		out     float64
		wantErr error
	}{
		{"1", 1, nil},
		{"12.50", 12.5, nil},
		{" 2.25 ", 2.25, nil},
		{"1e3", 1000, nil},
		{"0.01", 0.01, nil},
		{"abc", 0, ErrInvalidAmount},
		{"", 0, ErrInvalidAmount},
		{"1.2.3", 0, ErrInvalidAmount},
		{"NaN", 0, ErrInvalidAmount},
		{"inf", 0, ErrInvalidAmount},
		{"1e400", 0, ErrInvalidAmount},
		{"12,50", 0, ErrInvalidAmount},
		{"0", 0, ErrNonPositiveAmount},
		{"-5", 0, ErrNonPositiveAmount},
		{"-0.01", 0, ErrNonPositiveAmount},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.wantErr != nil {
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("%q expected %v, got %v", tc.in, tc.wantErr, err)
			}
			continue
		}
		if err != nil || got != tc.out {
			t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(15); got != "15.00" {
		t.Fatalf("FormatAmount(15) = %q", got)
	}
	if got := FormatAmount(0.125); got != "0.12" && got != "0.13" {
		t.Fatalf("FormatAmount(0.125) = %q", got)
	}
}
