package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		err error
	}{
		{"1", "1", nil},
		{"5000", "5000", nil},
		{"1.23", "1.23", nil},
		{"1,23", "1.23", nil},
		{" 2.50 ", "2.5", nil},
		{"", "0", nil},
		{"0", "0", nil},
		{"+7", "7", nil},
		{"-1", "", ErrNegativeAmount},
		{"abc", "", ErrInvalidAmount},
		{"1.2.3", "", ErrInvalidAmount},
		{"1e3", "", ErrInvalidAmount},
		{"1 000", "", ErrInvalidAmount},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("%q expected %v, got %v", tc.in, tc.err, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q unexpected error: %v", tc.in, err)
		}
		if !got.Equal(decimal.RequireFromString(tc.out)) {
			t.Fatalf("%q expected %s, got %s", tc.in, tc.out, got)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(decimal.NewFromInt(5000)); got != "5000.00" {
		t.Fatalf("FormatAmount = %q", got)
	}
	if got := FormatDollars(decimal.RequireFromString("12.5")); got != "$12.5" {
		t.Fatalf("FormatDollars = %q", got)
	}
}
