// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from form and
// file input into decimal values and rendering them back for display.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string to a non-negative amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. A blank
// string is zero, matching an untouched numeric field. Signs, exponents,
// thousands separators and any other characters are rejected.
//
// Examples:
//
//	ParseAmount("5000")    -> 5000, nil
//	ParseAmount("1234,50") -> 1234.5, nil
//	ParseAmount("")        -> 0, nil
//	ParseAmount("-1")      -> 0, ErrNegativeAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrNegativeAmount
	}
	s = strings.TrimPrefix(s, "+")
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 || s == "." {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders an amount with two decimals, e.g. 5000.00.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatDollars renders an amount for prompts and labels, e.g. $5000.
func FormatDollars(d decimal.Decimal) string {
	return "$" + d.String()
}
