// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.
// Every form on the page posts the four monthly figures; the parsers here turn
// them into domain values with field-level error messages.

package http

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"safespend/internal/core"
)

// Form field names shared by the templates and the parsers.
const (
	FieldIncome   = "income"
	FieldExpenses = "expenses"
	FieldSavings  = "savings"
	FieldDebt     = "debt"
	FieldPeriod   = "period"
	FieldMonth    = "month"
	FieldYear     = "year"
	FieldGoal     = "goal"
)

// PeriodPrior selects the month/year pickers instead of the current month.
const PeriodPrior = "prior"

// maxGoalLength caps the free-text goal sent to the advisor, in characters.
const maxGoalLength = 1000

// ErrGoalTooLong rejects a goal over maxGoalLength characters.
var ErrGoalTooLong = errors.New("goal too long")

// FieldError names the form field that failed to parse.
type FieldError struct {
	Field string
	Label string
	Err   error
}

func (e *FieldError) Error() string {
	switch {
	case errors.Is(e.Err, core.ErrNegativeAmount):
		return e.Label + " must not be negative."
	case errors.Is(e.Err, core.ErrInvalidMonth):
		return e.Label + " is not a valid month."
	case errors.Is(e.Err, ErrGoalTooLong):
		return e.Label + " must be at most " + strconv.Itoa(maxGoalLength) + " characters."
	default:
		return e.Label + " must be a number."
	}
}

func (e *FieldError) Unwrap() error { return e.Err }

var amountFields = []struct {
	name  string
	label string
}{
	{FieldIncome, "Monthly Income ($)"},
	{FieldExpenses, "Total Monthly Expenses ($)"},
	{FieldSavings, "Current Savings ($)"},
	{FieldDebt, "Total Debt ($)"},
}

// ParseAmountsForm reads the four monthly figures. Blank fields are zero.
func ParseAmountsForm(form url.Values) (core.Amounts, error) {
	var a core.Amounts
	for _, f := range amountFields {
		d, err := core.ParseAmount(sanitizeInput(form.Get(f.name)))
		if err != nil {
			return core.Amounts{}, &FieldError{Field: f.name, Label: f.label, Err: err}
		}
		switch f.name {
		case FieldIncome:
			a.Income = d
		case FieldExpenses:
			a.Expenses = d
		case FieldSavings:
			a.Savings = d
		case FieldDebt:
			a.DebtRepayment = d
		}
	}
	return a, nil
}

// ParseMonthField resolves the target month of a save and reports whether
// one was chosen explicitly. A "YYYY-MM" month is used as is. The prior-month
// period pairs a numeric month (1-12) with year. Otherwise the month of now
// applies.
func ParseMonthField(form url.Values, now time.Time) (core.Month, bool, error) {
	rawMonth := sanitizeInput(form.Get(FieldMonth))
	rawYear := sanitizeInput(form.Get(FieldYear))
	if strings.Contains(rawMonth, "-") {
		m, err := core.ParseMonth(rawMonth)
		if err != nil {
			return core.Month{}, true, &FieldError{Field: FieldMonth, Label: "Select Month", Err: err}
		}
		return m, true, nil
	}
	if strings.TrimSpace(form.Get(FieldPeriod)) != PeriodPrior {
		return core.MonthOf(now), false, nil
	}

	month, err := strconv.Atoi(rawMonth)
	if err != nil {
		return core.Month{}, true, &FieldError{Field: FieldMonth, Label: "Select Month", Err: core.ErrInvalidMonth}
	}
	year, err := strconv.Atoi(rawYear)
	if err != nil {
		return core.Month{}, true, &FieldError{Field: FieldYear, Label: "Select Year", Err: core.ErrInvalidMonth}
	}
	m, err := core.NewMonth(year, time.Month(month))
	if err != nil {
		return core.Month{}, true, &FieldError{Field: FieldMonth, Label: "Select Month", Err: err}
	}
	return m, true, nil
}

// ParseAdviceForm reads the figures and the goal for an advice request.
// A blank goal is returned as is; the session decides how to answer it.
func ParseAdviceForm(form url.Values) (core.AdviceRequest, error) {
	amounts, err := ParseAmountsForm(form)
	if err != nil {
		return core.AdviceRequest{}, err
	}
	goal := sanitizeInput(form.Get(FieldGoal))
	if utf8.RuneCountInString(goal) > maxGoalLength {
		return core.AdviceRequest{}, &FieldError{Field: FieldGoal, Label: "Financial Goal", Err: ErrGoalTooLong}
	}
	return core.AdviceRequest{Amounts: amounts, Goal: goal}, nil
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format.")
	}
	return nil
}
