package http

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"safespend/internal/core"
)

func TestParseAmountsForm(t *testing.T) {
	a, err := ParseAmountsForm(url.Values{
		"income":   {" 5000 "},
		"expenses": {"1234,50"},
		"savings":  {""},
		"debt":     {"2000.25"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := core.Amounts{
		Income:        decimal.NewFromInt(5000),
		Expenses:      decimal.RequireFromString("1234.5"),
		Savings:       decimal.Zero,
		DebtRepayment: decimal.RequireFromString("2000.25"),
	}
	if !a.Equal(want) {
		t.Fatalf("got %+v, want %+v", a, want)
	}
}

func TestParseAmountsFormNamesField(t *testing.T) {
	_, err := ParseAmountsForm(url.Values{"savings": {"-1"}})
	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FieldError, got %v", err)
	}
	if fe.Field != FieldSavings || !errors.Is(err, core.ErrNegativeAmount) {
		t.Fatalf("unexpected field error %+v", fe)
	}
}

func TestParseMonthField(t *testing.T) {
	now := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name         string
		form         url.Values
		want         core.Month
		wantExplicit bool
		wantErr      bool
	}{
		{"empty form", url.Values{}, core.Month{Year: 2024, Month: time.March}, false, false},
		{"pickers without prior", url.Values{"month": {"2"}, "year": {"2021"}}, core.Month{Year: 2024, Month: time.March}, false, false},
		{"prior", url.Values{"period": {"prior"}, "month": {"2"}, "year": {"2021"}}, core.Month{Year: 2021, Month: time.February}, true, false},
		{"year-month", url.Values{"month": {"2022-07"}}, core.Month{Year: 2022, Month: time.July}, true, false},
		{"first day", url.Values{"month": {"2022-07-01"}}, core.Month{Year: 2022, Month: time.July}, true, false},
		{"bad year-month", url.Values{"month": {"2022-13"}}, core.Month{}, true, true},
		{"prior without year", url.Values{"period": {"prior"}, "month": {"2"}}, core.Month{}, true, true},
		{"prior month zero", url.Values{"period": {"prior"}, "month": {"0"}, "year": {"2021"}}, core.Month{}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, explicit, err := ParseMonthField(tt.form, now)
			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidMonth) {
					t.Fatalf("expected ErrInvalidMonth, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want || explicit != tt.wantExplicit {
				t.Fatalf("got %v explicit=%v, want %v explicit=%v", got, explicit, tt.want, tt.wantExplicit)
			}
		})
	}
}

func TestParseAdviceForm(t *testing.T) {
	atLimit := strings.Repeat("é", maxGoalLength)
	req, err := ParseAdviceForm(url.Values{"income": {"10"}, "goal": {"  " + atLimit + "\x00"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Goal != atLimit {
		t.Fatalf("goal changed: %d runes", len([]rune(req.Goal)))
	}
	if !req.Income.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("income = %s", req.Income)
	}

	_, err = ParseAdviceForm(url.Values{"goal": {atLimit + "a"}})
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != FieldGoal || !errors.Is(err, ErrGoalTooLong) {
		t.Fatalf("expected goal FieldError, got %v", err)
	}
	if want := "Financial Goal must be at most 1000 characters."; fe.Error() != want {
		t.Fatalf("message = %q, want %q", fe.Error(), want)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  plain  ", "plain"},
		{"a\x00b\x07c", "abc"},
		{"line one\nline two", "line one\nline two"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
