package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MonthLayout is the serialized form of a month: its first day.
const MonthLayout = "2006-01-02"

type (
	// Month identifies a calendar month. Day and time components never
	// take part in comparisons.
	Month struct {
		Year  int
		Month time.Month
	}

	// Amounts are the four monthly figures entered by the user.
	Amounts struct {
		Income        decimal.Decimal
		Expenses      decimal.Decimal
		Savings       decimal.Decimal
		DebtRepayment decimal.Decimal
	}

	// Snapshot is one row of the record store.
	Snapshot struct {
		Month Month
		Amounts
	}

	// AdviceRequest carries the inputs for a single advice call.
	AdviceRequest struct {
		Amounts
		Goal string
	}
)

var (
	ErrInvalidMonth   = errors.New("invalid month")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrNegativeAmount = errors.New("amounts must not be negative")
	ErrEmptyGoal      = errors.New("financial goal is required")
	ErrDuplicateMonth = errors.New("month already recorded")
)

// NewMonth builds a Month, rejecting out of range values.
func NewMonth(year int, month time.Month) (Month, error) {
	if month < time.January || month > time.December {
		return Month{}, fmt.Errorf("%w: month %d", ErrInvalidMonth, month)
	}
	if year < 1 || year > 9999 {
		return Month{}, fmt.Errorf("%w: year %d", ErrInvalidMonth, year)
	}
	return Month{Year: year, Month: month}, nil
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// Key is the canonical comparison key: year*12 + zero-based month.
func (m Month) Key() int {
	return m.Year*12 + int(m.Month) - 1
}

// IsZero reports whether m is the zero Month.
func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// Before reports whether m is earlier than other.
func (m Month) Before(other Month) bool {
	return m.Key() < other.Key()
}

// FirstDay returns midnight UTC on the first day of the month.
func (m Month) FirstDay() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// String renders the month as its first day, e.g. 2024-03-01.
func (m Month) String() string {
	return m.FirstDay().Format(MonthLayout)
}

// Label renders the month for people, e.g. March 2024.
func (m Month) Label() string {
	return m.FirstDay().Format("January 2006")
}

// monthLayouts lists every representation accepted when reading a month back.
// Older data files may carry a time component on the first of the month.
var monthLayouts = []string{
	MonthLayout,
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01",
}

// ParseMonth accepts any of the known month layouts and normalizes the result.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Month{}, fmt.Errorf("%w: empty", ErrInvalidMonth)
	}
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return MonthOf(t), nil
		}
	}
	return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
}

// Validate rejects negative figures.
func (a Amounts) Validate() error {
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"income", a.Income},
		{"expenses", a.Expenses},
		{"savings", a.Savings},
		{"debt repayment", a.DebtRepayment},
	}
	for _, f := range fields {
		if f.value.IsNegative() {
			return fmt.Errorf("%w: %s is %s", ErrNegativeAmount, f.name, f.value.String())
		}
	}
	return nil
}

// Equal compares all four figures numerically.
func (a Amounts) Equal(other Amounts) bool {
	return a.Income.Equal(other.Income) &&
		a.Expenses.Equal(other.Expenses) &&
		a.Savings.Equal(other.Savings) &&
		a.DebtRepayment.Equal(other.DebtRepayment)
}

func (s Snapshot) Validate() error {
	if s.Month.IsZero() {
		return fmt.Errorf("%w: zero month", ErrInvalidMonth)
	}
	return s.Amounts.Validate()
}

// Equal compares the normalized month and all figures.
func (s Snapshot) Equal(other Snapshot) bool {
	return s.Month.Key() == other.Month.Key() && s.Amounts.Equal(other.Amounts)
}

// ContainsMonth reports whether any snapshot covers m.
func ContainsMonth(snaps []Snapshot, m Month) bool {
	key := m.Key()
	for _, s := range snaps {
		if s.Month.Key() == key {
			return true
		}
	}
	return false
}

// SortedByMonth returns a copy of snaps ordered by month ascending.
func SortedByMonth(snaps []Snapshot) []Snapshot {
	out := make([]Snapshot, len(snaps))
	copy(out, snaps)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Month.Before(out[j].Month)
	})
	return out
}

// HasGoal reports whether the request carries a non-blank goal.
func (r AdviceRequest) HasGoal() bool {
	return strings.TrimSpace(r.Goal) != ""
}
