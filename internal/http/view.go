package http

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"safespend/internal/core"
)

// FirstSelectableYear is the oldest year offered by the prior-month picker.
const FirstSelectableYear = 2020

const (
	chartWidth   = 640
	chartHeight  = 240
	chartPadding = 32
)

// PageData feeds index.html.
type PageData struct {
	Title          string
	Subtitle       string
	CurrentMonth   string
	Months         []MonthOption
	Years          []int
	AdvisorEnabled bool
	LoadWarning    string
	History        HistoryView
}

// MonthOption is one entry of the month picker.
type MonthOption struct {
	Value    int
	Name     string
	Selected bool
}

// HistoryView feeds the "history" partial.
type HistoryView struct {
	Rows   []core.Snapshot
	Trends Chart
	Debt   Chart
}

// Empty reports whether there is nothing to show yet.
func (h HistoryView) Empty() bool { return len(h.Rows) == 0 }

// Chart is a line chart rendered as inline SVG.
type Chart struct {
	Title  string
	Width  int
	Height int
	Series []Series
	Ticks  []Tick
	Max    string
}

// Series is one polyline of a chart.
type Series struct {
	Name   string
	Class  string
	Points string
}

// Tick labels a point on the x axis.
type Tick struct {
	X     int
	Label string
}

// AdviceView feeds the "advice" partial.
type AdviceView struct {
	Goal string
	Plan string
}

// MonthOptions lists January..December, marking the month of now.
func MonthOptions(now time.Time) []MonthOption {
	out := make([]MonthOption, 0, 12)
	for m := time.January; m <= time.December; m++ {
		out = append(out, MonthOption{Value: int(m), Name: m.String(), Selected: m == now.Month()})
	}
	return out
}

// YearOptions lists the selectable years, newest first.
func YearOptions(now time.Time) []int {
	var years []int
	for y := now.Year(); y >= FirstSelectableYear; y-- {
		years = append(years, y)
	}
	return years
}

// NewHistoryView builds the table rows and both charts from snaps, which
// must already be sorted by month.
func NewHistoryView(snaps []core.Snapshot) HistoryView {
	v := HistoryView{Rows: snaps}
	if len(snaps) == 0 {
		return v
	}
	v.Trends = buildChart("Monthly Financial Trends", snaps,
		seriesSpec{"Income", "income", func(s core.Snapshot) decimal.Decimal { return s.Income }},
		seriesSpec{"Expenses", "expenses", func(s core.Snapshot) decimal.Decimal { return s.Expenses }},
		seriesSpec{"Savings", "savings", func(s core.Snapshot) decimal.Decimal { return s.Savings }},
	)
	v.Debt = buildChart("Debt Repayment Over Time", snaps,
		seriesSpec{"Debt Repayment", "debt", func(s core.Snapshot) decimal.Decimal { return s.DebtRepayment }},
	)
	return v
}

type seriesSpec struct {
	name  string
	class string
	value func(core.Snapshot) decimal.Decimal
}

func buildChart(title string, snaps []core.Snapshot, specs ...seriesSpec) Chart {
	top := decimal.Zero
	for _, s := range snaps {
		for _, spec := range specs {
			top = decimal.Max(top, spec.value(s))
		}
	}

	c := Chart{Title: title, Width: chartWidth, Height: chartHeight, Max: core.FormatAmount(top)}
	for i, s := range snaps {
		c.Ticks = append(c.Ticks, Tick{X: int(chartX(i, len(snaps))), Label: s.Month.FirstDay().Format("Jan 2006")})
	}
	for _, spec := range specs {
		pts := make([]string, 0, len(snaps))
		for i, s := range snaps {
			x := chartX(i, len(snaps))
			y := chartY(spec.value(s), top)
			pts = append(pts, formatCoord(x)+","+formatCoord(y))
		}
		c.Series = append(c.Series, Series{Name: spec.name, Class: spec.class, Points: strings.Join(pts, " ")})
	}
	return c
}

func chartX(i, n int) float64 {
	inner := float64(chartWidth - 2*chartPadding)
	if n <= 1 {
		return chartPadding + inner/2
	}
	return chartPadding + inner*float64(i)/float64(n-1)
}

func chartY(v, top decimal.Decimal) float64 {
	inner := float64(chartHeight - 2*chartPadding)
	bottom := float64(chartHeight - chartPadding)
	if !top.IsPositive() {
		return bottom
	}
	return bottom - inner*v.Div(top).InexactFloat64()
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', 1, 64)
}
