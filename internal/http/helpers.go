package http

import (
	"html/template"
	"strings"

	"github.com/shopspring/decimal"

	"safespend/internal/core"
)

var templateFuncs = template.FuncMap{
	"amount": func(d decimal.Decimal) string { return core.FormatAmount(d) },
	"monthLabel": func(m core.Month) string {
		return m.Label()
	},
}

// sanitizeInput removes control characters and trims whitespace. Tabs and
// line breaks survive so a multi-line goal keeps its shape.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}
