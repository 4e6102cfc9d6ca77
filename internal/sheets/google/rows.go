package google

import (
	"fmt"
	"strings"

	"safespend/internal/core"
)

// headerRow mirrors the data file header so the sheet reads the same.
var headerRow = []any{"Month", "Income", "Expenses", "Savings", "Debt Repayment"}

// snapshotRow renders s as sheet cells. Amounts go out as plain decimal
// strings; with USER_ENTERED the sheet parses them as numbers.
func snapshotRow(s core.Snapshot) []any {
	return []any{
		s.Month.String(),
		s.Income.String(),
		s.Expenses.String(),
		s.Savings.String(),
		s.DebtRepayment.String(),
	}
}

// isHeader reports whether row looks like the mirror header.
func isHeader(row []any) bool {
	if len(row) < len(headerRow) {
		return false
	}
	for i, want := range headerRow {
		if !strings.EqualFold(strings.TrimSpace(fmt.Sprint(row[i])), want.(string)) {
			return false
		}
	}
	return true
}

// a1Range builds an A1 range, quoting the sheet name when it needs it.
func a1Range(sheet, cells string) string {
	sheet = strings.TrimSpace(sheet)
	if strings.ContainsAny(sheet, " '!:") {
		sheet = "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	}
	return sheet + "!" + cells
}
