package advisor

import (
	"fmt"
	"strings"
	"time"

	"safespend/internal/core"
)

// DateLayout is how the as-of date appears in the prompt.
const DateLayout = "January 02, 2006"

// SystemMessage frames the model's role for every request.
const SystemMessage = "You are a financial advisor providing actionable advice."

// BuildPrompt interpolates the user's figures, goal and the current date into
// the coaching template.
func BuildPrompt(req core.AdviceRequest, asOf time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "As of %s, I earn %s per month and spend %s. ",
		asOf.Format(DateLayout), core.FormatDollars(req.Income), core.FormatDollars(req.Expenses))
	fmt.Fprintf(&b, "I have %s in savings and owe %s in debt. ",
		core.FormatDollars(req.Savings), core.FormatDollars(req.DebtRepayment))
	fmt.Fprintf(&b, "My financial goal is: %s. ", strings.TrimSpace(req.Goal))
	b.WriteString("You are a financial coach that gives helpful, non-judgmental, beginner-friendly advice. ")
	b.WriteString("Based on this, provide a financial plan including budgeting strategies, savings tips, and investment recommendations. ")
	b.WriteString("Please format your response in clear paragraphs with correct spacing and punctuation. ")
	b.WriteString("Avoid markdown formatting.")
	return b.String()
}
