// Package advisor builds prompts for the financial coach and normalizes the
// text it returns.
package advisor

import (
	"regexp"
	"strings"
)

var (
	markdownMarkers = strings.NewReplacer("*", "", "_", "", "`", "", "#", "", "~", "")
	blankLineRuns   = regexp.MustCompile(`\n{2,}`)
)

// Clean strips markdown punctuation from advisor output and normalizes line
// breaks. It is pure and idempotent:
//
//  1. every * _ ` # ~ is removed;
//  2. a line break sitting directly between two ASCII letters or digits is
//     deleted, re-joining words the model wrapped character by character;
//  3. runs of two or more line breaks become exactly one blank line;
//  4. surrounding whitespace is trimmed.
//
// Long runs of spaces are left alone.
func Clean(text string) string {
	text = markdownMarkers.Replace(text)
	text = joinWrappedLines(text)
	text = blankLineRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func joinWrappedLines(s string) string {
	if !strings.Contains(s, "\n") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' && i > 0 && i+1 < len(s) && isASCIIAlnum(s[i-1]) && isASCIIAlnum(s[i+1]) {
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isASCIIAlnum(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}
