// Package dashboard renders indicator rows for the terminal: value
// formatting, colour grading and table, JSON and summary output.
package dashboard

import (
	"fmt"
	"strings"

	"github.com/guregu/null/v5"

	"moodcycle/internal/domain"
)

// Undefined is how a value with no data is rendered.
const Undefined = "-"

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	start := len(s) % 3
	if start > 0 {
		b.WriteString(s[:start])
	}
	for i := start; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatValue renders one indicator cell: counts with separators, other
// values with two decimals, undefined as "-".
func FormatValue(c domain.Column, v null.Float) string {
	if !v.Valid {
		return Undefined
	}
	if c.Kind == domain.KindCount {
		return FormatInt(int(v.Float64))
	}
	return fmt.Sprintf("%.2f", v.Float64)
}

// FormatPercent renders a rate as "X.XX%", or "-" when undefined.
func FormatPercent(v null.Float) string {
	if !v.Valid {
		return Undefined
	}
	return fmt.Sprintf("%.2f%%", v.Float64)
}
