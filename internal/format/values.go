package format

import (
	"fmt"
	"strings"
	"time"
)

// Score formats a [0,1] score with three decimals.
func Score(v float64) string { return fmt.Sprintf("%.3f", v) }

// Percent formats a [0,1] value as a whole percentage.
func Percent(v float64) string { return fmt.Sprintf("%.0f%%", v*100) }

// Duration formats d as "Xm Ys", "Ys" or "Nms" for sub-second values.
func Duration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	s := int(d.Seconds())
	if s >= 60 {
		return fmt.Sprintf("%dm %ds", s/60, s%60)
	}
	return fmt.Sprintf("%ds", s)
}

// Truncate shortens s to at most maxRunes runes, ending in "..." when cut.
// Newlines are folded to spaces so the result fits in one table cell.
func Truncate(s string, maxRunes int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return string(r[:maxRunes])
	}
	return string(r[:maxRunes-3]) + "..."
}

// BoolMark returns "✓" for true and "✗" for false.
func BoolMark(v bool) string {
	if v {
		return "✓"
	}
	return "✗"
}
