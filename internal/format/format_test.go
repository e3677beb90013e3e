package format_test

import (
	"strings"
	"testing"
	"time"

	"dealscout/internal/format"
)

func TestASCII_TableWithTitle(t *testing.T) {
	tb := format.NewTable(format.ASCII)
	tb.Title("Scores")
	tb.Header("Component", "Score")
	tb.Row("market", format.Score(0.835))
	tb.Row("competitor", format.Score(0.875))
	out := tb.String()

	for _, want := range []string{"Scores", "Component", "0.835", "0.875", "─"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if tb.Len() != 2 {
		t.Errorf("Len: %d", tb.Len())
	}
}

func TestMarkdown_Table(t *testing.T) {
	tb := format.NewTable(format.Markdown)
	tb.Title("ignored in markdown")
	tb.Header("Key", "Status")
	tb.Row("market_size", "success")
	out := tb.String()

	if !strings.Contains(out, "| Key") || !strings.Contains(out, "---") {
		t.Errorf("expected markdown header row, got:\n%s", out)
	}
	if !strings.Contains(out, "| market_size") {
		t.Errorf("expected markdown data row, got:\n%s", out)
	}
	if strings.Contains(out, "ignored in markdown") {
		t.Errorf("title should not render in markdown:\n%s", out)
	}
}

func TestColumns_Align(t *testing.T) {
	tb := format.NewTable(format.ASCII)
	tb.Header("Name", "Rating")
	tb.Columns(format.ColumnConfig{Number: 2, Align: format.AlignRight})
	tb.Row("Annalise.ai", 4)
	if !strings.Contains(tb.String(), "Annalise.ai") {
		t.Error("row missing")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"line one\nline two", 40, "line one line two"},
		{"시장 규모가 크다", 5, "시장..."},
		{"abcdef", 3, "abc"},
	}
	for _, tc := range tests {
		if got := format.Truncate(tc.in, tc.max); got != tc.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}

func TestScalars(t *testing.T) {
	if got := format.Percent(0.654); got != "65%" {
		t.Errorf("Percent: %q", got)
	}
	if got := format.Score(0.5); got != "0.500" {
		t.Errorf("Score: %q", got)
	}
	if got := format.Duration(90 * time.Second); got != "1m 30s" {
		t.Errorf("Duration: %q", got)
	}
	if got := format.Duration(250 * time.Millisecond); got != "250ms" {
		t.Errorf("Duration: %q", got)
	}
	if format.BoolMark(true) != "✓" || format.BoolMark(false) != "✗" {
		t.Error("BoolMark")
	}
}
