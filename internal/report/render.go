package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gingfrederik/docx"

	"dealscout/internal/evidence"
	"dealscout/internal/format"
)

// Renderer writes a report to a file and returns its path.
type Renderer interface {
	Render(ctx context.Context, rep *Report) (string, error)
}

// NewRenderer returns the renderer for a format name: "json", "md" or "docx".
func NewRenderer(name, dir string) (Renderer, error) {
	switch strings.ToLower(name) {
	case "json":
		return JSONRenderer{Dir: dir}, nil
	case "md", "markdown":
		return MarkdownRenderer{Dir: dir}, nil
	case "docx":
		return DocxRenderer{Dir: dir}, nil
	default:
		return nil, fmt.Errorf("unknown report format %q (want json, md or docx)", name)
	}
}

// JSONRenderer writes the report as indented JSON.
type JSONRenderer struct{ Dir string }

func (r JSONRenderer) Render(_ context.Context, rep *Report) (string, error) {
	return WriteArtifact(r.Dir, Filename(rep, "json"), rep)
}

// MarkdownRenderer writes the report as a Markdown document.
type MarkdownRenderer struct{ Dir string }

func (r MarkdownRenderer) Render(_ context.Context, rep *Report) (string, error) {
	if err := os.MkdirAll(r.Dir, 0755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(r.Dir, Filename(rep, "md"))
	if err := os.WriteFile(path, []byte(Markdown(rep)), 0644); err != nil {
		return "", fmt.Errorf("write markdown report: %w", err)
	}
	return path, nil
}

// Markdown renders the report body.
func Markdown(rep *Report) string {
	var b strings.Builder
	d := rep.Decision
	fmt.Fprintf(&b, "# Investment screening: %s\n\n", rep.Startup.Name)
	if rep.Startup.Category != "" {
		fmt.Fprintf(&b, "_%s_\n\n", rep.Startup.Category)
	}
	fmt.Fprintf(&b, "**Decision:** %s (confidence %s)\n\n", d.Decision, format.Score(d.Confidence))
	if rep.Aborted {
		fmt.Fprintf(&b, "> Evidence gathering was aborted: %s\n\n", rep.AbortReason)
	}

	b.WriteString("## Scores\n\n")
	b.WriteString(ScoreTable(rep, format.Markdown))
	b.WriteString("\n\n")

	writeList(&b, "Rationale", d.Rationale)
	writeList(&b, "Risks", d.Risks)
	writeList(&b, "Next actions", d.NextActions)

	b.WriteString("## Evidence ledger\n\n")
	b.WriteString(LedgerTable(rep.Ledger, format.Markdown, 80))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%d answered, %d failed, %d steps.\n\n", rep.Summary.Succeeded, rep.Summary.Failed, rep.Steps)

	writeList(&b, "Sources", d.UsedSources)
	writeList(&b, "Warnings", rep.Warnings)
	return b.String()
}

// ScoreTable renders the score breakdown.
func ScoreTable(rep *Report, mode format.Mode) string {
	tb := format.NewTable(mode)
	tb.Title("Score breakdown")
	tb.Header("Component", "Score", "Detail")
	tb.Row("market", format.Score(rep.Decision.ScoreBreakdown.Market), string(rep.Market.Method))
	tb.Row("competitor", format.Score(rep.Decision.ScoreBreakdown.Competitor), fmt.Sprintf("%d item(s)", len(rep.Competitor.Items)))
	tb.Row("final", format.Score(rep.Decision.ScoreBreakdown.Final), string(rep.Decision.Decision))
	return tb.String()
}

// LedgerTable renders one row per ledger entry, answers cut to width runes.
func LedgerTable(l *evidence.Ledger, mode format.Mode, width int) string {
	tb := format.NewTable(mode)
	tb.Title("Evidence ledger")
	tb.Header("Question", "Status", "Rewrites", "Fallback", "Answer")
	tb.Columns(format.ColumnConfig{Number: 3, Align: format.AlignRight})
	if l != nil {
		l.Each(func(key string, e evidence.LedgerEntry) {
			tb.Row(key, string(e.Status), e.RewriteCount, format.BoolMark(e.FallbackUsed), format.Truncate(e.Answer, width))
		})
	}
	return tb.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}

// DocxRenderer writes the report as a Word document.
type DocxRenderer struct{ Dir string }

func (r DocxRenderer) Render(_ context.Context, rep *Report) (string, error) {
	if err := os.MkdirAll(r.Dir, 0755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	d := rep.Decision
	f := docx.NewFile()

	docxText(f, "Investment screening: "+rep.Startup.Name, 20, "")
	docxText(f, fmt.Sprintf("Run %s | %s", rep.RunID, rep.GeneratedAt.Format("2006-01-02 15:04 MST")), 10, "808080")
	f.AddParagraph()

	docxText(f, fmt.Sprintf("Decision: %s (confidence %s)", d.Decision, format.Score(d.Confidence)), 16, "")
	f.AddParagraph().AddText(fmt.Sprintf("Market %s | Competitor %s | Final %s",
		format.Score(d.ScoreBreakdown.Market), format.Score(d.ScoreBreakdown.Competitor), format.Score(d.ScoreBreakdown.Final)))
	if rep.Aborted {
		docxText(f, "Evidence gathering aborted: "+rep.AbortReason, 0, "C0392B")
	}

	docxSection(f, "Rationale", d.Rationale)
	docxSection(f, "Risks", d.Risks)
	docxSection(f, "Next actions", d.NextActions)

	f.AddParagraph()
	docxText(f, "Evidence ledger", 14, "")
	if rep.Ledger != nil {
		rep.Ledger.Each(func(key string, e evidence.LedgerEntry) {
			docxText(f, fmt.Sprintf("%s [%s, rewrites %d, fallback %t]", key, e.Status, e.RewriteCount, e.FallbackUsed), 12, "")
			docxText(f, e.Question, 0, "808080")
			f.AddParagraph().AddText(e.Answer)
		})
	}

	docxSection(f, "Sources", d.UsedSources)

	path := filepath.Join(r.Dir, Filename(rep, "docx"))
	if err := f.Save(path); err != nil {
		return "", fmt.Errorf("save docx report: %w", err)
	}
	return path, nil
}

// docxText adds a paragraph with one run; zero size or empty color keeps
// the document default.
func docxText(f *docx.File, text string, size int, color string) {
	run := f.AddParagraph().AddText(text)
	if size > 0 {
		run.Size(size)
	}
	if color != "" {
		run.Color(color)
	}
}

func docxSection(f *docx.File, title string, items []string) {
	if len(items) == 0 {
		return
	}
	f.AddParagraph()
	docxText(f, title, 14, "")
	for _, it := range items {
		f.AddParagraph().AddText("- " + it)
	}
}
