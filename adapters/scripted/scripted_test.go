package scripted

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"dealscout/internal/decision"
	"dealscout/internal/evidence"
	"dealscout/internal/orchestrate"
	"dealscout/internal/report"
	"dealscout/internal/scoring"
)

func TestListScenarios(t *testing.T) {
	want := []string{"competitor-outage", "strong-signal", "thin-evidence"}
	if diff := cmp.Diff(want, ListScenarios()); diff != "" {
		t.Errorf("ListScenarios (-want +got):\n%s", diff)
	}
	for _, name := range want {
		if _, err := LoadScenario(name); err != nil {
			t.Errorf("LoadScenario(%q): %v", name, err)
		}
	}
}

func TestLoadScenario_Unknown(t *testing.T) {
	_, err := LoadScenario("nope")
	if err == nil || !strings.Contains(err.Error(), "strong-signal") {
		t.Fatalf("error should list available scenarios, got %v", err)
	}
}

func TestLoadScenarioFile_RejectsUnknownQuestion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	data := "startup:\n  name: Acme\nevidence:\n  team_size:\n    grades: [true]\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadScenarioFile(path)
	if err == nil || !strings.Contains(err.Error(), "team_size") {
		t.Fatalf("LoadScenarioFile = %v, want unknown question error", err)
	}
}

func runController(t *testing.T, name string) *evidence.Result {
	t.Helper()
	s, err := LoadScenario(name)
	if err != nil {
		t.Fatal(err)
	}
	a, err := New(s)
	if err != nil {
		t.Fatal(err)
	}
	set, err := s.QuestionSet()
	if err != nil {
		t.Fatal(err)
	}
	ctrl, err := evidence.NewController(a.Capabilities(), evidence.DefaultLimits())
	if err != nil {
		t.Fatal(err)
	}
	res, err := ctrl.Run(context.Background(), set)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

type entryShape struct {
	Status       evidence.Status
	RewriteCount int
	FallbackUsed bool
}

func TestThinEvidence_Ledger(t *testing.T) {
	res := runController(t, "thin-evidence")
	got := map[string]entryShape{}
	res.Ledger.Each(func(key string, e evidence.LedgerEntry) {
		got[key] = entryShape{e.Status, e.RewriteCount, e.FallbackUsed}
	})
	want := map[string]entryShape{
		"market_size":                 {evidence.StatusSuccess, 2, true},
		"market_problem":              {evidence.StatusSuccess, 1, false},
		"customer_willingness_to_pay": {evidence.StatusFailed, 2, true},
		"differentiation":             {evidence.StatusSuccess, 2, true},
		"revenue_model":               {evidence.StatusFailed, 0, false},
		"risks":                       {evidence.StatusFailed, 2, true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ledger (-want +got):\n%s", diff)
	}
	if res.Aborted {
		t.Errorf("run aborted: %s", res.AbortReason)
	}

	rev, _ := res.Ledger.Get("revenue_model")
	if rev.Answer != evidence.AnswerGenerationFailed {
		t.Errorf("revenue_model answer = %q", rev.Answer)
	}
	prob, _ := res.Ledger.Get("market_problem")
	if !strings.HasPrefix(prob.Answer, "Evidence indicates: Interviews") {
		t.Errorf("market_problem answer = %q", prob.Answer)
	}
	want2 := []string{
		"https://news.example.com/note-taking-market",
		"paperplane-interviews.md",
		"https://news.example.com/ai-note-takers",
	}
	if diff := cmp.Diff(want2, res.Ledger.Sources()); diff != "" {
		t.Errorf("sources (-want +got):\n%s", diff)
	}
}

func TestStrongSignal_Steps(t *testing.T) {
	res := runController(t, "strong-signal")
	if sum := res.Ledger.Summary(); sum.Succeeded != 6 || sum.Failed != 0 {
		t.Errorf("summary = %+v", sum)
	}
	// select, retrieve, grade, generate, check completion per question
	if res.Steps != 30 {
		t.Errorf("steps = %d, want 30", res.Steps)
	}
}

func evaluate(t *testing.T, name string) *report.Report {
	t.Helper()
	s, err := LoadScenario(name)
	if err != nil {
		t.Fatal(err)
	}
	a, err := New(s)
	if err != nil {
		t.Fatal(err)
	}
	set, err := s.QuestionSet()
	if err != nil {
		t.Fatal(err)
	}
	o, err := orchestrate.New(a.Capabilities(), a, a, orchestrate.DefaultPolicies())
	if err != nil {
		t.Fatal(err)
	}
	rep, err := o.Evaluate(context.Background(), orchestrate.Request{Startup: s.Startup, Questions: set})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	return rep
}

func TestScenarioDecisions(t *testing.T) {
	tests := []struct {
		scenario   string
		verdict    decision.Verdict
		method     scoring.Method
		competitor float64
		warnings   int
	}{
		{"strong-signal", decision.Yes, scoring.MethodScorecard, 1, 0},
		{"thin-evidence", decision.No, scoring.MethodBessemerChecklist, 0, 0},
		{"competitor-outage", decision.No, scoring.MethodDirect, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.scenario, func(t *testing.T) {
			rep := evaluate(t, tt.scenario)
			if rep.Decision.Decision != tt.verdict {
				t.Errorf("decision = %s, want %s (breakdown %+v)", rep.Decision.Decision, tt.verdict, rep.Decision.ScoreBreakdown)
			}
			if rep.Market.Method != tt.method {
				t.Errorf("method = %s, want %s", rep.Market.Method, tt.method)
			}
			if rep.Competitor.Score != tt.competitor {
				t.Errorf("competitor score = %v, want %v", rep.Competitor.Score, tt.competitor)
			}
			if len(rep.Warnings) != tt.warnings {
				t.Errorf("warnings = %v", rep.Warnings)
			}
		})
	}
}

func TestStrongSignal_Report(t *testing.T) {
	rep := evaluate(t, "strong-signal")
	if rep.Startup.Name != "Northwind Robotics" {
		t.Errorf("startup = %q", rep.Startup.Name)
	}
	if rep.Competitor.TargetName != "Northwind Robotics" || len(rep.Competitor.Items) != 3 {
		t.Errorf("competitor section = %+v", rep.Competitor)
	}
	// Seven distinct deck/metrics sources plus crunchbase.
	if n := len(rep.Decision.UsedSources); n != 8 {
		t.Errorf("used sources = %d %v, want 8", n, rep.Decision.UsedSources)
	}
}

func TestAdapter_UnknownQuestion(t *testing.T) {
	s, err := LoadScenario("strong-signal")
	if err != nil {
		t.Fatal(err)
	}
	a, err := New(s)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	docs, err := a.Retrieve(ctx, "What is the weather?")
	if err != nil || len(docs) != 0 {
		t.Errorf("Retrieve(unknown) = %v, %v", docs, err)
	}
	ok, err := a.GradeRelevance(ctx, "What is the weather?", "sunny")
	if err != nil || ok {
		t.Errorf("GradeRelevance(unknown) = %v, %v", ok, err)
	}
}

func TestAdapter_RewriteMapsBack(t *testing.T) {
	s, err := LoadScenario("strong-signal")
	if err != nil {
		t.Fatal(err)
	}
	a, err := New(s)
	if err != nil {
		t.Fatal(err)
	}
	set, _ := s.QuestionSet()
	q, _ := set.Lookup("risks")

	ctx := context.Background()
	revised, err := a.RewriteQuery(ctx, q.Prompt)
	if err != nil {
		t.Fatalf("RewriteQuery: %v", err)
	}
	if revised != q.Prompt+" (rephrased 1)" {
		t.Errorf("revised = %q", revised)
	}
	docs, err := a.Retrieve(ctx, revised)
	if err != nil || len(docs) != 1 || docs[0].Source != "northwind-deck.pdf#p17" {
		t.Errorf("Retrieve(rewritten) = %v, %v", docs, err)
	}
}
