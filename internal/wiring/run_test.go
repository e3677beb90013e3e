package wiring

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"dealscout/adapters/scripted"
	"dealscout/internal/orchestrate"
	"dealscout/internal/report"
	"dealscout/internal/store"
)

type recordingNotifier struct {
	got []*report.Report
	err error
}

func (n *recordingNotifier) Notify(rep *report.Report) (string, error) {
	if n.err != nil {
		return "", n.err
	}
	n.got = append(n.got, rep)
	return "msg-1", nil
}

func scenarioRequest(t *testing.T, name string) (*orchestrate.Orchestrator, orchestrate.Request) {
	t.Helper()
	sc, err := scripted.LoadScenario(name)
	if err != nil {
		t.Fatal(err)
	}
	a, err := scripted.New(sc)
	if err != nil {
		t.Fatal(err)
	}
	set, err := sc.QuestionSet()
	if err != nil {
		t.Fatal(err)
	}
	orc, err := orchestrate.New(a.Capabilities(), a, a, orchestrate.DefaultPolicies())
	if err != nil {
		t.Fatal(err)
	}
	return orc, orchestrate.Request{Startup: sc.Startup, Questions: set}
}

// BDD: Given the thin-evidence scenario, When the full flow runs, Then the
// report is stored, written as JSON and Markdown, and announced.
func TestRun_FullFlowStoresRendersNotifies(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "dealscout.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer st.Close()
	notifier := &recordingNotifier{}
	orc, req := scenarioRequest(t, "thin-evidence")

	res, err := Run(context.Background(), Deps{
		Orchestrator: orc,
		Store:        st,
		Renderers:    []report.Renderer{report.JSONRenderer{Dir: dir}, report.MarkdownRenderer{Dir: dir}},
		Notifier:     notifier,
	}, req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// (1) Report in store with its ledger
	got, err := st.GetReport(res.Report.RunID)
	if err != nil || got == nil {
		t.Fatalf("report not in store: %v", err)
	}
	rows, err := st.ListLedger(res.Report.RunID)
	if err != nil || len(rows) != 6 {
		t.Fatalf("ledger rows = %d, err %v", len(rows), err)
	}

	// (2) Artifacts on disk
	if len(res.Artifacts) != 2 || !strings.HasSuffix(res.Artifacts[0], ".json") || !strings.HasSuffix(res.Artifacts[1], ".md") {
		t.Fatalf("artifacts = %v", res.Artifacts)
	}
	onDisk, err := report.Load(res.Artifacts[0])
	if err != nil {
		t.Fatalf("load artifact: %v", err)
	}
	if onDisk.Decision.Decision != got.Decision.Decision {
		t.Errorf("artifact decision %s != stored %s", onDisk.Decision.Decision, got.Decision.Decision)
	}

	// (3) Notification
	if len(notifier.got) != 1 || res.MessageID != "msg-1" {
		t.Errorf("notifications = %d, message id %q", len(notifier.got), res.MessageID)
	}
}

func TestRun_NotifierFailureIsNotFatal(t *testing.T) {
	orc, req := scenarioRequest(t, "strong-signal")
	res, err := Run(context.Background(), Deps{
		Orchestrator: orc,
		Notifier:     &recordingNotifier{err: errors.New("discord down")},
	}, req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.MessageID != "" || res.Report == nil {
		t.Errorf("result = %+v", res)
	}
}

func TestRun_DuplicateRunRejected(t *testing.T) {
	mem := store.NewMemStore()
	sc, _ := scripted.LoadScenario("strong-signal")
	a, _ := scripted.New(sc)
	set, _ := sc.QuestionSet()
	orc, err := orchestrate.New(a.Capabilities(), a, a, orchestrate.DefaultPolicies(),
		orchestrate.WithRunIDs(func() string { return "same-id" }))
	if err != nil {
		t.Fatal(err)
	}
	req := orchestrate.Request{Startup: sc.Startup, Questions: set}

	if _, err := Run(context.Background(), Deps{Orchestrator: orc, Store: mem}, req); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	res, err := Run(context.Background(), Deps{Orchestrator: orc, Store: mem}, req)
	if !errors.Is(err, store.ErrDuplicateRun) {
		t.Fatalf("second Run = %v, want ErrDuplicateRun", err)
	}
	if res == nil || res.Report == nil {
		t.Error("partial result should carry the report")
	}
}
