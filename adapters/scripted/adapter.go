package scripted

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"dealscout/internal/evidence"
	"dealscout/internal/report"
	"dealscout/internal/scoring"
)

// Adapter replays a Scenario. Deterministic: the same scenario always
// yields the same ledger and decision. Safe for concurrent use.
type Adapter struct {
	scenario *Scenario

	mu        sync.Mutex
	keyByText map[string]string
	prompts   map[string]string
	grades    map[string]int
	rewrites  map[string]int
}

// New returns an Adapter for s.
func New(s *Scenario) (*Adapter, error) {
	set, err := s.QuestionSet()
	if err != nil {
		return nil, err
	}
	a := &Adapter{
		scenario:  s,
		keyByText: make(map[string]string, set.Len()),
		prompts:   make(map[string]string, set.Len()),
		grades:    make(map[string]int),
		rewrites:  make(map[string]int),
	}
	for _, q := range set.Questions {
		a.keyByText[q.Prompt] = q.Key
		a.prompts[q.Key] = q.Prompt
	}
	return a, nil
}

// Name identifies the adapter in logs and reports.
func (a *Adapter) Name() string { return "scripted:" + a.scenario.Name }

// Scenario returns the scenario being replayed.
func (a *Adapter) Scenario() *Scenario { return a.scenario }

// Capabilities returns a with every capability slot filled.
func (a *Adapter) Capabilities() evidence.Capabilities {
	return evidence.Capabilities{Retriever: a, Grader: a, Rewriter: a, Generator: a, Searcher: a}
}

func (a *Adapter) lookup(text string) (string, QuestionScript, bool) {
	a.mu.Lock()
	key, ok := a.keyByText[text]
	a.mu.Unlock()
	if !ok {
		return "", QuestionScript{}, false
	}
	return key, a.scenario.Evidence[key], true
}

func (a *Adapter) Retrieve(ctx context.Context, query string) ([]evidence.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, qs, ok := a.lookup(query)
	if !ok {
		return nil, nil
	}
	if qs.FailRetrieve {
		return nil, fmt.Errorf("scripted retrieval failure for %s", key)
	}
	return append([]evidence.Document(nil), qs.Documents...), nil
}

func (a *Adapter) GradeRelevance(ctx context.Context, question, _ string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	key, qs, ok := a.lookup(question)
	if !ok {
		return false, nil
	}
	if qs.FailGrade {
		return false, fmt.Errorf("scripted grading failure for %s", key)
	}
	a.mu.Lock()
	i := a.grades[key]
	a.grades[key] = i + 1
	a.mu.Unlock()
	return i < len(qs.Grades) && qs.Grades[i], nil
}

func (a *Adapter) RewriteQuery(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, qs, ok := a.lookup(question)
	if !ok {
		return question, nil
	}
	if qs.FailRewrite {
		return "", fmt.Errorf("scripted rewrite failure for %s", key)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	i := a.rewrites[key]
	a.rewrites[key] = i + 1
	revised := fmt.Sprintf("%s (rephrased %d)", a.prompts[key], i+1)
	if i < len(qs.Rewrites) && strings.TrimSpace(qs.Rewrites[i]) != "" {
		revised = qs.Rewrites[i]
	}
	a.keyByText[revised] = key
	return revised, nil
}

func (a *Adapter) WebSearch(ctx context.Context, query string) ([]evidence.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, qs, ok := a.lookup(query)
	if !ok {
		return nil, nil
	}
	if qs.FailSearch {
		return nil, fmt.Errorf("scripted search failure for %s", key)
	}
	return append([]evidence.SearchResult(nil), qs.Web...), nil
}

func (a *Adapter) GenerateAnswer(ctx context.Context, question, evidenceText string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, qs, ok := a.lookup(question)
	if ok && qs.FailGenerate {
		return "", fmt.Errorf("scripted generation failure for %s", key)
	}
	if ok && qs.Answer != "" {
		return qs.Answer, nil
	}
	line, _, _ := strings.Cut(strings.TrimSpace(evidenceText), "\n")
	return "Evidence indicates: " + line, nil
}

// AssessMarket returns the scripted market evaluation. When it names no
// sources, the ledger's answer sources are attributed.
func (a *Adapter) AssessMarket(ctx context.Context, _ report.Startup, ledger *evidence.Ledger) (scoring.MarketEvaluation, error) {
	if err := ctx.Err(); err != nil {
		return scoring.MarketEvaluation{}, err
	}
	s := a.scenario
	if s.MarketError != "" {
		return scoring.MarketEvaluation{}, errors.New(s.MarketError)
	}
	if s.Market == nil {
		return scoring.MarketEvaluation{}, errors.New("scenario has no market assessment")
	}
	m := *s.Market
	if len(m.EvidenceSources) == 0 && ledger != nil {
		m.EvidenceSources = ledger.Sources()
	}
	return m, nil
}

// AnalyzeCompetitors returns the scripted competitor evaluation, deriving
// it from the free-form analysis when no rated items are scripted.
func (a *Adapter) AnalyzeCompetitors(ctx context.Context, startup report.Startup) (scoring.CompetitorEvaluation, error) {
	if err := ctx.Err(); err != nil {
		return scoring.CompetitorEvaluation{}, err
	}
	s := a.scenario
	switch {
	case s.CompetitorError != "":
		return scoring.CompetitorEvaluation{}, errors.New(s.CompetitorError)
	case s.Competitor != nil:
		return *s.Competitor, nil
	case s.CompetitorAnalysis != nil:
		analysis := *s.CompetitorAnalysis
		if analysis.TargetName == "" {
			analysis.TargetName = startup.Name
		}
		return scoring.FromAnalysis(analysis), nil
	default:
		return scoring.CompetitorEvaluation{}, errors.New("scenario has no competitor analysis")
	}
}
