package evidence

import (
	"errors"
	"fmt"
)

// ErrNoRoute is returned when no rule matches the current step.
var ErrNoRoute = errors.New("evidence: no routing rule matched")

// Route is the decision a rule makes for the next step.
type Route struct {
	Next        Step
	Explanation string
}

// Rule is a named routing rule bound to one step. Evaluate returns nil
// when the rule does not apply.
type Rule struct {
	ID       string
	Name     string
	Step     Step
	Evaluate func(state *RunState) *Route
}

// DefaultRules returns the routing table for the given limits. Rules are
// evaluated in order; the first match wins.
func DefaultRules(lim Limits) []Rule {
	always := func(next Step, why string) func(*RunState) *Route {
		return func(*RunState) *Route { return &Route{Next: next, Explanation: why} }
	}
	return []Rule{
		{
			ID: "R1", Name: "select-next", Step: StepSelectQuestion,
			Evaluate: func(s *RunState) *Route {
				if s.Cursor >= s.Total {
					return nil
				}
				return &Route{Next: StepRetrieve, Explanation: fmt.Sprintf("question %d/%d selected", s.Cursor+1, s.Total)}
			},
		},
		{
			ID: "R2", Name: "select-exhausted", Step: StepSelectQuestion,
			Evaluate: always(StepComplete, "no questions left"),
		},
		{
			ID: "R3", Name: "retrieved", Step: StepRetrieve,
			Evaluate: always(StepGrade, "grade retrieved context"),
		},
		{
			ID: "R4", Name: "grade-relevant", Step: StepGrade,
			Evaluate: func(s *RunState) *Route {
				if !s.Attempt.relevant {
					return nil
				}
				return &Route{Next: StepGenerateAnswer, Explanation: "retrieved context is relevant"}
			},
		},
		{
			ID: "R5", Name: "grade-irrelevant", Step: StepGrade,
			Evaluate: always(StepCheckRewriteBudget, "retrieved context is not relevant"),
		},
		{
			ID: "R6", Name: "rewrite-budget-left", Step: StepCheckRewriteBudget,
			Evaluate: func(s *RunState) *Route {
				if s.Attempt.RewriteCount >= lim.MaxRewrites {
					return nil
				}
				return &Route{
					Next:        StepRewriteQuestion,
					Explanation: fmt.Sprintf("rewrite %d of %d", s.Attempt.RewriteCount+1, lim.MaxRewrites),
				}
			},
		},
		{
			ID: "R7", Name: "fallback-available", Step: StepCheckRewriteBudget,
			Evaluate: func(s *RunState) *Route {
				if s.Attempt.FallbackUsed {
					return nil
				}
				return &Route{Next: StepWebSearchFallback, Explanation: "rewrite budget spent; try web search"}
			},
		},
		{
			ID: "R8", Name: "evidence-exhausted", Step: StepCheckRewriteBudget,
			Evaluate: always(StepSkipQuestion, "rewrite budget and fallback spent"),
		},
		{
			ID: "R9", Name: "rewritten", Step: StepRewriteQuestion,
			Evaluate: always(StepRetrieve, "retrieve with revised question"),
		},
		{
			ID: "R10", Name: "searched", Step: StepWebSearchFallback,
			Evaluate: always(StepGradeFallback, "grade web-search context"),
		},
		{
			ID: "R11", Name: "fallback-relevant", Step: StepGradeFallback,
			Evaluate: func(s *RunState) *Route {
				if !s.Attempt.relevant {
					return nil
				}
				return &Route{Next: StepGenerateAnswer, Explanation: "web-search context is relevant"}
			},
		},
		{
			ID: "R12", Name: "fallback-irrelevant", Step: StepGradeFallback,
			Evaluate: always(StepSkipQuestion, "web-search context is not relevant"),
		},
		{
			ID: "R13", Name: "answered", Step: StepGenerateAnswer,
			Evaluate: always(StepCheckCompletion, "question resolved"),
		},
		{
			ID: "R14", Name: "skipped", Step: StepSkipQuestion,
			Evaluate: always(StepCheckCompletion, "question skipped"),
		},
		{
			ID: "R15", Name: "more-questions", Step: StepCheckCompletion,
			Evaluate: func(s *RunState) *Route {
				if s.Cursor >= s.Total {
					return nil
				}
				return &Route{Next: StepSelectQuestion, Explanation: fmt.Sprintf("%d question(s) remaining", s.Total-s.Cursor)}
			},
		},
		{
			ID: "R16", Name: "all-resolved", Step: StepCheckCompletion,
			Evaluate: always(StepComplete, "all questions resolved"),
		},
	}
}

// EvaluateRules returns the first matching route for the state's current
// step along with the matching rule ID.
func EvaluateRules(rules []Rule, state *RunState) (Route, string, error) {
	for _, r := range rules {
		if r.Step != state.CurrentStep {
			continue
		}
		if route := r.Evaluate(state); route != nil {
			return *route, r.ID, nil
		}
	}
	return Route{}, "", fmt.Errorf("%w at %s", ErrNoRoute, state.CurrentStep)
}
