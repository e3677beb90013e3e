// Package evidence implements the evidence-gathering controller: a bounded
// state machine that resolves each criterion question through retrieval,
// relevance grading, query rewriting and a single web-search fallback.
package evidence

import "time"

// Step is a controller state.
type Step string

const (
	StepSelectQuestion     Step = "SELECT_QUESTION"
	StepRetrieve           Step = "RETRIEVE"
	StepGrade              Step = "GRADE"
	StepCheckRewriteBudget Step = "CHECK_REWRITE_BUDGET"
	StepRewriteQuestion    Step = "REWRITE_QUESTION"
	StepWebSearchFallback  Step = "WEB_SEARCH_FALLBACK"
	StepGradeFallback      Step = "GRADE_FALLBACK"
	StepGenerateAnswer     Step = "GENERATE_ANSWER"
	StepSkipQuestion       Step = "SKIP_QUESTION"
	StepCheckCompletion    Step = "CHECK_COMPLETION"
	StepComplete           Step = "COMPLETE"
)

// Status is the resolution state of a question.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Fixed answers written for questions that could not be answered.
const (
	AnswerInsufficientData = "insufficient data: no relevant evidence found"
	AnswerGenerationFailed = "insufficient data: answer generation failed"
	answerAbortedPrefix    = "insufficient data: evaluation aborted"
)

// Limits bounds a controller run.
type Limits struct {
	// MaxRewrites caps query rewrites per question (default 2).
	MaxRewrites int `json:"max_rewrites" yaml:"max_rewrites" validate:"gte=0,lte=10"`
	// MaxSteps caps executed steps per run; 0 derives a bound from the
	// question count.
	MaxSteps int `json:"max_steps" yaml:"max_steps" validate:"gte=0"`
	// Timeout is a wall-clock cap for the run; 0 disables it.
	Timeout time.Duration `json:"timeout" yaml:"timeout" validate:"gte=0"`
}

// DefaultLimits returns the stock limits.
func DefaultLimits() Limits {
	return Limits{MaxRewrites: 2}
}

// StepBudget returns the step cap for a run over n questions. The derived
// bound covers the longest path: every rewrite spent plus the fallback.
func (l Limits) StepBudget(n int) int {
	if l.MaxSteps > 0 {
		return l.MaxSteps
	}
	return n*(4*l.MaxRewrites+8) + 1
}

// Attempt is the per-question working record. It is reset each time a new
// question is selected.
type Attempt struct {
	Key          string `json:"key"`
	Question     string `json:"question"`
	RewriteCount int    `json:"rewrite_count"`
	FallbackUsed bool   `json:"fallback_used"`
	Status       Status `json:"status"`

	prompt   string
	context  string
	sources  []string
	relevant bool
}

// StepRecord is one entry in the transition history.
type StepRecord struct {
	Step        Step   `json:"step"`
	Next        Step   `json:"next"`
	Rule        string `json:"rule"`
	QuestionKey string `json:"question_key,omitempty"`
	Outcome     string `json:"outcome"`
	Timestamp   string `json:"timestamp"`
}

// RunState is the controller's mutable state during one run.
type RunState struct {
	CurrentStep Step         `json:"current_step"`
	Cursor      int          `json:"cursor"`
	Total       int          `json:"total"`
	Steps       int          `json:"steps"`
	Attempt     Attempt      `json:"attempt"`
	History     []StepRecord `json:"history"`
}

// AdvanceStep moves the state to next and records the transition.
func AdvanceStep(state *RunState, next Step, ruleID, outcome string) {
	state.History = append(state.History, StepRecord{
		Step:        state.CurrentStep,
		Next:        next,
		Rule:        ruleID,
		QuestionKey: state.Attempt.Key,
		Outcome:     outcome,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
	state.CurrentStep = next
}
