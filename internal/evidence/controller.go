package evidence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dealscout/internal/criteria"
	"dealscout/internal/logging"
)

// Controller resolves every question of a set into exactly one ledger entry.
// A Controller holds no per-run state and may be reused; each Run is
// single-threaded.
type Controller struct {
	caps     Capabilities
	limits   Limits
	rules    []Rule
	observer Observer
	log      *slog.Logger
}

// Option customizes a Controller.
type Option func(*Controller)

// WithObserver attaches an observer for capability outcomes and transitions.
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithRules replaces the default routing table.
func WithRules(rules []Rule) Option {
	return func(c *Controller) { c.rules = rules }
}

// NewController validates the capabilities and builds a controller.
func NewController(caps Capabilities, limits Limits, opts ...Option) (*Controller, error) {
	if err := caps.validate(); err != nil {
		return nil, err
	}
	if limits.MaxRewrites < 0 {
		return nil, fmt.Errorf("evidence: max rewrites must be >= 0, got %d", limits.MaxRewrites)
	}
	c := &Controller{
		caps:     caps,
		limits:   limits,
		rules:    DefaultRules(limits),
		observer: nopObserver{},
		log:      logging.New("evidence"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Result is the outcome of one controller run.
type Result struct {
	Ledger      *Ledger       `json:"ledger"`
	Steps       int           `json:"steps"`
	History     []StepRecord  `json:"history,omitempty"`
	Aborted     bool          `json:"aborted"`
	AbortReason string        `json:"abort_reason,omitempty"`
	Elapsed     time.Duration `json:"elapsed"`
}

// Run drives the state machine until every question has a ledger entry or
// the run is aborted by the step budget, the timeout or ctx. Capability
// failures never surface as errors; they route the question instead.
func (c *Controller) Run(ctx context.Context, set *criteria.Set) (*Result, error) {
	if set == nil {
		return nil, errors.New("evidence: nil question set")
	}
	if c.limits.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.limits.Timeout)
		defer cancel()
	}

	start := time.Now()
	ledger := NewLedger()
	state := &RunState{CurrentStep: StepSelectQuestion, Total: set.Len()}
	budget := c.limits.StepBudget(set.Len())
	res := &Result{Ledger: ledger}

	c.log.Info("evidence run started", "set", set.Name, "questions", set.Len(), "max_rewrites", c.limits.MaxRewrites, "step_budget", budget)

	for state.CurrentStep != StepComplete {
		if err := ctx.Err(); err != nil {
			c.abort(state, set, res, err.Error())
			break
		}
		if state.Steps >= budget {
			c.abort(state, set, res, fmt.Sprintf("step limit %d exceeded", budget))
			break
		}
		state.Steps++

		outcome := c.execute(ctx, state, set, ledger)
		route, ruleID, err := EvaluateRules(c.rules, state)
		if err != nil {
			c.abort(state, set, res, err.Error())
			break
		}
		c.observer.OnEvent(Event{
			Type:        EventTransition,
			Step:        state.CurrentStep,
			Next:        route.Next,
			Rule:        ruleID,
			QuestionKey: state.Attempt.Key,
			Metadata:    map[string]any{"explanation": route.Explanation, "outcome": outcome},
		})
		AdvanceStep(state, route.Next, ruleID, outcome)
	}

	res.Steps = state.Steps
	res.History = state.History
	res.Elapsed = time.Since(start)
	if !res.Aborted {
		c.observer.OnEvent(Event{Type: EventRunComplete, Elapsed: res.Elapsed})
	}
	sum := ledger.Summary()
	c.log.Info("evidence run finished",
		"set", set.Name, "steps", res.Steps, "succeeded", sum.Succeeded, "failed", sum.Failed,
		"aborted", res.Aborted, "elapsed", res.Elapsed)
	return res, nil
}

// execute performs the work of the current step and returns a short
// outcome string for the history.
func (c *Controller) execute(ctx context.Context, state *RunState, set *criteria.Set, ledger *Ledger) string {
	a := &state.Attempt
	switch state.CurrentStep {
	case StepSelectQuestion:
		if state.Cursor >= state.Total {
			return "none"
		}
		q := set.At(state.Cursor)
		state.Attempt = Attempt{Key: q.Key, Question: q.Prompt, Status: StatusPending, prompt: q.Prompt}
		return "selected " + q.Key

	case StepRetrieve:
		docs := c.retrieve(ctx, state.CurrentStep, a)
		a.context, a.sources = joinDocuments(docs)
		a.relevant = false
		return fmt.Sprintf("%d document(s)", len(docs))

	case StepGrade, StepGradeFallback:
		a.relevant = c.grade(ctx, state.CurrentStep, a)
		if a.relevant {
			return "relevant"
		}
		return "not relevant"

	case StepCheckRewriteBudget:
		return fmt.Sprintf("rewrites %d/%d, fallback used %t", a.RewriteCount, c.limits.MaxRewrites, a.FallbackUsed)

	case StepRewriteQuestion:
		revised := c.rewrite(ctx, state.CurrentStep, a)
		a.RewriteCount++
		if revised != "" {
			a.Question = revised
			return "rewritten"
		}
		return "rewrite failed; question kept"

	case StepWebSearchFallback:
		a.FallbackUsed = true
		results := c.search(ctx, state.CurrentStep, a)
		a.context, a.sources = joinResults(results)
		a.relevant = false
		return fmt.Sprintf("%d search result(s)", len(results))

	case StepGenerateAnswer:
		answer, ok := c.generate(ctx, state.CurrentStep, a)
		if !ok {
			c.record(state, ledger, LedgerEntry{Answer: AnswerGenerationFailed, Status: StatusFailed})
			return "generation failed"
		}
		c.record(state, ledger, LedgerEntry{Answer: answer, Status: StatusSuccess, Sources: a.sources})
		return "answered"

	case StepSkipQuestion:
		c.record(state, ledger, LedgerEntry{Answer: AnswerInsufficientData, Status: StatusFailed})
		return "skipped"

	case StepCheckCompletion:
		state.Cursor++
		return fmt.Sprintf("cursor %d/%d", state.Cursor, state.Total)
	}
	return ""
}

// record fills the attempt counters into e and writes it to the ledger.
func (c *Controller) record(state *RunState, ledger *Ledger, e LedgerEntry) {
	a := &state.Attempt
	e.Question = a.prompt
	e.RewriteCount = a.RewriteCount
	e.FallbackUsed = a.FallbackUsed
	if err := ledger.Record(a.Key, e); err != nil {
		c.log.Error("ledger write rejected", "question", a.Key, "error", err)
		return
	}
	a.Status = e.Status
	c.observer.OnEvent(Event{Type: EventEntryRecorded, Step: state.CurrentStep, QuestionKey: a.Key, Entry: &e})
}

// abort writes a Failed entry for every question that has none yet.
func (c *Controller) abort(state *RunState, set *criteria.Set, res *Result, reason string) {
	res.Aborted = true
	res.AbortReason = reason
	answer := fmt.Sprintf("%s (%s)", answerAbortedPrefix, reason)
	for i := state.Cursor; i < set.Len(); i++ {
		q := set.At(i)
		if res.Ledger.Has(q.Key) {
			continue
		}
		e := LedgerEntry{Question: q.Prompt, Answer: answer, Status: StatusFailed}
		if state.Attempt.Key == q.Key {
			e.RewriteCount = state.Attempt.RewriteCount
			e.FallbackUsed = state.Attempt.FallbackUsed
		}
		if err := res.Ledger.Record(q.Key, e); err != nil {
			c.log.Error("ledger write rejected", "question", q.Key, "error", err)
			continue
		}
		c.observer.OnEvent(Event{Type: EventEntryRecorded, Step: state.CurrentStep, QuestionKey: q.Key, Entry: &e})
	}
	c.observer.OnEvent(Event{Type: EventRunAborted, Step: state.CurrentStep, QuestionKey: state.Attempt.Key, Error: errors.New(reason)})
}

func (c *Controller) emit(step Step, key string, out Outcome) {
	c.observer.OnEvent(Event{Type: EventCapability, Step: step, QuestionKey: key, Outcome: &out})
}

func (c *Controller) retrieve(ctx context.Context, step Step, a *Attempt) []Document {
	start := time.Now()
	docs, err := c.caps.Retriever.Retrieve(ctx, a.Question)
	out := Outcome{Capability: CapRetrieve, OK: err == nil, Err: err, Elapsed: time.Since(start)}
	if err != nil {
		docs = nil
	} else if len(docs) == 0 {
		out.Detail = "no documents"
	}
	c.emit(step, a.Key, out)
	return docs
}

func (c *Controller) grade(ctx context.Context, step Step, a *Attempt) bool {
	if strings.TrimSpace(a.context) == "" {
		c.emit(step, a.Key, Outcome{Capability: CapGrade, Detail: "empty context"})
		return false
	}
	start := time.Now()
	relevant, err := c.caps.Grader.GradeRelevance(ctx, a.Question, a.context)
	c.emit(step, a.Key, Outcome{Capability: CapGrade, OK: err == nil, Err: err, Elapsed: time.Since(start)})
	return err == nil && relevant
}

func (c *Controller) rewrite(ctx context.Context, step Step, a *Attempt) string {
	start := time.Now()
	revised, err := c.caps.Rewriter.RewriteQuery(ctx, a.Question)
	c.emit(step, a.Key, Outcome{Capability: CapRewrite, OK: err == nil, Err: err, Elapsed: time.Since(start)})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(revised)
}

func (c *Controller) search(ctx context.Context, step Step, a *Attempt) []SearchResult {
	start := time.Now()
	results, err := c.caps.Searcher.WebSearch(ctx, a.Question)
	c.emit(step, a.Key, Outcome{Capability: CapWebSearch, OK: err == nil, Err: err, Elapsed: time.Since(start)})
	if err != nil {
		return nil
	}
	return results
}

func (c *Controller) generate(ctx context.Context, step Step, a *Attempt) (string, bool) {
	start := time.Now()
	answer, err := c.caps.Generator.GenerateAnswer(ctx, a.prompt, a.context)
	if err == nil && strings.TrimSpace(answer) == "" {
		err = errors.New("empty answer")
	}
	c.emit(step, a.Key, Outcome{Capability: CapGenerate, OK: err == nil, Err: err, Elapsed: time.Since(start)})
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(answer), true
}

func joinDocuments(docs []Document) (string, []string) {
	var parts, sources []string
	for _, d := range docs {
		if t := strings.TrimSpace(d.Text); t != "" {
			parts = append(parts, t)
		}
		sources = appendSource(sources, d.Source)
	}
	return strings.Join(parts, "\n\n"), sources
}

func joinResults(results []SearchResult) (string, []string) {
	var parts, sources []string
	for _, r := range results {
		if t := strings.TrimSpace(r.Snippet); t != "" {
			parts = append(parts, t)
		}
		sources = appendSource(sources, r.Source)
	}
	return strings.Join(parts, "\n\n"), sources
}

func appendSource(sources []string, s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return sources
	}
	for _, have := range sources {
		if have == s {
			return sources
		}
	}
	return append(sources, s)
}
