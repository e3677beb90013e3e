// Package orchestrate runs one startup evaluation end to end: the evidence
// controller and market assessment on one branch, competitor analysis on
// the other, then normalization, aggregation and the report.
package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"dealscout/internal/criteria"
	"dealscout/internal/decision"
	"dealscout/internal/evidence"
	"dealscout/internal/logging"
	"dealscout/internal/report"
	"dealscout/internal/scoring"
)

// MarketAssessor turns the evidence ledger into a market evaluation.
type MarketAssessor interface {
	AssessMarket(ctx context.Context, startup report.Startup, ledger *evidence.Ledger) (scoring.MarketEvaluation, error)
}

// CompetitorAnalyst produces the competitor evaluation for a startup.
type CompetitorAnalyst interface {
	AnalyzeCompetitors(ctx context.Context, startup report.Startup) (scoring.CompetitorEvaluation, error)
}

// Policies are the immutable knobs of a run.
type Policies struct {
	Decision decision.Policy
	Scoring  scoring.Policy
	Limits   evidence.Limits
}

// DefaultPolicies returns the built-in defaults of every package.
func DefaultPolicies() Policies {
	return Policies{
		Decision: decision.DefaultPolicy(),
		Scoring:  scoring.DefaultPolicy(),
		Limits:   evidence.DefaultLimits(),
	}
}

// Validate checks every policy.
func (p Policies) Validate() error {
	return errors.Join(p.Decision.Validate(), p.Scoring.Validate())
}

// Request is one evaluation request.
type Request struct {
	Startup   report.Startup
	Questions *criteria.Set
}

// Orchestrator wires capabilities and policies into evaluations.
type Orchestrator struct {
	caps        evidence.Capabilities
	market      MarketAssessor
	competitors CompetitorAnalyst
	policies    Policies
	observer    evidence.Observer
	log         *slog.Logger
	now         func() time.Time
	newID       func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver forwards controller events to o.
func WithObserver(o evidence.Observer) Option {
	return func(orc *Orchestrator) { orc.observer = o }
}

// WithClock overrides the report timestamp source.
func WithClock(now func() time.Time) Option {
	return func(orc *Orchestrator) { orc.now = now }
}

// WithRunIDs overrides run ID generation.
func WithRunIDs(fn func() string) Option {
	return func(orc *Orchestrator) { orc.newID = fn }
}

// New returns an Orchestrator. market and competitors may be nil; the
// missing branch then scores zero and the report carries a warning.
func New(caps evidence.Capabilities, market MarketAssessor, competitors CompetitorAnalyst, p Policies, opts ...Option) (*Orchestrator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	// Fail fast on missing capabilities instead of per run.
	if _, err := evidence.NewController(caps, p.Limits); err != nil {
		return nil, err
	}
	o := &Orchestrator{
		caps:        caps,
		market:      market,
		competitors: competitors,
		policies:    p,
		log:         logging.New("orchestrate"),
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

type marketBranch struct {
	result   *evidence.Result
	eval     scoring.MarketEvaluation
	warnings []string
}

type competitorBranch struct {
	eval     scoring.CompetitorEvaluation
	warnings []string
}

// Evaluate runs both branches concurrently and aggregates them. Branch
// failures degrade to zero-valued evaluations; only invalid requests and
// controller setup errors are returned.
func (o *Orchestrator) Evaluate(ctx context.Context, req Request) (*report.Report, error) {
	if req.Questions == nil {
		return nil, errors.New("orchestrate: question set is required")
	}
	if req.Startup.Name == "" {
		return nil, errors.New("orchestrate: startup name is required")
	}

	var copts []evidence.Option
	if o.observer != nil {
		copts = append(copts, evidence.WithObserver(o.observer))
	}
	ctrl, err := evidence.NewController(o.caps, o.policies.Limits, copts...)
	if err != nil {
		return nil, err
	}

	runID := o.newID()
	o.log.Info("evaluation started", "run_id", runID, "startup", req.Startup.Name, "questions", req.Questions.Len())

	var (
		mb marketBranch
		cb competitorBranch
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		mb, err = o.runMarket(gCtx, ctrl, req)
		return err
	})
	g.Go(func() error {
		cb = o.runCompetitors(gCtx, req.Startup)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", req.Startup.Name, err)
	}

	in := decision.FromEvaluations(mb.eval, cb.eval, o.policies.Scoring)
	out := decision.Aggregate(in, o.policies.Decision)
	_, method := scoring.ScoreMarket(mb.eval, o.policies.Scoring)

	rep := &report.Report{
		RunID:       runID,
		Startup:     req.Startup,
		QuestionSet: req.Questions.Name,
		GeneratedAt: o.now().UTC(),
		Decision:    out,
		Market: report.MarketSection{
			Method:    method,
			Score:     in.MarketScore,
			Positives: mb.eval.Positives,
			Risks:     mb.eval.Risks,
			Sources:   mb.eval.EvidenceSources,
		},
		Competitor: report.CompetitorSection{
			TargetName: cb.eval.TargetName,
			Score:      in.CompetitorScore,
			Items:      cb.eval.Items,
			Sources:    cb.eval.EvidenceSources,
		},
		Ledger:      mb.result.Ledger,
		Summary:     mb.result.Ledger.Summary(),
		Steps:       mb.result.Steps,
		Aborted:     mb.result.Aborted,
		AbortReason: mb.result.AbortReason,
		Warnings:    append(mb.warnings, cb.warnings...),
	}
	o.log.Info("evaluation finished",
		"run_id", runID, "decision", out.Decision, "confidence", out.Confidence,
		"final", out.ScoreBreakdown.Final, "warnings", len(rep.Warnings))
	return rep, nil
}

func (o *Orchestrator) runMarket(ctx context.Context, ctrl *evidence.Controller, req Request) (marketBranch, error) {
	res, err := ctrl.Run(ctx, req.Questions)
	if err != nil {
		return marketBranch{}, err
	}
	mb := marketBranch{result: res}
	if res.Aborted {
		mb.warnings = append(mb.warnings, "evidence gathering aborted: "+res.AbortReason)
	}
	if o.market == nil {
		mb.warnings = append(mb.warnings, "market assessment unavailable; market score is 0")
		return mb, nil
	}

	eval, err := o.market.AssessMarket(ctx, req.Startup, res.Ledger)
	if err == nil {
		err = eval.Validate()
	}
	if err != nil {
		o.log.Warn("market assessment failed", "startup", req.Startup.Name, "error", err)
		mb.warnings = append(mb.warnings, fmt.Sprintf("market assessment failed: %v", err))
		return mb, nil
	}
	mb.eval = eval.WithDefaultSource()
	return mb, nil
}

func (o *Orchestrator) runCompetitors(ctx context.Context, startup report.Startup) competitorBranch {
	if o.competitors == nil {
		return competitorBranch{warnings: []string{"competitor analysis unavailable; competitor score is 0"}}
	}
	eval, err := o.competitors.AnalyzeCompetitors(ctx, startup)
	if err == nil {
		err = eval.Validate()
	}
	if err != nil {
		o.log.Warn("competitor analysis failed", "startup", startup.Name, "error", err)
		return competitorBranch{warnings: []string{fmt.Sprintf("competitor analysis failed: %v", err)}}
	}
	if len(eval.EvidenceSources) == 0 {
		eval.EvidenceSources = []string{scoring.DefaultCompetitorSource}
	}
	return competitorBranch{eval: eval}
}
