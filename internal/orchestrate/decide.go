package orchestrate

import (
	"errors"
	"fmt"

	"dealscout/internal/decision"
	"dealscout/internal/scoring"
)

// DecideRequest carries pre-computed branch evaluations. Competitor may be
// given directly or as a free-form analysis; Competitor wins when both are
// present.
type DecideRequest struct {
	Market             *scoring.MarketEvaluation     `json:"market,omitempty"`
	Competitor         *scoring.CompetitorEvaluation `json:"competitor,omitempty"`
	CompetitorAnalysis *scoring.CompetitorAnalysis   `json:"competitor_analysis,omitempty"`
}

// Evaluations resolves the request into validated branch evaluations.
// Absent branches are zero-valued.
func (r DecideRequest) Evaluations() (scoring.MarketEvaluation, scoring.CompetitorEvaluation, error) {
	var (
		m scoring.MarketEvaluation
		c scoring.CompetitorEvaluation
	)
	if r.Market != nil {
		if err := r.Market.Validate(); err != nil {
			return m, c, err
		}
		m = r.Market.WithDefaultSource()
	}
	switch {
	case r.Competitor != nil:
		if err := r.Competitor.Validate(); err != nil {
			return m, c, err
		}
		c = *r.Competitor
	case r.CompetitorAnalysis != nil:
		c = scoring.FromAnalysis(*r.CompetitorAnalysis)
	}
	return m, c, nil
}

// Decide aggregates a DecideRequest without running the controller.
func Decide(req DecideRequest, p Policies) (decision.Output, error) {
	if req.Market == nil && req.Competitor == nil && req.CompetitorAnalysis == nil {
		return decision.Output{}, errors.New("decide: no evaluations given")
	}
	m, c, err := req.Evaluations()
	if err != nil {
		return decision.Output{}, fmt.Errorf("decide: %w", err)
	}
	return decision.Aggregate(decision.FromEvaluations(m, c, p.Scoring), p.Decision), nil
}
