// Package scoring maps heterogeneous market and competitor evaluations onto
// a common [0,1] scale.
package scoring

import "math"

// Method names the scale a market evaluation was scored with.
type Method string

const (
	MethodNone              Method = "none"
	MethodDirect            Method = "direct"
	MethodScorecard         Method = "scorecard"
	MethodBessemerChecklist Method = "bessemer_checklist"
	MethodBessemerLegacy    Method = "bessemer_legacy"
)

// Scorecard fields, 0..10 each, in summation order.
var ScorecardFields = []string{
	"management_team",
	"market_size",
	"product_technology",
	"competitive_environment",
	"marketing_sales",
	"need_for_additional_investment",
}

// Bessemer checklist fields, 0..5 each.
var BessemerChecklistFields = []string{
	"market_size",
	"solves_real_problem",
	"willingness_to_pay",
	"differentiation",
	"founder_team_credibility",
	"early_customer_reaction",
	"revenue_model_clarity",
	"is_big_opportunity_if_success",
	"risks_tech_ops_legal",
	"founder_long_term_commitment",
}

// Legacy five-field Bessemer fields, 0..5 each.
var BessemerLegacyFields = []string{
	"product_market_fit",
	"growth_moat",
	"monetization",
	"team_experience",
	"regulatory_risk",
}

const (
	checklistRiskField = "risks_tech_ops_legal"
	legacyRiskField    = "regulatory_risk"
)

// DefaultMarketSource is attributed to market assessments that name none.
const DefaultMarketSource = "internal-market"

// MarketEvaluation is the market assessment handed to the aggregator. Only
// one scale is used: Direct, then Scorecard, then BessemerChecklist, then
// BessemerLegacy, whichever is first to carry a recognized field.
type MarketEvaluation struct {
	Direct            *float64           `json:"normalized_score,omitempty" yaml:"normalized_score,omitempty"`
	Scorecard         map[string]float64 `json:"scorecard,omitempty" yaml:"scorecard,omitempty" validate:"omitempty,dive,keys,oneof=management_team market_size product_technology competitive_environment marketing_sales need_for_additional_investment,endkeys,gte=0"`
	BessemerChecklist map[string]float64 `json:"bessemer_checklist,omitempty" yaml:"bessemer_checklist,omitempty" validate:"omitempty,dive,keys,oneof=market_size solves_real_problem willingness_to_pay differentiation founder_team_credibility early_customer_reaction revenue_model_clarity is_big_opportunity_if_success risks_tech_ops_legal founder_long_term_commitment,endkeys,gte=0"`
	BessemerLegacy    map[string]float64 `json:"bessemer,omitempty" yaml:"bessemer,omitempty" validate:"omitempty,dive,keys,oneof=product_market_fit growth_moat monetization team_experience regulatory_risk,endkeys,gte=0"`
	Positives         []string           `json:"positives,omitempty" yaml:"positives,omitempty"`
	Risks             []string           `json:"risks,omitempty" yaml:"risks,omitempty"`
	EvidenceSources   []string           `json:"evidence_sources,omitempty" yaml:"evidence_sources,omitempty"`
}

// Policy holds the normalization knobs.
type Policy struct {
	// RegulatoryRiskHighIsGood disables the 5-v inversion of risk fields.
	RegulatoryRiskHighIsGood bool `json:"regulatory_risk_high_is_good" yaml:"regulatory_risk_high_is_good"`
	// ScorecardWeights maps scorecard field to weight.
	ScorecardWeights map[string]float64 `json:"scorecard_weights" yaml:"scorecard_weights" validate:"required,dive,keys,oneof=management_team market_size product_technology competitive_environment marketing_sales need_for_additional_investment,endkeys,gte=0"`
}

// DefaultPolicy returns the stock weights (sum 100) with risk inversion on.
func DefaultPolicy() Policy {
	return Policy{
		ScorecardWeights: map[string]float64{
			"management_team":                30,
			"market_size":                    25,
			"product_technology":             15,
			"competitive_environment":        10,
			"marketing_sales":                10,
			"need_for_additional_investment": 10,
		},
	}
}

// NormalizeMarket returns the market score in [0,1].
func NormalizeMarket(m MarketEvaluation, p Policy) float64 {
	score, _ := ScoreMarket(m, p)
	return score
}

// ScoreMarket returns the market score and the method that produced it.
// Missing or empty evaluations score 0 with MethodNone.
func ScoreMarket(m MarketEvaluation, p Policy) (float64, Method) {
	if m.Direct != nil {
		return clamp01(*m.Direct), MethodDirect
	}
	if s, ok := scorecard(m.Scorecard, p.ScorecardWeights); ok {
		return s, MethodScorecard
	}
	if s, ok := bessemerMean(m.BessemerChecklist, BessemerChecklistFields, checklistRiskField, p.RegulatoryRiskHighIsGood); ok {
		return s, MethodBessemerChecklist
	}
	if s, ok := bessemerMean(m.BessemerLegacy, BessemerLegacyFields, legacyRiskField, p.RegulatoryRiskHighIsGood); ok {
		return s, MethodBessemerLegacy
	}
	return 0, MethodNone
}

// scorecard is the weighted average over the fields present, scaled from
// 0..10. Absent fields drop out of both numerator and denominator.
func scorecard(fields, weights map[string]float64) (float64, bool) {
	var num, den float64
	var present bool
	for _, f := range ScorecardFields {
		v, ok := fields[f]
		if !ok {
			continue
		}
		present = true
		w := weights[f]
		num += w * clamp(v, 0, 10)
		den += w
	}
	if !present {
		return 0, false
	}
	if den <= 0 {
		return 0, true
	}
	return clamp01(num / den / 10), true
}

// bessemerMean averages the 0..5 fields present, inverting riskField unless
// highIsGood, and scales to [0,1].
func bessemerMean(fields map[string]float64, keys []string, riskField string, highIsGood bool) (float64, bool) {
	var sum float64
	var n int
	for _, k := range keys {
		v, ok := fields[k]
		if !ok {
			continue
		}
		v = clamp(v, 0, 5)
		if k == riskField && !highIsGood {
			v = 5 - v
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return clamp01(sum / float64(n) / 5), true
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func clamp01(v float64) float64 { return clamp(v, 0, 1) }
