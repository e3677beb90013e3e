// Package decision turns normalized market and competitor scores into a
// YES/NO verdict with a reproducible confidence value. Everything here is
// pure: the same Input and Policy always yield the same Output.
package decision

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"dealscout/internal/scoring"
)

// Verdict is the binary investment decision.
type Verdict string

const (
	Yes Verdict = "YES"
	No  Verdict = "NO"
)

// Policy holds the aggregation knobs.
type Policy struct {
	WMarket        float64 `json:"w_market" yaml:"w_market" validate:"gte=0"`
	WComp          float64 `json:"w_comp" yaml:"w_comp" validate:"gte=0"`
	YesThreshold   float64 `json:"yes_threshold" yaml:"yes_threshold" validate:"gte=0,lte=1"`
	MaybeThreshold float64 `json:"maybe_threshold" yaml:"maybe_threshold" validate:"gte=0,lte=1,ltefield=YesThreshold"`
	MinSources     int     `json:"min_sources" yaml:"min_sources" validate:"gte=0"`
}

// DefaultPolicy returns the stock weights and thresholds.
func DefaultPolicy() Policy {
	return Policy{
		WMarket:        0.6,
		WComp:          0.4,
		YesThreshold:   0.62,
		MaybeThreshold: 0.52,
		MinSources:     1,
	}
}

var validate = validator.New()

// Validate checks weights and threshold ordering.
func (p Policy) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid decision policy: %w", err)
	}
	return nil
}

// Input is everything the aggregator looks at.
type Input struct {
	MarketScore     float64                  `json:"market_score"`
	CompetitorScore float64                  `json:"competitor_score"`
	Sources         []string                 `json:"sources"`
	Positives       []string                 `json:"positives,omitempty"`
	Risks           []string                 `json:"risks,omitempty"`
	Competitors     []scoring.CompetitorItem `json:"competitors,omitempty"`
}

// FromEvaluations normalizes both branches and collects their sources,
// market first.
func FromEvaluations(m scoring.MarketEvaluation, c scoring.CompetitorEvaluation, p scoring.Policy) Input {
	return Input{
		MarketScore:     scoring.NormalizeMarket(m, p),
		CompetitorScore: scoring.NormalizeCompetitor(c),
		Sources:         DistinctSources(m.EvidenceSources, c.EvidenceSources),
		Positives:       m.Positives,
		Risks:           m.Risks,
		Competitors:     c.Items,
	}
}

// ScoreBreakdown reports the scores behind a verdict.
type ScoreBreakdown struct {
	Market     float64 `json:"market"`
	Competitor float64 `json:"competitor"`
	Final      float64 `json:"final"`
}

// Output is the aggregated decision. Scores are rounded to three decimals.
type Output struct {
	Decision       Verdict        `json:"decision"`
	Confidence     float64        `json:"confidence"`
	ScoreBreakdown ScoreBreakdown `json:"score_breakdown"`
	Rationale      []string       `json:"rationale"`
	Risks          []string       `json:"risks"`
	NextActions    []string       `json:"next_actions"`
	UsedSources    []string       `json:"used_sources"`
}

const (
	rationaleInsufficient = "insufficient evidence sources"
	actionGatherEvidence  = "gather more evidence"
	maxListedItems        = 5
	maxListedCompetitors  = 3
)

var (
	yesActions = []string{
		"start regulatory and security due diligence (data governance, compliance)",
		"run reference calls with 3 key customers",
		"size the investment and valuation against a 12-18 month runway",
	}
	noActions = []string{
		"re-check traction (revenue, customer count, pilot conversion) in 3 months",
		"request evidence of the USP against competitors (clinical data, benchmarks)",
	}
)

// Aggregate applies the evidence gate, the weighted combination and the
// threshold rule. Input scores are clamped to [0,1] first.
func Aggregate(in Input, p Policy) Output {
	in.MarketScore = clamp01(in.MarketScore)
	in.CompetitorScore = clamp01(in.CompetitorScore)
	sources := DistinctSources(in.Sources)
	risks := append([]string{}, in.Risks...)

	if len(sources) < p.MinSources {
		return Output{
			Decision:    No,
			Rationale:   []string{rationaleInsufficient},
			Risks:       risks,
			NextActions: []string{actionGatherEvidence},
			UsedSources: sources,
		}
	}

	m, c := in.MarketScore, in.CompetitorScore
	final := Combine(m, c, p)
	verdict := No
	if final >= p.YesThreshold {
		verdict = Yes
	}

	return Output{
		Decision:   verdict,
		Confidence: round3(Confidence(final, m, c, len(sources))),
		ScoreBreakdown: ScoreBreakdown{
			Market:     round3(m),
			Competitor: round3(c),
			Final:      round3(final),
		},
		Rationale:   rationale(in, final, p),
		Risks:       risks,
		NextActions: nextActions(verdict),
		UsedSources: sources,
	}
}

// clamp01 bounds a score to [0,1]; NaN maps to 0.
func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// Combine is the weighted mean of the two scores; a non-positive weight sum
// yields 0.
func Combine(market, competitor float64, p Policy) float64 {
	total := p.WMarket + p.WComp
	if total <= 0 {
		return 0
	}
	return (p.WMarket*market + p.WComp*competitor) / total
}

// Confidence rewards distance from the 0.5 midpoint, agreement between the
// two branches and evidence volume, weighted 0.4/0.4/0.2.
func Confidence(final, market, competitor float64, sources int) float64 {
	if sources < 0 {
		sources = 0
	}
	dist := math.Abs(final - 0.5)
	align := 1 - math.Abs(market-competitor)
	volume := math.Min(1, 0.2+0.15*float64(sources))
	return math.Max(0, math.Min(1, 0.4*dist+0.4*align+0.2*volume))
}

// DistinctSources concatenates the lists, dropping blanks and repeats while
// keeping first-seen order. The result is never nil.
func DistinctSources(lists ...[]string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, l := range lists {
		for _, s := range l {
			s = strings.TrimSpace(s)
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func rationale(in Input, final float64, p Policy) []string {
	bullets := []string{
		fmt.Sprintf("market score=%.2f (weight %.2f)", in.MarketScore, p.WMarket),
		fmt.Sprintf("competitor score=%.2f (weight %.2f)", in.CompetitorScore, p.WComp),
		fmt.Sprintf("weighted final score=%.2f (yes threshold %.2f, maybe threshold %.2f)", final, p.YesThreshold, p.MaybeThreshold),
	}
	if len(in.Positives) > 0 {
		bullets = append(bullets, "market strengths: "+strings.Join(head(in.Positives, maxListedItems), "; "))
	}
	if len(in.Risks) > 0 {
		bullets = append(bullets, "market risks: "+strings.Join(head(in.Risks, maxListedItems), "; "))
	}
	if top := topCompetitors(in.Competitors, maxListedCompetitors); len(top) > 0 {
		bullets = append(bullets, "top competitors: "+strings.Join(top, "; "))
	}
	return bullets
}

func topCompetitors(items []scoring.CompetitorItem, n int) []string {
	sorted := append([]scoring.CompetitorItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Rating > sorted[j].Rating })
	var out []string
	for _, it := range head(sorted, n) {
		name := it.Name
		if name == "" {
			name = "?"
		}
		out = append(out, fmt.Sprintf("%s:%d", name, it.Rating))
	}
	return out
}

func nextActions(v Verdict) []string {
	if v == Yes {
		return append([]string(nil), yesActions...)
	}
	return append([]string(nil), noActions...)
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
