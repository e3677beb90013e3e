package decision

import (
	"math"
	"strings"
	"testing"

	"dealscout/internal/scoring"

	"github.com/google/go-cmp/cmp"
)

func srcs(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = string(rune('a'+i)) + ".pdf"
	}
	return out
}

func TestAggregate_AlignedHighScoresYes(t *testing.T) {
	out := Aggregate(Input{MarketScore: 0.8, CompetitorScore: 0.8, Sources: srcs(3)}, DefaultPolicy())
	if out.Decision != Yes {
		t.Fatalf("decision: %s", out.Decision)
	}
	if out.ScoreBreakdown.Final != 0.8 {
		t.Errorf("final: %v", out.ScoreBreakdown.Final)
	}
	// 0.4*0.3 + 0.4*1 + 0.2*0.65
	if out.Confidence != 0.65 {
		t.Errorf("confidence: %v", out.Confidence)
	}
	if diff := cmp.Diff(yesActions, out.NextActions); diff != "" {
		t.Errorf("next actions (-want +got):\n%s", diff)
	}
}

func TestAggregate_MidpointNoWithLowConfidence(t *testing.T) {
	out := Aggregate(Input{MarketScore: 0.5, CompetitorScore: 0.5, Sources: srcs(1)}, DefaultPolicy())
	if out.Decision != No {
		t.Fatalf("decision: %s", out.Decision)
	}
	if out.ScoreBreakdown.Final != 0.5 {
		t.Errorf("final: %v", out.ScoreBreakdown.Final)
	}
	// 0 + 0.4*1 + 0.2*0.35
	if out.Confidence != 0.47 {
		t.Errorf("confidence: %v", out.Confidence)
	}
	if diff := cmp.Diff(noActions, out.NextActions); diff != "" {
		t.Errorf("next actions (-want +got):\n%s", diff)
	}
}

func TestAggregate_MaybeBandCollapsesToNo(t *testing.T) {
	out := Aggregate(Input{MarketScore: 0.58, CompetitorScore: 0.58, Sources: srcs(2)}, DefaultPolicy())
	if out.Decision != No {
		t.Errorf("decision in maybe band: %s", out.Decision)
	}
}

func TestAggregate_ThresholdIsInclusive(t *testing.T) {
	p := DefaultPolicy()
	p.WMarket, p.WComp = 1, 0
	out := Aggregate(Input{MarketScore: p.YesThreshold, Sources: srcs(1)}, p)
	if out.Decision != Yes {
		t.Errorf("final == threshold should be YES, got %s", out.Decision)
	}
}

func TestAggregate_EvidenceGate(t *testing.T) {
	in := Input{
		MarketScore:     0.95,
		CompetitorScore: 1,
		Risks:           []string{"reimbursement uncertainty"},
	}
	out := Aggregate(in, DefaultPolicy())
	want := Output{
		Decision:    No,
		Confidence:  0,
		Rationale:   []string{"insufficient evidence sources"},
		Risks:       []string{"reimbursement uncertainty"},
		NextActions: []string{"gather more evidence"},
		UsedSources: []string{},
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("gate output (-want +got):\n%s", diff)
	}
}

func TestAggregate_GateCountsDistinctSources(t *testing.T) {
	p := DefaultPolicy()
	p.MinSources = 2
	out := Aggregate(Input{MarketScore: 0.9, CompetitorScore: 0.9, Sources: []string{"deck.pdf", "deck.pdf", " "}}, p)
	if out.Decision != No || out.Confidence != 0 {
		t.Errorf("duplicates must not satisfy the gate: %+v", out)
	}
	if diff := cmp.Diff([]string{"deck.pdf"}, out.UsedSources); diff != "" {
		t.Errorf("used sources (-want +got):\n%s", diff)
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	in := Input{
		MarketScore:     0.71,
		CompetitorScore: 0.43,
		Sources:         srcs(4),
		Positives:       []string{"p1"},
		Risks:           []string{"r1"},
		Competitors:     []scoring.CompetitorItem{{Name: "A", Rating: 3}, {Name: "B", Rating: 5}},
	}
	first := Aggregate(in, DefaultPolicy())
	for i := 0; i < 10; i++ {
		if diff := cmp.Diff(first, Aggregate(in, DefaultPolicy())); diff != "" {
			t.Fatalf("run %d differs:\n%s", i, diff)
		}
	}
}

func TestAggregate_ClampsInputScores(t *testing.T) {
	tests := []struct {
		name   string
		market float64
		comp   float64
		want   ScoreBreakdown
	}{
		{"above and below range", 1.8, -0.5, ScoreBreakdown{Market: 1, Competitor: 0, Final: 0.6}},
		{"NaN market", math.NaN(), 0.9, ScoreBreakdown{Market: 0, Competitor: 0.9, Final: 0.36}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Aggregate(Input{MarketScore: tt.market, CompetitorScore: tt.comp, Sources: srcs(1)}, DefaultPolicy())
			if diff := cmp.Diff(tt.want, out.ScoreBreakdown); diff != "" {
				t.Errorf("breakdown (-want +got):\n%s", diff)
			}
			if out.Decision != No {
				t.Errorf("decision: %s", out.Decision)
			}
			if out.Confidence < 0 || out.Confidence > 1 {
				t.Errorf("confidence out of range: %v", out.Confidence)
			}
		})
	}
}

func TestAggregate_ZeroWeightsGiveZeroFinal(t *testing.T) {
	p := DefaultPolicy()
	p.WMarket, p.WComp = 0, 0
	out := Aggregate(Input{MarketScore: 1, CompetitorScore: 1, Sources: srcs(1)}, p)
	if out.ScoreBreakdown.Final != 0 || out.Decision != No {
		t.Errorf("got %+v", out.ScoreBreakdown)
	}
}

func TestAggregate_RationaleOrder(t *testing.T) {
	in := Input{
		MarketScore:     0.84,
		CompetitorScore: 0.75,
		Sources:         srcs(2),
		Positives:       []string{"p1", "p2", "p3", "p4", "p5", "p6"},
		Risks:           []string{"r1"},
		Competitors: []scoring.CompetitorItem{
			{Name: "Low", Rating: 2},
			{Name: "HighA", Rating: 5},
			{Name: "Mid", Rating: 4},
			{Name: "HighB", Rating: 5},
		},
	}
	out := Aggregate(in, DefaultPolicy())
	want := []string{
		"market score=0.84 (weight 0.60)",
		"competitor score=0.75 (weight 0.40)",
		"weighted final score=0.80 (yes threshold 0.62, maybe threshold 0.52)",
		"market strengths: p1; p2; p3; p4; p5",
		"market risks: r1",
		"top competitors: HighA:5; HighB:5; Mid:4",
	}
	if diff := cmp.Diff(want, out.Rationale); diff != "" {
		t.Errorf("rationale (-want +got):\n%s", diff)
	}
}

func TestAggregate_RationaleOmitsEmptySections(t *testing.T) {
	out := Aggregate(Input{MarketScore: 0.2, CompetitorScore: 0.3, Sources: srcs(1)}, DefaultPolicy())
	if len(out.Rationale) != 3 {
		t.Errorf("rationale: %v", out.Rationale)
	}
	for _, line := range out.Rationale {
		if strings.Contains(line, "competitors") {
			t.Errorf("unexpected competitor line: %q", line)
		}
	}
}

func TestConfidence_AlwaysInRange(t *testing.T) {
	for m := 0.0; m <= 1.0; m += 0.05 {
		for c := 0.0; c <= 1.0; c += 0.05 {
			for n := 0; n < 12; n++ {
				final := Combine(m, c, DefaultPolicy())
				conf := Confidence(final, m, c, n)
				if conf < 0 || conf > 1 {
					t.Fatalf("Confidence(%v, %v, %v, %d) = %v", final, m, c, n, conf)
				}
			}
		}
	}
}

func TestFromEvaluations(t *testing.T) {
	m := scoring.MarketEvaluation{
		Scorecard:       map[string]float64{"market_size": 8},
		Risks:           []string{"regulation"},
		EvidenceSources: []string{"deck.pdf", "ir.pdf"},
	}
	c := scoring.CompetitorEvaluation{
		Items:           []scoring.CompetitorItem{{Name: "A", Rating: 4}, {Name: "B", Rating: 5}},
		EvidenceSources: []string{"ir.pdf", "internal-competitor"},
	}
	in := FromEvaluations(m, c, scoring.DefaultPolicy())
	if in.MarketScore < 0.799 || in.MarketScore > 0.801 {
		t.Errorf("market score: %v", in.MarketScore)
	}
	if in.CompetitorScore != 0.875 {
		t.Errorf("competitor score: %v", in.CompetitorScore)
	}
	if diff := cmp.Diff([]string{"deck.pdf", "ir.pdf", "internal-competitor"}, in.Sources); diff != "" {
		t.Errorf("sources (-want +got):\n%s", diff)
	}
}

func TestPolicy_Validate(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Fatalf("default policy: %v", err)
	}
	p := DefaultPolicy()
	p.MaybeThreshold = 0.9
	if err := p.Validate(); err == nil {
		t.Error("maybe threshold above yes threshold should be rejected")
	}
	p = DefaultPolicy()
	p.WMarket = -1
	if err := p.Validate(); err == nil {
		t.Error("negative weight should be rejected")
	}
}
