package scoring

import "strings"

// DefaultCompetitorSource is attributed to competitor evaluations derived
// from an analysis that names no sources.
const DefaultCompetitorSource = "internal-competitor"

// CompetitorAnalysis is the free-form output of a competitor research pass.
type CompetitorAnalysis struct {
	TargetName             string   `json:"target_name,omitempty" yaml:"target_name,omitempty"`
	CompetitorsFound       []string `json:"competitors_found,omitempty" yaml:"competitors_found,omitempty"`
	CompetitivePositioning string   `json:"competitive_positioning,omitempty" yaml:"competitive_positioning,omitempty"`
	Advantages             []string `json:"competitive_advantages,omitempty" yaml:"competitive_advantages,omitempty"`
	Disadvantages          []string `json:"competitive_disadvantages,omitempty" yaml:"competitive_disadvantages,omitempty"`
	EvidenceSources        []string `json:"evidence_sources,omitempty" yaml:"evidence_sources,omitempty"`
}

var positioningTiers = []struct {
	keywords []string
	rating   int
}{
	{[]string{"leader", "strong", "dominant"}, 5},
	{[]string{"competitive", "on par", "parity"}, 3},
	{[]string{"lagging", "weak", "behind"}, 2},
}

// RatingFromPositioning maps a positioning label to a 1..5 rating, then
// shifts it by one when advantages outnumber disadvantages by two or more
// (or the reverse).
func RatingFromPositioning(positioning string, advantages, disadvantages int) int {
	base := 4
	p := strings.ToLower(strings.TrimSpace(positioning))
	if p == "" {
		base = 3
	} else {
	tiers:
		for _, tier := range positioningTiers {
			for _, k := range tier.keywords {
				if strings.Contains(p, k) {
					base = tier.rating
					break tiers
				}
			}
		}
	}
	switch {
	case advantages >= disadvantages+2:
		base++
	case disadvantages >= advantages+2:
		base--
	}
	return clampRating(base)
}

// FromAnalysis converts an analysis into a rated evaluation: every one of
// the first five competitors gets the positioning rating, or a single
// "peer_avg" item stands in when none were found.
func FromAnalysis(a CompetitorAnalysis) CompetitorEvaluation {
	rating := RatingFromPositioning(a.CompetitivePositioning, len(a.Advantages), len(a.Disadvantages))

	var items []CompetitorItem
	for _, name := range a.CompetitorsFound {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		items = append(items, CompetitorItem{Name: name, Rating: rating})
		if len(items) == 5 {
			break
		}
	}
	if len(items) == 0 {
		items = []CompetitorItem{{Name: "peer_avg", Rating: rating}}
	}

	sources := append([]string(nil), a.EvidenceSources...)
	if len(sources) == 0 {
		sources = []string{DefaultCompetitorSource}
	}
	return CompetitorEvaluation{TargetName: a.TargetName, Items: items, EvidenceSources: sources}
}
