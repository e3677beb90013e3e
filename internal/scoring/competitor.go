package scoring

// CompetitorItem rates the target against one competitor, 1 (far behind)
// to 5 (clearly ahead).
type CompetitorItem struct {
	Name   string `json:"name" yaml:"name" validate:"required"`
	Rating int    `json:"rating" yaml:"rating"`
	Notes  string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// CompetitorEvaluation is the competitor assessment handed to the aggregator.
type CompetitorEvaluation struct {
	TargetName      string           `json:"target_name,omitempty" yaml:"target_name,omitempty"`
	Items           []CompetitorItem `json:"items" yaml:"items" validate:"dive"`
	EvidenceSources []string         `json:"evidence_sources,omitempty" yaml:"evidence_sources,omitempty"`
}

// NormalizeCompetitor clamps each rating to [1,5], averages them and maps
// 1 to 0.0 and 5 to 1.0. No items scores 0.
func NormalizeCompetitor(c CompetitorEvaluation) float64 {
	if len(c.Items) == 0 {
		return 0
	}
	var sum int
	for _, it := range c.Items {
		sum += clampRating(it.Rating)
	}
	avg := float64(sum) / float64(len(c.Items))
	return clamp01((avg - 1) / 4)
}

func clampRating(r int) int {
	if r < 1 {
		return 1
	}
	if r > 5 {
		return 5
	}
	return r
}
