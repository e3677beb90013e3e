// Package report defines the evaluation report artifact and renders it to
// JSON, Markdown and DOCX files.
package report

import (
	"time"

	"dealscout/internal/decision"
	"dealscout/internal/evidence"
	"dealscout/internal/scoring"
)

// Startup identifies the company under evaluation.
type Startup struct {
	Name        string `json:"name" yaml:"name" validate:"required"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// MarketSection summarizes the market branch.
type MarketSection struct {
	Method    scoring.Method `json:"method"`
	Score     float64        `json:"score"`
	Positives []string       `json:"positives,omitempty"`
	Risks     []string       `json:"risks,omitempty"`
	Sources   []string       `json:"sources,omitempty"`
}

// CompetitorSection summarizes the competitor branch.
type CompetitorSection struct {
	TargetName string                   `json:"target_name,omitempty"`
	Score      float64                  `json:"score"`
	Items      []scoring.CompetitorItem `json:"items,omitempty"`
	Sources    []string                 `json:"sources,omitempty"`
}

// Report is the artifact produced by one evaluation run. It always exists,
// even when every capability failed.
type Report struct {
	RunID       string            `json:"run_id"`
	Startup     Startup           `json:"startup"`
	QuestionSet string            `json:"question_set"`
	GeneratedAt time.Time         `json:"generated_at"`
	Decision    decision.Output   `json:"decision"`
	Market      MarketSection     `json:"market"`
	Competitor  CompetitorSection `json:"competitor"`
	Ledger      *evidence.Ledger  `json:"ledger"`
	Summary     evidence.Summary  `json:"summary"`
	Steps       int               `json:"steps"`
	Aborted     bool              `json:"aborted"`
	AbortReason string            `json:"abort_reason,omitempty"`
	Warnings    []string          `json:"warnings,omitempty"`
}
