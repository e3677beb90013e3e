// Package store persists evaluation reports and their evidence ledgers.
package store

import (
	"errors"
	"time"

	"dealscout/internal/report"
)

// DefaultDBPath is the default relative path for the SQLite DB.
// Open creates the parent directory.
const DefaultDBPath = ".dealscout/dealscout.db"

// ErrDuplicateRun is returned when a report with the same run ID exists.
var ErrDuplicateRun = errors.New("run already stored")

// Run is the summary row for one stored report.
type Run struct {
	RunID      string
	Startup    string
	Category   string
	Decision   string
	Confidence float64
	FinalScore float64
	Aborted    bool
	CreatedAt  time.Time
}

// LedgerRow is one persisted ledger entry, in question order.
type LedgerRow struct {
	RunID        string
	Position     int
	QuestionKey  string
	Question     string
	Answer       string
	Status       string
	RewriteCount int
	FallbackUsed bool
}

// Store is the persistence facade. Implementations are SQL-backed or
// in-memory.
type Store interface {
	SaveReport(rep *report.Report) error
	// GetReport returns nil, nil when runID is unknown.
	GetReport(runID string) (*report.Report, error)
	// ListReports returns the newest runs first; limit <= 0 means all.
	ListReports(limit int) ([]Run, error)
	ListLedger(runID string) ([]LedgerRow, error)
	Close() error
}

func runFromReport(rep *report.Report) Run {
	return Run{
		RunID:      rep.RunID,
		Startup:    rep.Startup.Name,
		Category:   rep.Startup.Category,
		Decision:   string(rep.Decision.Decision),
		Confidence: rep.Decision.Confidence,
		FinalScore: rep.Decision.ScoreBreakdown.Final,
		Aborted:    rep.Aborted,
		CreatedAt:  rep.GeneratedAt.UTC(),
	}
}

func ledgerRows(rep *report.Report) []LedgerRow {
	if rep.Ledger == nil {
		return nil
	}
	var rows []LedgerRow
	for i, key := range rep.Ledger.Keys() {
		e, _ := rep.Ledger.Get(key)
		rows = append(rows, LedgerRow{
			RunID:        rep.RunID,
			Position:     i,
			QuestionKey:  key,
			Question:     e.Question,
			Answer:       e.Answer,
			Status:       string(e.Status),
			RewriteCount: e.RewriteCount,
			FallbackUsed: e.FallbackUsed,
		})
	}
	return rows
}
