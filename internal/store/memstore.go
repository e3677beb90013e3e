package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"dealscout/internal/report"
)

// MemStore is an in-memory Store for tests and one-shot CLI runs.
type MemStore struct {
	mu      sync.Mutex
	reports map[string][]byte
	runs    map[string]Run
	ledgers map[string][]LedgerRow
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		reports: make(map[string][]byte),
		runs:    make(map[string]Run),
		ledgers: make(map[string][]LedgerRow),
	}
}

func (s *MemStore) SaveReport(rep *report.Report) error {
	if rep == nil || rep.RunID == "" {
		return errors.New("save report: run ID is required")
	}
	// Stored as JSON so callers cannot mutate a saved report.
	payload, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[rep.RunID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateRun, rep.RunID)
	}
	s.reports[rep.RunID] = payload
	s.runs[rep.RunID] = runFromReport(rep)
	s.ledgers[rep.RunID] = ledgerRows(rep)
	return nil
}

func (s *MemStore) GetReport(runID string) (*report.Report, error) {
	s.mu.Lock()
	payload, ok := s.reports[runID]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	var rep report.Report
	if err := json.Unmarshal(payload, &rep); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", runID, err)
	}
	return &rep, nil
}

func (s *MemStore) ListReports(limit int) ([]Run, error) {
	s.mu.Lock()
	out := make([]Run, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].RunID < out[j].RunID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemStore) ListLedger(runID string) ([]LedgerRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LedgerRow(nil), s.ledgers[runID]...), nil
}

func (s *MemStore) Close() error { return nil }
