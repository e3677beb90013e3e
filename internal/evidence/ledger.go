package evidence

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEntryExists is returned when a key is recorded twice.
var ErrEntryExists = errors.New("evidence: ledger entry already recorded")

// LedgerEntry is the terminal outcome for one question.
type LedgerEntry struct {
	Question     string   `json:"question"`
	Answer       string   `json:"answer"`
	RewriteCount int      `json:"rewrite_count"`
	FallbackUsed bool     `json:"fallback_used"`
	Status       Status   `json:"status"`
	Sources      []string `json:"sources,omitempty"`
}

// Ledger is an append-only, insertion-ordered map of question key to entry.
// Not safe for concurrent writers.
type Ledger struct {
	keys    []string
	entries map[string]LedgerEntry
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string]LedgerEntry)}
}

// Record writes the entry for key. A key can be written once.
func (l *Ledger) Record(key string, e LedgerEntry) error {
	if l.entries == nil {
		l.entries = make(map[string]LedgerEntry)
	}
	if _, ok := l.entries[key]; ok {
		return fmt.Errorf("%w: %s", ErrEntryExists, key)
	}
	e.Sources = append([]string(nil), e.Sources...)
	l.entries[key] = e
	l.keys = append(l.keys, key)
	return nil
}

// Get returns the entry for key.
func (l *Ledger) Get(key string) (LedgerEntry, bool) {
	e, ok := l.entries[key]
	return e, ok
}

// Has reports whether key has been recorded.
func (l *Ledger) Has(key string) bool {
	_, ok := l.entries[key]
	return ok
}

// Len returns the number of recorded entries.
func (l *Ledger) Len() int { return len(l.keys) }

// Keys returns recorded keys in insertion order.
func (l *Ledger) Keys() []string {
	return append([]string(nil), l.keys...)
}

// Each calls fn for every entry in insertion order.
func (l *Ledger) Each(fn func(key string, e LedgerEntry)) {
	for _, k := range l.keys {
		fn(k, l.entries[k])
	}
}

// Sources returns the distinct evidence sources across all entries, in
// first-seen order.
func (l *Ledger) Sources() []string {
	seen := make(map[string]bool)
	var out []string
	l.Each(func(_ string, e LedgerEntry) {
		for _, s := range e.Sources {
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	})
	return out
}

// Summary counts outcomes by status.
type Summary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Summary returns success and failure counts.
func (l *Ledger) Summary() Summary {
	var s Summary
	l.Each(func(_ string, e LedgerEntry) {
		s.Total++
		switch e.Status {
		case StatusSuccess:
			s.Succeeded++
		case StatusFailed:
			s.Failed++
		}
	})
	return s
}

// MarshalJSON encodes the ledger as an object whose keys keep insertion order.
func (l *Ledger) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range l.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(l.entries[k])
		if err != nil {
			return nil, fmt.Errorf("marshal ledger entry %s: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object, preserving the key order of the input.
func (l *Ledger) UnmarshalJSON(data []byte) error {
	l.keys = nil
	l.entries = make(map[string]LedgerEntry)
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode ledger: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("decode ledger: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode ledger key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("decode ledger: unexpected key %v", tok)
		}
		var e LedgerEntry
		if err := dec.Decode(&e); err != nil {
			return fmt.Errorf("decode ledger entry %s: %w", key, err)
		}
		if err := l.Record(key, e); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decode ledger: %w", err)
	}
	return nil
}
