package evidence

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// EventType classifies controller events.
type EventType string

const (
	EventCapability    EventType = "capability"
	EventTransition    EventType = "transition"
	EventEntryRecorded EventType = "entry_recorded"
	EventRunComplete   EventType = "run_complete"
	EventRunAborted    EventType = "run_aborted"
)

// Event is a single observation from a controller run. Metadata is the
// extension point for fields that do not warrant a struct member.
type Event struct {
	Type        EventType
	Step        Step
	Next        Step
	Rule        string
	QuestionKey string
	Outcome     *Outcome
	Entry       *LedgerEntry
	Elapsed     time.Duration
	Error       error
	Metadata    map[string]any
}

// Observer receives controller events.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }

// MultiObserver fans out events to several observers.
type MultiObserver []Observer

func (m MultiObserver) OnEvent(e Event) {
	for _, obs := range m {
		if obs != nil {
			obs.OnEvent(e)
		}
	}
}

type nopObserver struct{}

func (nopObserver) OnEvent(Event) {}

// LogObserver writes events as structured slog lines. Capability failures
// and aborts log at Warn, everything else at Debug.
type LogObserver struct {
	Logger *slog.Logger
}

func (o *LogObserver) OnEvent(e Event) {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []slog.Attr{slog.String("event", string(e.Type))}
	if e.QuestionKey != "" {
		attrs = append(attrs, slog.String("question", e.QuestionKey))
	}
	if e.Step != "" {
		attrs = append(attrs, slog.String("step", string(e.Step)))
	}
	if e.Next != "" {
		attrs = append(attrs, slog.String("next", string(e.Next)))
	}
	if e.Rule != "" {
		attrs = append(attrs, slog.String("rule", e.Rule))
	}
	level := slog.LevelDebug
	if e.Outcome != nil {
		attrs = append(attrs,
			slog.String("capability", string(e.Outcome.Capability)),
			slog.Bool("ok", e.Outcome.OK),
			slog.Duration("elapsed", e.Outcome.Elapsed),
		)
		if e.Outcome.Err != nil {
			attrs = append(attrs, slog.String("error", e.Outcome.Err.Error()))
			level = slog.LevelWarn
		}
	}
	if e.Entry != nil {
		attrs = append(attrs,
			slog.String("status", string(e.Entry.Status)),
			slog.Int("rewrites", e.Entry.RewriteCount),
			slog.Bool("fallback", e.Entry.FallbackUsed),
		)
		level = slog.LevelInfo
	}
	if e.Elapsed > 0 {
		attrs = append(attrs, slog.Duration("run_elapsed", e.Elapsed))
	}
	if e.Error != nil {
		attrs = append(attrs, slog.String("error", e.Error.Error()))
	}
	switch e.Type {
	case EventRunAborted:
		level = slog.LevelWarn
	case EventRunComplete:
		level = slog.LevelInfo
	}
	logger.LogAttrs(context.Background(), level, "evidence", attrs...)
}

// TraceCollector accumulates events in memory. Safe for concurrent use.
type TraceCollector struct {
	mu     sync.Mutex
	events []Event
}

func (t *TraceCollector) OnEvent(e Event) {
	t.mu.Lock()
	t.events = append(t.events, e)
	t.mu.Unlock()
}

// Events returns a copy of all collected events.
func (t *TraceCollector) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Event, len(t.events))
	copy(out, t.events)
	return out
}

// EventsOfType returns only events matching typ.
func (t *TraceCollector) EventsOfType(typ EventType) []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Event
	for _, e := range t.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// Reset clears collected events.
func (t *TraceCollector) Reset() {
	t.mu.Lock()
	t.events = nil
	t.mu.Unlock()
}
