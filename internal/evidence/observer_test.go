package evidence

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestLogObserver_CapabilityFailureWarns(t *testing.T) {
	var buf bytes.Buffer
	obs := &LogObserver{Logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	obs.OnEvent(Event{
		Type:        EventCapability,
		Step:        StepRetrieve,
		QuestionKey: "market_size",
		Outcome:     &Outcome{Capability: CapRetrieve, Err: errors.New("index offline")},
	})
	out := buf.String()
	for _, want := range []string{"level=WARN", "question=market_size", "capability=retrieve", "index offline"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %s", want, out)
		}
	}
}

func TestMultiObserver_FansOut(t *testing.T) {
	var a, b int
	m := MultiObserver{
		ObserverFunc(func(Event) { a++ }),
		nil,
		ObserverFunc(func(Event) { b++ }),
	}
	m.OnEvent(Event{Type: EventTransition})
	if a != 1 || b != 1 {
		t.Errorf("a=%d b=%d", a, b)
	}
}

func TestTraceCollector_Reset(t *testing.T) {
	tc := &TraceCollector{}
	tc.OnEvent(Event{Type: EventTransition})
	tc.OnEvent(Event{Type: EventRunComplete})
	if len(tc.Events()) != 2 || len(tc.EventsOfType(EventRunComplete)) != 1 {
		t.Fatalf("unexpected events: %+v", tc.Events())
	}
	tc.Reset()
	if len(tc.Events()) != 0 {
		t.Error("reset did not clear events")
	}
}
