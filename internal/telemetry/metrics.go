// Package telemetry exports controller events as Prometheus metrics.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dealscout/internal/evidence"
)

const namespace = "dealscout"

// Metrics implements evidence.Observer. Safe for concurrent use.
type Metrics struct {
	CapabilityCalls   *prometheus.CounterVec
	CapabilityLatency *prometheus.HistogramVec
	Transitions       *prometheus.CounterVec
	Entries           *prometheus.CounterVec
	Rewrites          prometheus.Counter
	Fallbacks         prometheus.Counter
	Runs              *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CapabilityCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capability_calls_total",
			Help:      "Capability invocations by capability and result (ok, error, skipped).",
		}, []string{"capability", "result"}),
		CapabilityLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "capability_duration_seconds",
			Help:      "Capability call latency.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 7),
		}, []string{"capability"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Controller transitions by rule ID.",
		}, []string{"rule"}),
		Entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_entries_total",
			Help:      "Ledger entries recorded by status.",
		}, []string{"status"}),
		Rewrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "question_rewrites_total",
			Help:      "Query rewrites spent by resolved questions.",
		}),
		Fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "web_fallbacks_total",
			Help:      "Questions that used the web-search fallback.",
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Controller runs by result (complete, aborted).",
		}, []string{"result"}),
	}
	reg.MustRegister(m.CapabilityCalls, m.CapabilityLatency, m.Transitions, m.Entries, m.Rewrites, m.Fallbacks, m.Runs)
	return m
}

// OnEvent implements evidence.Observer.
func (m *Metrics) OnEvent(e evidence.Event) {
	switch e.Type {
	case evidence.EventCapability:
		if e.Outcome == nil {
			return
		}
		o := e.Outcome
		result := "ok"
		switch {
		case o.Err != nil:
			result = "error"
		case !o.OK:
			result = "skipped"
		}
		m.CapabilityCalls.WithLabelValues(string(o.Capability), result).Inc()
		if result != "skipped" {
			m.CapabilityLatency.WithLabelValues(string(o.Capability)).Observe(o.Elapsed.Seconds())
		}
	case evidence.EventTransition:
		m.Transitions.WithLabelValues(e.Rule).Inc()
	case evidence.EventEntryRecorded:
		if e.Entry == nil {
			return
		}
		m.Entries.WithLabelValues(string(e.Entry.Status)).Inc()
		m.Rewrites.Add(float64(e.Entry.RewriteCount))
		if e.Entry.FallbackUsed {
			m.Fallbacks.Inc()
		}
	case evidence.EventRunComplete:
		m.Runs.WithLabelValues("complete").Inc()
	case evidence.EventRunAborted:
		m.Runs.WithLabelValues("aborted").Inc()
	}
}

// Handler serves the metrics in g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
