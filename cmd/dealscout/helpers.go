package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"dealscout/adapters/scripted"
	"dealscout/adapters/websearch"
	"dealscout/internal/config"
	"dealscout/internal/evidence"
	"dealscout/internal/logging"
	"dealscout/internal/orchestrate"
	"dealscout/internal/report"
	"dealscout/internal/store"
	"dealscout/internal/telemetry"
)

func policies(c config.Config) orchestrate.Policies {
	return orchestrate.Policies{
		Decision: c.Decision,
		Scoring:  c.Scoring,
		Limits:   c.Evidence,
	}
}

// openStore opens the configured backend. dbPath, when set, forces SQLite
// at that path.
func openStore(c config.Config, dbPath string) (store.Store, error) {
	if dbPath != "" {
		return store.Open(dbPath)
	}
	switch c.Store.Driver {
	case "mysql":
		m := c.Store.MySQL
		return store.OpenMySQL(store.MySQLDSN(m.Host, m.Port, m.Username, m.Password, m.Database))
	default:
		return store.Open(c.Store.Path)
	}
}

// loadScenario resolves an embedded scenario name or a YAML file path.
func loadScenario(nameOrPath string) (*scripted.Scenario, error) {
	if _, err := os.Stat(nameOrPath); err == nil {
		return scripted.LoadScenarioFile(nameOrPath)
	}
	return scripted.LoadScenario(nameOrPath)
}

// searcher returns the configured live web searcher, or nil for "none".
func searcher(c config.SearchConfig) evidence.WebSearcher {
	opts := websearch.Options{
		FeedURL:  c.FeedURL,
		Language: c.Language,
		Region:   c.Region,
		Limit:    c.Limit,
		Timeout:  c.Timeout,
	}
	switch c.Provider {
	case "news":
		return websearch.NewNewsSearch(opts)
	case "browser":
		return websearch.NewBrowserSearch(opts)
	default:
		return nil
	}
}

func renderers(formats []string, dir string) ([]report.Renderer, error) {
	var out []report.Renderer
	seen := make(map[string]bool)
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		r, err := report.NewRenderer(f, dir)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// observer returns the log observer, plus Prometheus metrics when metricsAddr
// is set. The metrics endpoint is served in the background until stop is
// called.
func observer(metricsAddr string) (obs evidence.Observer, stop func()) {
	logObs := &evidence.LogObserver{Logger: logging.New("evidence")}
	if metricsAddr == "" {
		return logObs, func() {}
	}
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)
	srv := &http.Server{
		Addr:              metricsAddr,
		Handler:           telemetry.Handler(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	log := logging.New("telemetry")
	go func() {
		log.Info("serving metrics", "addr", metricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", "error", err)
		}
	}()
	stop = func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Warn("metrics server shutdown", "error", err)
		}
	}
	return evidence.MultiObserver{logObs, metrics}, stop
}

func splitFormats(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
