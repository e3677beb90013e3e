// Package wiring connects one evaluation to its sinks: the store, the
// rendered report files and the notifier.
package wiring

import (
	"context"
	"errors"
	"fmt"

	"dealscout/internal/logging"
	"dealscout/internal/orchestrate"
	"dealscout/internal/report"
	"dealscout/internal/store"
)

// Notifier announces a finished report and returns a message ID.
type Notifier interface {
	Notify(rep *report.Report) (string, error)
}

// Deps are the collaborators of a run. Store and Notifier are optional.
type Deps struct {
	Orchestrator *orchestrate.Orchestrator
	Store        store.Store
	Renderers    []report.Renderer
	Notifier     Notifier
}

// Result is what a run produced.
type Result struct {
	Report    *report.Report
	Artifacts []string
	MessageID string
}

// Run executes the full flow: Evaluate → SaveReport → Render → Notify.
// Store and render failures are returned with the partial result. A
// notifier failure is only logged.
func Run(ctx context.Context, deps Deps, req orchestrate.Request) (*Result, error) {
	if deps.Orchestrator == nil {
		return nil, errors.New("wiring: orchestrator is required")
	}
	log := logging.New("wiring")

	rep, err := deps.Orchestrator.Evaluate(ctx, req)
	if err != nil {
		return nil, err
	}
	res := &Result{Report: rep}

	if deps.Store != nil {
		if err := deps.Store.SaveReport(rep); err != nil {
			return res, fmt.Errorf("save report %s: %w", rep.RunID, err)
		}
		log.Info("report stored", "run_id", rep.RunID)
	}

	for _, r := range deps.Renderers {
		path, err := r.Render(ctx, rep)
		if err != nil {
			return res, fmt.Errorf("render report %s: %w", rep.RunID, err)
		}
		res.Artifacts = append(res.Artifacts, path)
		log.Info("report written", "run_id", rep.RunID, "path", path)
	}

	if deps.Notifier != nil {
		id, err := deps.Notifier.Notify(rep)
		if err != nil {
			log.Warn("notification failed", "run_id", rep.RunID, "error", err)
		} else {
			res.MessageID = id
		}
	}
	return res, nil
}
