package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dealscout/adapters/scripted"
	"dealscout/internal/config"
	"dealscout/internal/evidence"
	"dealscout/internal/format"
	"dealscout/internal/logging"
	"dealscout/internal/notify"
	"dealscout/internal/orchestrate"
	"dealscout/internal/report"
	"dealscout/internal/wiring"
)

var evaluateFlags struct {
	outDir      string
	formats     string
	dbPath      string
	noStore     bool
	notify      bool
	liveSearch  bool
	metricsAddr string
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <scenario|scenario.yaml>",
	Short: "Evaluate a startup from a scripted scenario and write the report",
	Long: `Runs the full evaluation for a scenario: evidence gathering over the
scenario's questions, market and competitor branches, and aggregation.

The report is stored in the run history, written to --out in every
--format, and optionally posted to Discord with --notify.

With --live-search the scenario's scripted web results are replaced by the
configured search provider (news RSS or headless browser).`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.StringVarP(&evaluateFlags.outDir, "out", "o", "", "Report output directory (default from config)")
	f.StringVar(&evaluateFlags.formats, "format", "", "Comma-separated report formats: json, md, docx (default from config)")
	f.StringVar(&evaluateFlags.dbPath, "db", "", "SQLite database path (overrides the configured store)")
	f.BoolVar(&evaluateFlags.noStore, "no-store", false, "Do not record the run in the history store")
	f.BoolVar(&evaluateFlags.notify, "notify", false, "Post the decision to the configured Discord channel")
	f.BoolVar(&evaluateFlags.liveSearch, "live-search", false, "Use the configured web search provider for the fallback step")
	f.StringVar(&evaluateFlags.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	log := logging.New("evaluate")
	sc, err := loadScenario(args[0])
	if err != nil {
		return err
	}
	obs, stopMetrics := observer(evaluateFlags.metricsAddr)
	defer stopMetrics()
	orc, req, err := scenarioOrchestrator(sc, cfg, evaluateFlags.liveSearch, obs)
	if err != nil {
		return err
	}

	outDir := cfg.Output.Dir
	if evaluateFlags.outDir != "" {
		outDir = evaluateFlags.outDir
	}
	formats := cfg.Output.Formats
	if evaluateFlags.formats != "" {
		formats = splitFormats(evaluateFlags.formats)
	}
	rs, err := renderers(formats, outDir)
	if err != nil {
		return err
	}
	deps := wiring.Deps{Orchestrator: orc, Renderers: rs}

	if !evaluateFlags.noStore {
		st, err := openStore(cfg, evaluateFlags.dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()
		deps.Store = st
	}
	if evaluateFlags.notify {
		d, err := notify.NewDiscord(cfg.Notify.DiscordToken, cfg.Notify.DiscordChannel)
		if err != nil {
			return err
		}
		defer d.Close()
		deps.Notifier = d
	}

	res, err := wiring.Run(cmd.Context(), deps, req)
	if err != nil {
		return err
	}
	log.Info("evaluation finished", "scenario", sc.Name, "run_id", res.Report.RunID)
	printSummary(cmd, res)
	return nil
}

// scenarioOrchestrator builds an orchestrator replaying sc, optionally with a
// live web searcher in place of the scripted one.
func scenarioOrchestrator(sc *scripted.Scenario, c config.Config, live bool, obs evidence.Observer) (*orchestrate.Orchestrator, orchestrate.Request, error) {
	adapter, err := scripted.New(sc)
	if err != nil {
		return nil, orchestrate.Request{}, err
	}
	set, err := sc.QuestionSet()
	if err != nil {
		return nil, orchestrate.Request{}, err
	}
	caps := adapter.Capabilities()
	if live {
		s := searcher(c.Search)
		if s == nil {
			return nil, orchestrate.Request{}, fmt.Errorf("--live-search needs a search provider, config has %q", c.Search.Provider)
		}
		caps.Searcher = s
	}
	orc, err := orchestrate.New(caps, adapter, adapter, policies(c), orchestrate.WithObserver(obs))
	if err != nil {
		return nil, orchestrate.Request{}, err
	}
	return orc, orchestrate.Request{Startup: sc.Startup, Questions: set}, nil
}

func printSummary(cmd *cobra.Command, res *wiring.Result) {
	rep := res.Report
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Startup:    %s\n", rep.Startup.Name)
	fmt.Fprintf(out, "Run:        %s\n", rep.RunID)
	fmt.Fprintf(out, "Decision:   %s (confidence %s)\n", rep.Decision.Decision, format.Score(rep.Decision.Confidence))
	fmt.Fprintf(out, "Evidence:   %d answered, %d failed, %d steps\n", rep.Summary.Succeeded, rep.Summary.Failed, rep.Steps)
	if rep.Aborted {
		fmt.Fprintf(out, "Aborted:    %s\n", rep.AbortReason)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, report.ScoreTable(rep, format.ASCII))
	for _, w := range rep.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	for _, p := range res.Artifacts {
		fmt.Fprintf(out, "Report: %s\n", p)
	}
	if res.MessageID != "" {
		fmt.Fprintf(out, "Notified: message %s\n", res.MessageID)
	}
}
