package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"dealscout/internal/logging"
	mcpserver "dealscout/internal/mcp"
)

var serveFlags struct {
	dbPath      string
	noStore     bool
	metricsAddr string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: `Starts an MCP server over stdin/stdout exposing the decide, normalize,
list_questions, list_scenarios and evaluate_scenario tools.

The server monitors for parent process death and exits when the client
goes away.`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.dbPath, "db", "", "SQLite database path (overrides the configured store)")
	f.BoolVar(&serveFlags.noStore, "no-store", false, "Do not record evaluate_scenario runs")
	f.StringVar(&serveFlags.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
}

func runServe(cmd *cobra.Command, _ []string) error {
	mcpserver.Version = version
	srv := mcpserver.NewServer(policies(cfg))
	obs, stopMetrics := observer(serveFlags.metricsAddr)
	defer stopMetrics()
	srv.Observer = obs
	if !serveFlags.noStore {
		st, err := openStore(cfg, serveFlags.dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()
		srv.Store = st
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	mcpserver.WatchStdin(ctx, cancel)

	logging.New("mcp").Info("starting dealscout MCP server over stdio (parent watchdog active)")
	return srv.Run(ctx)
}
