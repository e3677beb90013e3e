package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dealscout/internal/format"
	"dealscout/internal/report"
)

var historyFlags struct {
	dbPath string
	limit  int
	asMD   bool
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse stored evaluation runs",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one stored run with its evidence ledger",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	pf := historyCmd.PersistentFlags()
	pf.StringVar(&historyFlags.dbPath, "db", "", "SQLite database path (overrides the configured store)")
	historyListCmd.Flags().IntVarP(&historyFlags.limit, "limit", "n", 20, "Maximum runs to list (0 = all)")
	historyShowCmd.Flags().BoolVar(&historyFlags.asMD, "markdown", false, "Print the full Markdown report")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	st, err := openStore(cfg, historyFlags.dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	runs, err := st.ListReports(historyFlags.limit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No stored runs.")
		return nil
	}
	tbl := format.NewTable(format.ASCII)
	tbl.Header("Run", "Startup", "Decision", "Confidence", "Final", "Aborted", "Created")
	for _, r := range runs {
		tbl.Row(r.RunID, r.Startup, r.Decision, format.Score(r.Confidence), format.Score(r.FinalScore),
			format.BoolMark(r.Aborted), r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintln(out, tbl.String())
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	st, err := openStore(cfg, historyFlags.dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	rep, err := st.GetReport(args[0])
	if err != nil {
		return err
	}
	if rep == nil {
		return fmt.Errorf("no stored run %s", args[0])
	}
	out := cmd.OutOrStdout()
	if historyFlags.asMD {
		fmt.Fprint(out, report.Markdown(rep))
		return nil
	}
	fmt.Fprintf(out, "Startup:   %s\n", rep.Startup.Name)
	fmt.Fprintf(out, "Run:       %s\n", rep.RunID)
	fmt.Fprintf(out, "Created:   %s\n", rep.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Decision:  %s (confidence %s)\n\n", rep.Decision.Decision, format.Score(rep.Decision.Confidence))
	fmt.Fprintln(out, report.ScoreTable(rep, format.ASCII))
	fmt.Fprintln(out, report.LedgerTable(rep.Ledger, format.ASCII, 60))
	return nil
}
