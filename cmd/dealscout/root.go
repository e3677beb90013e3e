package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dealscout/internal/config"
	"dealscout/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

// cfg is loaded once before any subcommand runs.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "dealscout",
	Short: "Evidence-gated startup investment screening",
	Long: "dealscout gathers evidence for a fixed set of criterion questions,\n" +
		"normalizes market and competitor evaluations and aggregates them\n" +
		"into a YES/NO investment decision with confidence and rationale.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.configPath, "config", "", "YAML config file")
	pf.StringVar(&rootFlags.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	pf.StringVar(&rootFlags.logFormat, "log-format", "", "Log format: text or json (overrides config)")

	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(decideCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(scenariosCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(rootFlags.configPath)
	if err != nil {
		return err
	}
	if rootFlags.logLevel != "" {
		c.Log.Level = rootFlags.logLevel
	}
	if rootFlags.logFormat != "" {
		c.Log.Format = rootFlags.logFormat
	}
	logging.Init(logging.ParseLevel(c.Log.Level), c.Log.Format, cmd.ErrOrStderr())
	cfg = c
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
