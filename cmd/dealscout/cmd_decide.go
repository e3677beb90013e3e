package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"dealscout/internal/orchestrate"
)

var decideFlags struct {
	requestPath string
}

var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Aggregate market and competitor evaluations into a decision",
	Long: `Reads a JSON request with "market" and "competitor" (or
"competitor_analysis") evaluations and prints the decision output as JSON.
Use -f - to read from stdin.`,
	RunE: runDecide,
}

func init() {
	f := decideCmd.Flags()
	f.StringVarP(&decideFlags.requestPath, "file", "f", "", "Request JSON path, or - for stdin (required)")
	_ = decideCmd.MarkFlagRequired("file")
}

func runDecide(cmd *cobra.Command, _ []string) error {
	var data []byte
	var err error
	if decideFlags.requestPath == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(decideFlags.requestPath)
	}
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	var req orchestrate.DecideRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("parse request: %w", err)
	}
	out, err := orchestrate.Decide(req, policies(cfg))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
