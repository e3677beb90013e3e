package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dealscout/internal/criteria"
	"dealscout/internal/format"
)

var questionsFlags struct {
	path string
}

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "List the criterion questions evidence is gathered against",
	RunE:  runQuestions,
}

func init() {
	questionsCmd.Flags().StringVar(&questionsFlags.path, "file", "", "YAML or JSON question set (default: config, then the built-in market set)")
}

func runQuestions(cmd *cobra.Command, _ []string) error {
	path := questionsFlags.path
	if path == "" {
		path = cfg.Questions
	}
	set := criteria.DefaultMarket()
	if path != "" {
		var err error
		if set, err = criteria.LoadFromPath(path); err != nil {
			return err
		}
	}

	tbl := format.NewTable(format.ASCII)
	tbl.Title(fmt.Sprintf("Question set: %s", set.Name))
	tbl.Header("#", "Key", "Question")
	tbl.Columns(format.ColumnConfig{Number: 3, MaxWidth: 80})
	for i, q := range set.Questions {
		tbl.Row(i+1, q.Key, q.Prompt)
	}
	fmt.Fprintln(cmd.OutOrStdout(), tbl.String())
	return nil
}
