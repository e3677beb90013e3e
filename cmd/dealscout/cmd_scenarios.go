package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dealscout/adapters/scripted"
	"dealscout/internal/format"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the embedded scripted scenarios",
	RunE: func(cmd *cobra.Command, _ []string) error {
		tbl := format.NewTable(format.ASCII)
		tbl.Header("Scenario", "Startup", "Questions", "Description")
		tbl.Columns(format.ColumnConfig{Number: 4, MaxWidth: 60})
		for _, name := range scripted.ListScenarios() {
			sc, err := scripted.LoadScenario(name)
			if err != nil {
				return err
			}
			set, err := sc.QuestionSet()
			if err != nil {
				return err
			}
			tbl.Row(name, sc.Startup.Name, set.Len(), sc.Description)
		}
		fmt.Fprintln(cmd.OutOrStdout(), tbl.String())
		return nil
	},
}
