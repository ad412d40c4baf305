package cmd

import (
	"github.com/brogergvhs/genrescrape/internal/config"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available configs",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := config.ListConfigs()
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"Label", "Path", "Active"})

		for _, c := range list {
			active := ""
			if c.Active {
				active = "yes"
			}
			t.AppendRow(table.Row{c.Label, c.Path, active})
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}

func init() {
	configCmd.AddCommand(configListCmd)
}
