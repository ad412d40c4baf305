package cmd

import (
	"fmt"

	"github.com/brogergvhs/genrescrape/internal/config"
	"github.com/brogergvhs/genrescrape/internal/ui"

	"github.com/spf13/cobra"
)

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Overwrite the active config with default values",
	RunE: func(cmd *cobra.Command, args []string) error {
		label, err := config.CurrentLabel()
		if err != nil {
			return err
		}
		path, err := config.ConfigPathByLabel(label)
		if err != nil {
			return err
		}

		if !flagYes && !ui.Confirm(fmt.Sprintf("Reset config %q", label)) {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}

		if err := config.SaveYAML(config.DefaultConfig(), path); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Reset config %q at %s\n", label, path)
		return nil
	},
}

func init() {
	configResetCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "do not ask for confirmation")
	configCmd.AddCommand(configResetCmd)
}
