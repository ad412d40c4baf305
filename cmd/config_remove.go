package cmd

import (
	"fmt"

	"github.com/brogergvhs/genrescrape/internal/config"
	"github.com/brogergvhs/genrescrape/internal/ui"

	"github.com/spf13/cobra"
)

var forceRemove bool

var configRemoveCmd = &cobra.Command{
	Use:   "remove <label>",
	Short: "Remove a config and its .local overrides",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		label := args[0]
		out := cmd.OutOrStdout()

		active, _ := config.CurrentLabel()
		if label == active && !forceRemove {
			if !ui.Confirm(fmt.Sprintf("Config %q is currently active. Remove it anyway", label)) {
				fmt.Fprintln(out, "Aborted.")
				return nil
			}
		}

		if err := config.RemoveConfig(label); err != nil {
			return err
		}
		if label == active {
			fmt.Fprintln(out, "Fallback switched to:", config.DefaultLabel)
		}

		fmt.Fprintf(out, "Removed configuration %q\n", label)
		return nil
	},
}

func init() {
	configRemoveCmd.Flags().BoolVarP(&forceRemove, "force", "f", false, "remove the active config without asking")
	configCmd.AddCommand(configRemoveCmd)
}
