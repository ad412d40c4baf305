package cmd

import (
	"fmt"
	"strings"

	"github.com/brogergvhs/genrescrape/internal/config"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var configAddCmd = &cobra.Command{
	Use:   "add [label]",
	Short: "Create a new config, e.g. one per account or region",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var label string
		if len(args) == 1 {
			label = args[0]
		} else {
			prompt := promptui.Prompt{Label: "Label for new config"}
			var err error
			if label, err = prompt.Run(); err != nil {
				return fmt.Errorf("label prompt: %w", err)
			}
		}

		path, err := config.CreateConfig(strings.TrimSpace(label), config.DefaultConfig())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created new config: %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configAddCmd)
}
