package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/brogergvhs/genrescrape/internal/config"
	"github.com/brogergvhs/genrescrape/internal/ui"

	"github.com/spf13/cobra"
)

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the Default config",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		defaultPath, err := config.ConfigPathByLabel(config.DefaultLabel)
		if err != nil {
			return err
		}

		if _, err := os.Stat(defaultPath); err == nil {
			fmt.Fprintln(out, "Configuration already exists at:")
			fmt.Fprintln(out, "  ", defaultPath)
			fmt.Fprintln(out, "Use `genrescrape config reset` to recreate it.")
			return nil
		}

		fmt.Fprintln(out, "Configuration file will be saved at:")
		fmt.Fprintln(out, "  ", defaultPath)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Default configuration:")
		config.DefaultConfig().Print(out)
		fmt.Fprintln(out)

		if !ui.Confirm("Create Default config") {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}

		path, err := config.InitDefaultConfig()
		if err != nil && !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("failed to write config file: %w", err)
		}

		fmt.Fprintln(out, "Config created at:", path)
		fmt.Fprintln(out, "This config is now active (label: Default).")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
}
