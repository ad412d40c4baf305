package cmd

import (
	"fmt"
	"os"

	"github.com/brogergvhs/genrescrape/internal/config"
	"github.com/brogergvhs/genrescrape/internal/ui"

	"github.com/spf13/cobra"
)

var (
	flagIgnoreConfig bool
	flagVerbose      int
)

var rootCmd = &cobra.Command{
	Use:           "genrescrape",
	Short:         "Map streaming-site genre numbers to their titles",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadEnv()
	},
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&flagVerbose, "verbose", "v", "more logging (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVar(&flagIgnoreConfig, "ignore-config", false, "ignore config and use only CLI flags")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig merges the active config with the persistent flags and the
// command specific overrides.
func loadConfig(overrides config.Config) (*config.Config, string, error) {
	overrides.Verbosity = flagVerbose
	return config.LoadMerged(config.Options{
		IgnoreConfig: flagIgnoreConfig,
		Overrides:    overrides,
	})
}

func newLogger(cmd *cobra.Command, cfg *config.Config) *ui.Logger {
	return ui.NewLoggerTo(cmd.ErrOrStderr(), ui.LevelFromVerbosity(cfg.Verbosity))
}
