package cmd

import (
	"fmt"
	"os"

	"github.com/brogergvhs/genrescrape/internal/config"
	"github.com/brogergvhs/genrescrape/internal/report"

	"github.com/spf13/cobra"
)

func init() {
	recoverCmd := &cobra.Command{
		Use:   "recover FILE",
		Short: "Rebuild the genre cache from a saved scan report",
		Args:  cobra.ExactArgs(1),
		RunE:  runRecover,
	}
	addCacheFlags(recoverCmd)

	rootCmd.AddCommand(recoverCmd)
}

func runRecover(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(config.Config{
		CachePath:    flagCachePath,
		CacheBackend: flagBackend,
	})
	if err != nil {
		return err
	}
	log := newLogger(cmd, cfg)

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	store, err := openCacheFunc(cfg)()
	if err != nil {
		return err
	}
	defer store.Close()

	log.Infof("Recovering cache from %s", args[0])
	n, err := report.Recover(f, store, log)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Recovered %d entries\n", n)
	return nil
}
