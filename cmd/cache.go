package cmd

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/brogergvhs/genrescrape/internal/config"
	"github.com/brogergvhs/genrescrape/internal/genrecache"
	"github.com/brogergvhs/genrescrape/internal/ui"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var flagYes bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the genre cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every cached genre number",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCacheFromFlags()
		if err != nil {
			return err
		}
		defer store.Close()

		type row struct {
			number int
			key    string
			entry  *genrecache.Entry
		}
		var rows []row
		err = store.Each(func(key string, e *genrecache.Entry) error {
			n, convErr := strconv.Atoi(key)
			if convErr != nil {
				n = -1
			}
			rows = append(rows, row{number: n, key: key, entry: e})
			return nil
		})
		if err != nil {
			return err
		}
		slices.SortFunc(rows, func(a, b row) int { return a.number - b.number })

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"#", "Title", "URL"})

		absent := 0
		for _, r := range rows {
			if r.entry == nil {
				absent++
				t.AppendRow(table.Row{r.key, "(absent)", ""})
				continue
			}
			t.AppendRow(table.Row{r.key, r.entry.Title, r.entry.URL})
		}
		t.AppendFooter(table.Row{"", fmt.Sprintf("%d titles, %d absent", len(rows)-absent, absent), ""})

		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every entry from the genre cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !flagYes && !ui.Confirm("Clear the genre cache") {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}

		store, err := openCacheFromFlags()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Clear(); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
		return nil
	},
}

func openCacheFromFlags() (genrecache.Store, error) {
	cfg, _, err := loadConfig(config.Config{
		CachePath:    flagCachePath,
		CacheBackend: flagBackend,
	})
	if err != nil {
		return nil, err
	}

	return openCacheFunc(cfg)()
}

func init() {
	addCacheFlags(cacheListCmd)
	addCacheFlags(cacheClearCmd)
	cacheClearCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "do not ask for confirmation")

	cacheCmd.AddCommand(cacheListCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
