// Copyright 2025 The FilmLoc Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jcodagnone/filmloc/geocode"
	"github.com/jcodagnone/filmloc/utils"
	"github.com/spf13/cobra"
)

var errNoCacheDB = errors.New("no cache database, use --cache-db")

var cacheOptions = struct {
	Resolution int
	Top        int
}{}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspects the persisted geocoding cache",
}

// withCache runs fn with the repository of the configured cache database.
func withCache(fn func(repo geocode.CacheRepository) error) error {
	if config.CacheDB == "" {
		return errNoCacheDB
	}

	db, repo, err := openCache(config.CacheDB)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(repo)
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Counts the cached locations and where they are",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withCache(func(repo geocode.CacheRepository) error {
			total, resolved, err := repo.Count()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s cached locations, %s resolved, %s without coordinates\n",
				utils.FormatInt(int64(total)),
				utils.FormatInt(int64(resolved)),
				utils.FormatInt(int64(total-resolved)),
			)

			cells, err := repo.TopCells(cacheOptions.Resolution, cacheOptions.Top)
			if err != nil {
				return err
			}

			if len(cells) == 0 {
				return nil
			}

			a, b := strings.Repeat("─", 16), strings.Repeat("─", 8)
			fmt.Fprintf(w, "Busiest H3 cells at resolution %d:\n", cacheOptions.Resolution)
			fmt.Fprintf(w, "╭─%-16s─┬─%8s─╮\n", a, b)
			fmt.Fprintf(w, "│ %-16s │ %8s │\n", "Cell", "Count")
			fmt.Fprintf(w, "├─%-16s─┼─%8s─┤\n", a, b)

			for _, c := range cells {
				fmt.Fprintf(w, "│ %-16s │ %8s │\n", c.CellID(), utils.FormatInt(int64(c.Count)))
			}

			fmt.Fprintf(w, "╰─%-16s─┴─%8s─╯\n", a, b)

			return nil
		})
	},
}

var cacheExportCmd = &cobra.Command{
	Use:   "export <file.json>",
	Short: "Exports the cache as a JSON seed file",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return withCache(func(repo geocode.CacheRepository) error {
			n, err := geocode.ExportJSON(repo, args[0])
			if err != nil {
				return err
			}

			log.Printf("Exported %s locations to %s", utils.FormatInt(int64(n)), args[0])

			return nil
		})
	},
}

var cacheImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Loads a JSON seed file into the cache, replacing existing locations",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return withCache(func(repo geocode.CacheRepository) error {
			n, err := geocode.ImportJSON(repo, args[0])
			if err != nil {
				return err
			}

			log.Printf("Imported %s locations from %s", utils.FormatInt(int64(n)), args[0])

			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheExportCmd)
	cacheCmd.AddCommand(cacheImportCmd)
	cacheStatsCmd.Flags().IntVar(&cacheOptions.Resolution, "resolution", 6, "H3 resolution: 4, 6 or 8")
	cacheStatsCmd.Flags().IntVar(&cacheOptions.Top, "top", 10, "Number of cells to list")
}
