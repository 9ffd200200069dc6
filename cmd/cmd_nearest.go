// Copyright 2025 The FilmLoc Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/jcodagnone/filmloc/films"
	"github.com/jcodagnone/filmloc/pipeline"
	"github.com/jcodagnone/filmloc/ranking"
	"github.com/jcodagnone/filmloc/render"
	"github.com/jcodagnone/filmloc/spatial"
	"github.com/jcodagnone/filmloc/utils"
	"github.com/spf13/cobra"
)

var nearestOptions = struct {
	Limit    int
	CSVPath  string
	MapPath  string
	XLSXPath string
}{}

var nearestCmd = &cobra.Command{
	Use:   "nearest <year> <latitude> <longitude> <path>",
	Short: "Lists the films of a year shot closest to a place",
	Long: `Extracts the films of <year> from the locations list at <path>, resolves
where they were shot and prints the closest ones to <latitude>, <longitude>.
The extracted records are written to film_locations.csv and a map of the
result to FilmMap.html.

$ filmloc nearest 2010 34.0522 -118.2437 locations.list`,
	Args: cobra.MatchAll(cobra.ExactArgs(4), yearAt(0), referenceAt(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		year := args[0]

		ref, err := parseReference(args[1], args[2])
		if err != nil {
			return err
		}

		resolver, closeCache, err := config.NewResolver(cmd.Context())
		if err != nil {
			return err
		}
		defer closeCache()

		rc, err := config.DatasetOpener(args[3])()
		if err != nil {
			return err
		}
		defer rc.Close()

		p := pipeline.New(resolver, &pipeline.Options{
			Limit:    nearestOptions.Limit,
			CSVPath:  nearestOptions.CSVPath,
			Progress: true,
		})

		ranked, err := p.Run(rc, year, ref)
		if err != nil {
			return err
		}

		logExtractMetrics(&p.Metrics.Extract)
		log.Printf(
			"Resolution metrics - %s provider lookups, %s cache hits",
			utils.FormatInt(int64(p.Metrics.Resolve.Lookups)),
			utils.FormatInt(int64(p.Metrics.Resolve.CacheHits)),
		)

		printRanking(cmd.OutOrStdout(), ref, ranked)

		if nearestOptions.MapPath != "" {
			if err := render.SaveHTMLMap(nearestOptions.MapPath, render.NewMapData(year, ref, ranked)); err != nil {
				return err
			}

			log.Printf("Map written to %s", nearestOptions.MapPath)
		}

		if nearestOptions.XLSXPath != "" {
			if err := render.SaveXLSX(nearestOptions.XLSXPath, ref, ranked); err != nil {
				return err
			}

			log.Printf("Report written to %s", nearestOptions.XLSXPath)
		}

		return nil
	},
}

func printRanking(w io.Writer, ref spatial.Point, ranked []ranking.RankedRecord) {
	if len(ranked) == 0 {
		fmt.Fprintf(w, "No resolved filming locations near %s\n", ref)

		return
	}

	a, b, c := strings.Repeat("─", 2), strings.Repeat("─", 10), strings.Repeat("─", 40)
	fmt.Fprintf(w, "Filming locations nearest to %s:\n", ref)
	fmt.Fprintf(w, "╭─%2s─┬─%10s─┬─%-40s─┬─%-40s─╮\n", a, b, c, c)
	fmt.Fprintf(w, "│ %2s │ %10s │ %-40s │ %-40s │\n", "#", "km", "Title", "Location")
	fmt.Fprintf(w, "├─%2s─┼─%10s─┼─%-40s─┼─%-40s─┤\n", a, b, c, c)

	for i, r := range ranked {
		fmt.Fprintf(w, "│ %2d │ %10s │ %-40s │ %-40s │\n",
			i+1, utils.FormatKm(r.DistanceKm), truncate(r.Title, 40), truncate(r.Location, 40))
	}

	fmt.Fprintf(w, "╰─%2s─┴─%10s─┴─%-40s─┴─%-40s─╯\n", a, b, c, c)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n-1]) + "…"
}

func init() {
	rootCmd.AddCommand(nearestCmd)
	flags := nearestCmd.Flags()
	flags.IntVar(&nearestOptions.Limit, "limit", ranking.DefaultLimit, "Number of films to report")
	flags.StringVar(&nearestOptions.CSVPath, "csv", films.DefaultCSVFile, "Where to write the extracted records, empty to skip them")
	flags.StringVar(&nearestOptions.MapPath, "map", render.DefaultMapFile, "Where to write the map, empty to skip it")
	flags.StringVar(&nearestOptions.XLSXPath, "xlsx", "", "Also write the ranking as a spreadsheet")
}
