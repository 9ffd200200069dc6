// Copyright 2025 The FilmLoc Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/jcodagnone/filmloc/pipeline"
	"github.com/jcodagnone/filmloc/ranking"
	"github.com/jcodagnone/filmloc/server"
	"github.com/spf13/cobra"
)

var serveOptions = struct {
	Addr      string
	Limit     int
	MemoLimit int
}{}

var serveCmd = &cobra.Command{
	Use:   "serve <year> <path>",
	Short: "Answers nearest location queries over HTTP",
	Long: `Serves the films of <year> found in the locations list at <path>:

  GET /api/nearest?lat=<latitude>&lon=<longitude>   ranking as JSON
  GET /map?lat=<latitude>&lon=<longitude>           ranking as a map
  GET /api/stats                                    dataset and cache counters

The list is read and resolved with the first query.`,
	Args: cobra.MatchAll(cobra.ExactArgs(2), yearAt(0)),
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver, closeCache, err := config.NewResolver(cmd.Context())
		if err != nil {
			return err
		}
		defer closeCache()

		p := pipeline.New(resolver, &pipeline.Options{
			Limit:     serveOptions.Limit,
			Progress:  true,
			MemoLimit: serveOptions.MemoLimit,
		})

		return server.NewServer(p, args[0], config.DatasetOpener(args[1])).Run(serveOptions.Addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveOptions.Addr, "addr", "localhost:8080", "Address to listen on")
	serveCmd.Flags().IntVar(&serveOptions.Limit, "limit", ranking.DefaultLimit, "Number of films per answer")
	serveCmd.Flags().IntVar(&serveOptions.MemoLimit, "memo-limit", pipeline.DefaultMemoLimit, "Number of reference points whose answers are kept")
}
