// Copyright 2025 The FilmLoc Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"

	"github.com/jcodagnone/filmloc/films"
	"github.com/jcodagnone/filmloc/utils"
	"github.com/spf13/cobra"
)

var extractOptions = struct {
	CSVPath string
}{}

var extractCmd = &cobra.Command{
	Use:   "extract <year> <path>",
	Short: "Writes the filming locations of a year as CSV",
	Long: `Reads the locations list at <path>, keeps the films of <year> and writes
them as title, year and location rows without a header.`,
	Args: cobra.MatchAll(cobra.ExactArgs(2), yearAt(0)),
	RunE: func(_ *cobra.Command, args []string) error {
		rc, err := config.DatasetOpener(args[1])()
		if err != nil {
			return err
		}
		defer rc.Close()

		records, metrics, err := films.NewListExtractor().Extract(rc, args[0])
		if err != nil {
			return fmt.Errorf("extracting records: %w", err)
		}

		if err := films.SaveCSV(extractOptions.CSVPath, records); err != nil {
			return err
		}

		logExtractMetrics(metrics)
		log.Printf("Wrote %s records to %s", utils.FormatInt(int64(len(records))), extractOptions.CSVPath)

		return nil
	},
}

func logExtractMetrics(m *films.ExtractMetrics) {
	log.Printf(
		"Extraction metrics - %s records from %s lines, %s candidates, %s false positives and %s malformed",
		utils.FormatInt(int64(m.Extracted)),
		utils.FormatInt(int64(m.Lines)),
		utils.FormatInt(int64(m.Candidates)),
		utils.FormatInt(int64(m.FalsePositives)),
		utils.FormatInt(int64(m.Malformed)),
	)
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVar(
		&extractOptions.CSVPath,
		"csv",
		films.DefaultCSVFile,
		"Where to write the extracted records",
	)
}
