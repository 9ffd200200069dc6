// Copyright 2025 The FilmLoc Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/jcodagnone/filmloc/films"
	"github.com/spf13/cobra"
)

// we say that it isn't.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}

	return (info.Mode() & os.ModeCharDevice) != 0
}

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Dev tools",
}

var debugExtractCmd = &cobra.Command{
	Use:   "extract <year>",
	Short: "Parses locations list lines",
	Long: `Reads one locations list line at a time and prints the title, year and
location extracted from it, or a dash when the line yields no record.

$ echo '"Inception" (2010)	Los Angeles, California, USA' | filmloc debug extract 2010
Inception	2010	Los Angeles, California, USA
`,
	Args: cobra.MatchAll(cobra.ExactArgs(1), yearAt(0)),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := cmd.InOrStdin()
		if f, ok := input.(*os.File); ok && isTerminal(f) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Enter locations list lines, one per line…")
		}

		out := cmd.OutOrStdout()
		scanner := bufio.NewScanner(input)

		for scanner.Scan() {
			record, ok := films.ParseLine(scanner.Text(), args[0])
			if !ok {
				fmt.Fprintln(out, "-")

				continue
			}

			fmt.Fprintf(out, "%s\t%s\t%s\n", record.Title, record.Year, record.Location)
		}

		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugExtractCmd)
}
