// Copyright 2025 The FilmLoc Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

// setupLogFile tees the log into a size rotated file.
func setupLogFile(path string) io.Closer {
	rotated := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	log.SetOutput(&logWriter{writer: io.MultiWriter(os.Stderr, rotated)})

	return rotated
}

var rootOptions = struct {
	ConfigFile string
	LogFile    string
}{}

// config is loaded before any command runs.
var config *Config

var logCloser io.Closer

var rootCmd = &cobra.Command{
	Use:   "filmloc",
	Short: "films shot near a place",
	Long: `
filmloc reads the IMDb locations list, keeps the films of a given year,
resolves where they were shot and reports the ones filmed closest to a
reference point.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if rootOptions.LogFile != "" {
			logCloser = setupLogFile(rootOptions.LogFile)
		}

		var err error

		config, err = LoadConfig(cmd, rootOptions.ConfigFile)

		return err
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}

		return nil
	},
}

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootOptions.ConfigFile, "config", "", "YAML configuration file")
	flags.StringVar(&rootOptions.LogFile, "log-file", "", "Also write the log to this file, rotated by size")
	addConfigFlags(rootCmd)
}
