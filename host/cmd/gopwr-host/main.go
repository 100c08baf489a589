// gopwr-host is the bench-side companion to the gopwr firmware: it
// watches a board's telemetry link, validates board profiles, and
// replays captured sessions.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var verboseFlag bool

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gopwr-host",
		Short: "Host tools for the gopwr power sequencer firmware",
		Long: `gopwr-host talks to boards running the gopwr firmware over their
telemetry UART. It decodes commit reports, rail samples and fault
reports, checks them against a board profile, exports link and power
metrics, and archives sessions for later replay.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")

	return cmd
}

// newLogger builds the console logger shared by all subcommands.
func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verboseFlag {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
