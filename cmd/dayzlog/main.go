package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "dayzlog",
	Short: "DayZ server log tools",
	Long: `dayzlog ingests DayZ server ADM logs and turns them into structured
events and per-player online-time statistics.

Use "dayzlog tail" to stream events from a live log, or "dayzlog stats"
to compute online-time statistics.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output (warnings and debug logs to stderr)")
}

// stderrLogger returns a logger for --verbose mode, nil otherwise.
func stderrLogger() *slog.Logger {
	if !verbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
