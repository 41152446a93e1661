package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dayzlog/dayzlog-go/pkg/dayzlog"
	"github.com/dayzlog/dayzlog-go/pkg/dayzlog/event"
)

var (
	// tail flags
	tailLogDir        string
	tailLogFile       string
	tailFormat        string
	tailKinds         []string
	tailIncludeRaw    bool
	tailReplayLast    int
	tailPatternFiles  []string
	tailPluginFiles   []string
	tailPluginTimeout time.Duration
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Stream events from a live DayZ server log",
	Long: `Monitor a DayZ server ADM log in real-time and output classified events.

Events are output as JSON Lines by default (one JSON object per line),
which makes it easy to process with tools like jq.

Examples:
  # Monitor with default settings (auto-detect log directory)
  dayzlog tail

  # Specify log directory
  dayzlog tail --log-dir /srv/dayz/profiles

  # Output only connect/disconnect events
  dayzlog tail --kinds connected,disconnected

  # Human-readable output
  dayzlog tail --format pretty

  # Replay from start of log file
  dayzlog tail --replay-last 0  # 0 means from start

  # Pipe to jq for filtering
  dayzlog tail | jq 'select(.kind == "connected")'`,
	RunE: runTail,
}

func init() {
	tailCmd.Flags().StringVarP(&tailLogDir, "log-dir", "d", "",
		"DayZ server log directory (auto-detected if not specified)")
	tailCmd.Flags().StringVar(&tailLogFile, "log-file", "",
		"Explicit log file to follow (overrides --log-dir)")
	tailCmd.Flags().StringVarP(&tailFormat, "format", "f", "jsonl",
		"Output format: jsonl, pretty")
	tailCmd.Flags().StringSliceVarP(&tailKinds, "kinds", "k", nil,
		"Event kinds to show (comma-separated: connected,disconnected,kicked,server_restart)")
	tailCmd.Flags().BoolVar(&tailIncludeRaw, "raw", false,
		"Include raw log lines in output")
	tailCmd.Flags().IntVar(&tailReplayLast, "replay-last", -1,
		"Replay last N lines before tailing (-1 = disabled, 0 = from start)")
	tailCmd.Flags().StringSliceVar(&tailPatternFiles, "patterns", nil,
		"YAML pattern files with additional classification rules")
	tailCmd.Flags().StringSliceVar(&tailPluginFiles, "plugins", nil,
		"Wasm classifier plugins")
	tailCmd.Flags().DurationVar(&tailPluginTimeout, "plugin-timeout", 0,
		"Per-line timeout for wasm plugins (0 = plugin default)")

	rootCmd.AddCommand(tailCmd)
}

func runTail(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !ValidFormats[tailFormat] {
		return fmt.Errorf("unknown format: %s", tailFormat)
	}

	kinds, err := parseKinds(tailKinds)
	if err != nil {
		return err
	}

	logger := stderrLogger()
	cl, cleanup, err := buildClassifier(ctx, tailPatternFiles, tailPluginFiles, tailPluginTimeout, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := []dayzlog.Option{
		dayzlog.WithLogDir(tailLogDir),
		dayzlog.WithLogFile(tailLogFile),
		dayzlog.WithIncludeRawLine(tailIncludeRaw),
		dayzlog.WithLogger(logger),
		dayzlog.WithClassifier(cl),
	}
	if len(kinds) > 0 {
		opts = append(opts, dayzlog.WithIncludeKinds(kinds...))
	}
	switch {
	case tailReplayLast == 0:
		opts = append(opts, dayzlog.WithReplayFromStart())
	case tailReplayLast > 0:
		opts = append(opts, dayzlog.WithReplayLastN(tailReplayLast))
	}

	watcher, err := dayzlog.NewWatcherWithOptions(opts...)
	if err != nil {
		return err
	}
	defer watcher.Close()

	events, errs, err := watcher.Watch(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := OutputEvent(tailFormat, ev, out); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			if verbose {
				fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// parseKinds converts flag values to event kinds. Names that are not
// built-in kinds pass through unchanged so custom kinds from pattern
// files and plugins can be filtered too.
func parseKinds(names []string) ([]event.Kind, error) {
	kinds := make([]event.Kind, 0, len(names))
	for _, name := range names {
		if name == "" {
			return nil, fmt.Errorf("invalid event kind: %q", name)
		}
		k, ok := event.ParseKind(name)
		if !ok {
			k = event.Kind(name)
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}
