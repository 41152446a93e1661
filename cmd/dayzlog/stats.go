package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/dayzlog/dayzlog-go/pkg/dayzlog"
	"github.com/dayzlog/dayzlog-go/pkg/dayzlog/stats"
)

var (
	// stats flags
	statsLogDir    string
	statsLogFile   string
	statsFormat    string
	statsFollow    bool
	statsInterval  time.Duration
	statsStoreFile string
	statsRedisURL  string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Compute per-player online-time statistics",
	Long: `Compute per-player, per-day online-time statistics from a DayZ server
ADM log.

By default the log file is read once and the statistics are printed.
With --follow the log is polled continuously and updated statistics are
printed on every change until interrupted.

A store keeps events across runs and de-duplicates re-read lines:

  # Persist events to a JSONL file
  dayzlog stats --follow --store-file events.jsonl

  # Persist events to Redis
  dayzlog stats --follow --redis-url redis://localhost:6379/0

Examples:
  # One-shot statistics from the newest log in a directory
  dayzlog stats --log-dir /srv/dayz/profiles

  # One-shot statistics from an explicit file
  dayzlog stats --log-file DayZServer_x64.ADM

  # Machine-readable output
  dayzlog stats --format jsonl | jq .`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVarP(&statsLogDir, "log-dir", "d", "",
		"DayZ server log directory (auto-detected if not specified)")
	statsCmd.Flags().StringVar(&statsLogFile, "log-file", "",
		"Explicit log file to read (overrides --log-dir)")
	statsCmd.Flags().StringVarP(&statsFormat, "format", "f", "pretty",
		"Output format: jsonl, pretty")
	statsCmd.Flags().BoolVar(&statsFollow, "follow", false,
		"Keep polling the log and reprint statistics on change")
	statsCmd.Flags().DurationVar(&statsInterval, "interval", dayzlog.DefaultPollInterval,
		"Poll interval in --follow mode")
	statsCmd.Flags().StringVar(&statsStoreFile, "store-file", "",
		"JSONL file for persisting events across runs")
	statsCmd.Flags().StringVar(&statsRedisURL, "redis-url", "",
		"Redis URL for persisting events across runs")

	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !ValidFormats[statsFormat] {
		return fmt.Errorf("unknown format: %s", statsFormat)
	}
	if statsStoreFile != "" && statsRedisURL != "" {
		return fmt.Errorf("--store-file and --redis-url are mutually exclusive")
	}

	store, err := openStore()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if !statsFollow && statsLogFile != "" && store == nil {
		// Fast path: one-shot parse without collector machinery.
		events, err := dayzlog.ParseFile(ctx, statsLogFile)
		if err != nil {
			return err
		}
		agg := dayzlog.ComputeStats(events)
		return outputStats(statsFormat, agg.DayStats(), agg.Summaries(), out)
	}

	opts := []dayzlog.Option{
		dayzlog.WithLogDir(statsLogDir),
		dayzlog.WithLogFile(statsLogFile),
		dayzlog.WithPollInterval(statsInterval),
		dayzlog.WithLogger(stderrLogger()),
	}
	if store != nil {
		opts = append(opts, dayzlog.WithStore(store))
	}

	changed := make(chan struct{}, 1)
	if statsFollow {
		opts = append(opts, dayzlog.WithOnStatsChanged(func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		}))
	}

	collector, err := dayzlog.NewCollector(opts...)
	if err != nil {
		return err
	}
	defer collector.Close()

	if !statsFollow {
		if err := collector.Tick(ctx); err != nil {
			return err
		}
		return outputStats(statsFormat, collector.DayStats(), collector.Summaries(), out)
	}

	done := make(chan error, 1)
	go func() { done <- collector.Run(ctx) }()

	for {
		select {
		case <-changed:
			if err := outputStats(statsFormat, collector.DayStats(), collector.Summaries(), out); err != nil {
				return err
			}
		case err := <-done:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case <-ctx.Done():
			<-done
			return nil
		}
	}
}

func openStore() (dayzlog.Store, error) {
	switch {
	case statsStoreFile != "":
		return dayzlog.OpenFileStore(statsStoreFile)
	case statsRedisURL != "":
		return dayzlog.OpenRedisStore(statsRedisURL)
	default:
		return nil, nil
	}
}

func outputStats(format string, days []stats.DayStat, summaries []stats.Summary, out io.Writer) error {
	if format == "jsonl" {
		for _, d := range days {
			data, err := sonic.Marshal(d)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintln(out, string(data)); err != nil {
				return err
			}
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tPLAYER\tSTEAM ID\tONLINE")
	for _, d := range days {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			d.Date.Format("2006-01-02"), d.Player.Name, d.Player.SteamID, formatDuration(d.Duration))
	}
	if len(summaries) > 0 {
		fmt.Fprintln(w, "\nPLAYER\tTOTAL\tBEST DAY")
		for _, s := range summaries {
			fmt.Fprintf(w, "%s\t%s\t%s\n", s.Player.Name, formatDuration(s.Total), formatDuration(s.MaxDay))
		}
	}
	return w.Flush()
}

// formatDuration renders a duration as hours and minutes, seconds only
// when under a minute.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh%02dm", h, m)
}
