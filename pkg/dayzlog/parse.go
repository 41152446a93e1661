package dayzlog

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/dayzlog/dayzlog-go/internal/classifier"
	"github.com/dayzlog/dayzlog-go/internal/reconcile"
	"github.com/dayzlog/dayzlog-go/internal/session"
	"github.com/dayzlog/dayzlog-go/pkg/dayzlog/event"
	"github.com/dayzlog/dayzlog-go/pkg/dayzlog/stats"
)

// Classify classifies a single DayZ server log line using the built-in
// recognizer set. ok is false for unrecognized lines.
//
// Example:
//
//	line := `19:22:10 Player "moglef" is connected (steamID=76561198067078615)`
//	pl, ok := dayzlog.Classify(line)
//	if ok {
//	    fmt.Printf("%s: %s\n", pl.Kind, pl.Player.Name)
//	}
func Classify(line string) (event.ParsedLine, bool) {
	return classifier.Classify(line)
}

// ParseFile reads a whole server log file and returns its classified
// events in file order with absolute timestamps.
//
// Timestamp reconstruction needs the full batch: the newest line is
// anchored to the file's modification time and older lines are dated
// backward from it, so events cannot be streamed line by line.
//
// Classifier errors skip the line; they are not fatal. Unrecognized lines
// are silently ignored.
func ParseFile(ctx context.Context, path string, opts ...Option) ([]event.Event, error) {
	cfg := applyOptions(opts)

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	anchor := stat.ModTime()

	var parsed []event.ParsedLine
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 512*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line := scanner.Text()
		res, err := cfg.classifier.ClassifyLine(ctx, line)
		if err != nil || !res.Matched {
			continue
		}
		for _, pl := range res.Lines {
			if pl.Kind == event.None {
				continue
			}
			if pl.Kind != event.ServerRestart && !pl.Player.Valid() {
				continue
			}
			parsed = append(parsed, pl)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	events := reconcile.Batch(parsed, anchor)

	if cfg.filter != nil || !cfg.includeRawLine {
		kept := events[:0]
		for _, ev := range events {
			if cfg.filter != nil && !cfg.filter.Allows(ev.Kind) {
				continue
			}
			if !cfg.includeRawLine {
				ev.RawLine = ""
			}
			kept = append(kept, ev)
		}
		events = kept
	}
	return events, nil
}

// ComputeStats replays a slice of events through the session state machine
// and returns the resulting per-player, per-day statistics. The input is
// sorted by timestamp first; the caller's slice is not modified.
func ComputeStats(events []event.Event) *stats.Aggregator {
	sorted := make([]event.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	agg := stats.NewAggregator()
	tracker := session.NewTracker(session.SinkFunc(agg.Accumulate))
	for _, ev := range sorted {
		if ev.Kind == event.Connected && ev.Player.Valid() {
			agg.Ensure(ev.Player)
		}
		tracker.Observe(ev)
	}
	return agg
}
