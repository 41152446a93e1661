package dayzlog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dayzlog/dayzlog-go/internal/logfinder"
	"github.com/dayzlog/dayzlog-go/internal/logsource"
	"github.com/dayzlog/dayzlog-go/internal/reconcile"
	"github.com/dayzlog/dayzlog-go/internal/session"
	"github.com/dayzlog/dayzlog-go/pkg/dayzlog/event"
	"github.com/dayzlog/dayzlog-go/pkg/dayzlog/stats"
)

// Collector polls a DayZ server log file, classifies appended lines,
// reconstructs absolute timestamps, persists the resulting events and
// folds closed sessions into per-player, per-day online-time statistics.
//
// The pipeline runs on a single goroutine owned by Run; the statistics
// accessors are safe to call concurrently from other goroutines.
type Collector struct {
	cfg    config
	log    *slog.Logger
	source *logsource.Source
	store  Store

	mu      sync.Mutex
	tracker *session.Tracker
	agg     *stats.Aggregator
	pending []event.Event // classified but not yet persisted
	running bool
	closed  bool
}

// NewCollector creates a collector from functional options.
// It resolves the log file immediately (explicit file, then configured or
// auto-detected directory) and positions the read cursor per WithFromStart.
// Does not start goroutines; call Run.
func NewCollector(opts ...Option) (*Collector, error) {
	cfg := applyOptions(opts)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	logFile := cfg.logFile
	if logFile == "" {
		dir, err := logfinder.FindLogDir(cfg.logDir)
		if err != nil {
			return nil, fmt.Errorf("finding log directory: %w", err)
		}
		logFile, err = logfinder.FindLatestLogFile(dir)
		if err != nil {
			return nil, fmt.Errorf("finding log file: %w", err)
		}
	}

	src := logsource.New(logFile)
	if !cfg.fromStart {
		if err := src.SkipToEnd(); err != nil {
			return nil, fmt.Errorf("skipping to end of %s: %w", logFile, err)
		}
	}

	st := cfg.store
	if st == nil {
		st = NewMemoryStore()
	}

	agg := stats.NewAggregator()
	c := &Collector{
		cfg:     *cfg,
		log:     cfg.slogger(),
		source:  src,
		store:   st,
		tracker: session.NewTracker(session.SinkFunc(agg.Accumulate)),
		agg:     agg,
	}
	return c, nil
}

// LogPath returns the resolved log file path.
func (c *Collector) LogPath() string { return c.source.Path() }

// Run polls the log file until ctx is cancelled. The first tick happens
// immediately; subsequent ticks are scheduled after the previous one
// finishes, so ticks never overlap. Tick errors are reported through
// WithOnError (or logged) and the loop continues.
//
// Run can only be called once per Collector.
func (c *Collector) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrCollectorClosed
	}
	if c.running {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	c.running = true
	c.mu.Unlock()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			if err := c.Tick(ctx); err != nil {
				c.reportError(err)
			}
			timer.Reset(c.cfg.pollInterval)
		}
	}
}

// Tick performs one poll cycle: pull appended lines, classify, reconcile
// timestamps, persist, and update session state and statistics. Exported
// for one-shot and test use; Run calls it on its own schedule.
func (c *Collector) Tick(ctx context.Context) error {
	lines, err := c.source.Pull(ctx, c.cfg.batchSize)
	if err != nil {
		return &WatchError{Op: OpPull, Path: c.source.Path(), Err: err}
	}
	if len(lines) == 0 && len(c.pending) == 0 {
		return nil
	}

	parsed := c.classify(ctx, lines)
	batch := reconcile.Batch(parsed, c.cfg.clock())
	if !c.cfg.includeRawLine {
		for i := range batch {
			batch[i].RawLine = ""
		}
	}

	// Events that failed to persist on an earlier tick are retried first;
	// the read offset has already moved past their lines.
	evs := append(c.pending, batch...)
	added, err := c.store.AddEvents(ctx, evs)
	if err != nil {
		c.pending = evs
		return &WatchError{Op: OpPersist, Path: c.source.Path(), Err: err}
	}
	c.pending = nil

	if len(added) == 0 {
		return nil
	}
	c.log.Debug("persisted events", "count", len(added))

	var players []event.Player
	c.mu.Lock()
	for _, ev := range added {
		c.tracker.Observe(ev)
		if ev.Kind == event.Connected && ev.Player.Valid() {
			c.agg.Ensure(ev.Player)
			players = append(players, ev.Player)
		}
	}
	c.mu.Unlock()

	if len(players) > 0 {
		if _, err := c.store.AddPlayers(ctx, players); err != nil {
			c.reportError(&WatchError{Op: OpPersist, Path: c.source.Path(), Err: err})
		}
	}

	c.notify(added)
	return nil
}

// classify runs the configured classifier over each pulled line. Lines
// the classifier does not recognize are dropped; classifier errors are
// reported and the line skipped.
func (c *Collector) classify(ctx context.Context, lines []string) []event.ParsedLine {
	var out []event.ParsedLine
	for _, line := range lines {
		res, err := c.cfg.classifier.ClassifyLine(ctx, line)
		if err != nil {
			c.reportError(&ClassifyError{Line: line, Err: err})
			continue
		}
		if !res.Matched {
			continue
		}
		for _, pl := range res.Lines {
			if pl.Kind == event.None {
				continue
			}
			// Only the restart marker is allowed to carry no player.
			if pl.Kind != event.ServerRestart && !pl.Player.Valid() {
				continue
			}
			out = append(out, pl)
		}
	}
	return out
}

// notify invokes the configured callbacks for newly persisted events.
// The kind filter applies to the OnEvents delivery only; session state and
// statistics always see every event.
func (c *Collector) notify(added []event.Event) {
	if c.cfg.onEvents != nil {
		delivered := added
		if c.cfg.filter != nil {
			delivered = make([]event.Event, 0, len(added))
			for _, ev := range added {
				if c.cfg.filter.Allows(ev.Kind) {
					delivered = append(delivered, ev)
				}
			}
		}
		if len(delivered) > 0 {
			c.cfg.onEvents(delivered)
		}
	}
	if c.cfg.onStatsChanged != nil {
		c.cfg.onStatsChanged()
	}
}

func (c *Collector) reportError(err error) {
	if c.cfg.onError != nil {
		c.cfg.onError(err)
		return
	}
	c.log.Warn("collector tick failed", "error", err)
}

// DayStats returns the per-player, per-day online-time triples accumulated
// so far, oldest date first. Players with empty or placeholder names are
// excluded.
func (c *Collector) DayStats() []stats.DayStat {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.agg.DayStats()
}

// Summaries returns the per-player total and maximum per-day online time.
func (c *Collector) Summaries() []stats.Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.agg.Summaries()
}

// PlayerDays returns a copy of one player's day buckets, nil if the player
// is unknown.
func (c *Collector) PlayerDays(p event.Player) map[time.Time]time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.agg.PlayerDays(p)
}

// OnlineCount returns the number of players with an open session.
func (c *Collector) OnlineCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracker.OnlineCount()
}

// Events returns all persisted events, oldest first.
func (c *Collector) Events(ctx context.Context) ([]event.Event, error) {
	return c.store.Events(ctx)
}

// Players returns all persisted players, sorted by name.
func (c *Collector) Players(ctx context.Context) ([]event.Player, error) {
	return c.store.Players(ctx)
}

// Close marks the collector closed and closes the underlying store.
// Safe to call multiple times. Run must have returned (or never been
// called) before Close.
func (c *Collector) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.store.Close()
}
