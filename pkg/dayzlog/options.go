package dayzlog

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dayzlog/dayzlog-go/pkg/dayzlog/event"
)

// DefaultMaxReplayLastN is the default maximum for WithReplayLastN.
const DefaultMaxReplayLastN = 10000

// DefaultPollInterval is how often the collector and watcher check for new
// log content when no other interval is configured.
const DefaultPollInterval = 2 * time.Second

// ReplayMode specifies how existing log lines are handled before tailing.
type ReplayMode int

const (
	// ReplayNone emits only new lines (default).
	ReplayNone ReplayMode = iota

	// ReplayFromStart reads the log file from the beginning.
	ReplayFromStart

	// ReplayLastN reads the last N non-empty lines before tailing.
	ReplayLastN
)

// ReplayConfig configures replay behavior for existing log lines.
type ReplayConfig struct {
	Mode  ReplayMode
	LastN int
}

// Option configures Collector and Watcher behavior using the functional
// options pattern. Options that only apply to one of the two are ignored
// by the other.
type Option func(*config)

// config holds internal configuration shared by the collector and watcher.
type config struct {
	logFile        string
	logDir         string
	pollInterval   time.Duration
	batchSize      int
	fromStart      bool
	includeRawLine bool
	logger         *slog.Logger
	classifier     Classifier
	filter         *compiledFilter
	store          Store
	clock          func() time.Time

	onStatsChanged func()
	onEvents       func([]event.Event)
	onError        func(error)

	replay             ReplayConfig
	maxReplayLines     int
	maxReplayBytes     int // Maximum total bytes for replay (0 = unlimited)
	maxReplayLineBytes int // Maximum bytes per line for replay (0 = unlimited)
}

// defaultConfig returns a config with sensible defaults.
func defaultConfig() *config {
	return &config{
		pollInterval:       DefaultPollInterval,
		fromStart:          true,
		classifier:         DefaultClassifier{},
		clock:              time.Now,
		maxReplayLines:     DefaultMaxReplayLastN,
		maxReplayBytes:     10 * 1024 * 1024,
		maxReplayLineBytes: 512 * 1024,
	}
}

// applyOptions applies functional options to a fresh config.
func applyOptions(opts []Option) *config {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// validate checks for invalid option combinations.
func (c *config) validate() error {
	if c.pollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.pollInterval)
	}

	if c.batchSize < 0 {
		return fmt.Errorf("batch size must be non-negative, got %d", c.batchSize)
	}

	if c.replay.Mode == ReplayLastN {
		if c.replay.LastN < 0 {
			return fmt.Errorf("replay LastN must be non-negative, got %d", c.replay.LastN)
		}
		maxLines := c.maxReplayLines
		if maxLines == 0 {
			maxLines = DefaultMaxReplayLastN
		}
		if maxLines > 0 && c.replay.LastN > maxLines {
			return fmt.Errorf("replay LastN (%d) exceeds maximum of %d", c.replay.LastN, maxLines)
		}
	}

	if c.maxReplayBytes < 0 {
		return fmt.Errorf("maxReplayBytes must be non-negative, got %d", c.maxReplayBytes)
	}

	if c.maxReplayLineBytes < 0 {
		return fmt.Errorf("maxReplayLineBytes must be non-negative, got %d", c.maxReplayLineBytes)
	}

	return nil
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// slogger returns the configured logger, or a discard logger if none is set.
func (c *config) slogger() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return discardLogger
}

// WithLogFile sets an explicit server log file to read.
// Takes precedence over WithLogDir and auto-detection.
func WithLogFile(path string) Option {
	return func(c *config) {
		c.logFile = path
	}
}

// WithLogDir sets the directory containing DayZ server logs.
// The newest log file in the directory is used.
// If not set, auto-detects from default locations.
// Can also be set via DAYZLOG_LOGDIR environment variable.
func WithLogDir(dir string) Option {
	return func(c *config) {
		c.logDir = dir
	}
}

// WithPollInterval sets how often to check for new log content.
// Default: 2 seconds.
func WithPollInterval(interval time.Duration) Option {
	return func(c *config) {
		c.pollInterval = interval
	}
}

// WithBatchSize limits how many lines the collector reads per tick.
// 0 (the default) means unlimited.
func WithBatchSize(n int) Option {
	return func(c *config) {
		c.batchSize = n
	}
}

// WithFromStart controls whether the collector reads the log file from the
// beginning on startup. When false, existing content is skipped and only
// lines appended afterwards are processed. Default: true.
func WithFromStart(fromStart bool) Option {
	return func(c *config) {
		c.fromStart = fromStart
	}
}

// WithIncludeRawLine includes the original log line in Event.RawLine.
// Default: false.
func WithIncludeRawLine(include bool) Option {
	return func(c *config) {
		c.includeRawLine = include
	}
}

// WithLogger sets a custom logger for debug output.
// If logger is nil, logging is disabled (default behavior).
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithStore sets the event store used for persistence and deduplication.
// If not set, an in-memory store is used.
func WithStore(s Store) Option {
	return func(c *config) {
		if s != nil {
			c.store = s
		}
	}
}

// WithClassifier sets a custom classifier for log lines.
// If cl is nil, this option has no effect (the default classifier remains
// active).
func WithClassifier(cl Classifier) Option {
	return func(c *config) {
		if cl != nil {
			c.classifier = cl
		}
	}
}

// WithClassifiers combines multiple classifiers using ChainAll mode.
// At least one classifier is required.
func WithClassifiers(classifiers ...Classifier) Option {
	return func(c *config) {
		if len(classifiers) > 0 {
			c.classifier = &Chain{
				Mode:        ChainAll,
				Classifiers: classifiers,
			}
		}
	}
}

// WithClock sets the time source used to anchor reconstructed timestamps.
// Intended for tests. Default: time.Now.
func WithClock(clock func() time.Time) Option {
	return func(c *config) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithOnStatsChanged registers a callback invoked after a collector tick
// that changed the accumulated statistics. The callback runs on the
// collector goroutine and should return quickly.
func WithOnStatsChanged(fn func()) Option {
	return func(c *config) {
		c.onStatsChanged = fn
	}
}

// WithOnEvents registers a callback invoked with newly persisted events
// after each collector tick. Events already seen by the store are not
// reported again.
func WithOnEvents(fn func([]event.Event)) Option {
	return func(c *config) {
		c.onEvents = fn
	}
}

// WithOnError registers a callback for non-fatal errors encountered during
// collector ticks. Without it, errors are logged and the loop continues.
func WithOnError(fn func(error)) Option {
	return func(c *config) {
		c.onError = fn
	}
}

// WithIncludeKinds filters events to only include the specified kinds.
// If called multiple times, only the last call takes effect.
func WithIncludeKinds(kinds ...event.Kind) Option {
	return func(c *config) {
		if c.filter == nil {
			c.filter = &compiledFilter{}
		}
		c.filter.include = make(map[event.Kind]struct{}, len(kinds))
		for _, k := range kinds {
			c.filter.include[k] = struct{}{}
		}
	}
}

// WithExcludeKinds filters out events of the specified kinds.
// Exclude takes precedence over include.
// If called multiple times, only the last call takes effect.
func WithExcludeKinds(kinds ...event.Kind) Option {
	return func(c *config) {
		if c.filter == nil {
			c.filter = &compiledFilter{}
		}
		c.filter.exclude = make(map[event.Kind]struct{}, len(kinds))
		for _, k := range kinds {
			c.filter.exclude[k] = struct{}{}
		}
	}
}

// WithFilter sets both include and exclude kind filters.
// Exclude takes precedence over include.
func WithFilter(include, exclude []event.Kind) Option {
	return func(c *config) {
		c.filter = newCompiledFilter(include, exclude)
	}
}

// WithReplay configures replay behavior for existing log lines.
// Only the watcher honors replay; the collector always reads per
// WithFromStart. Default: ReplayNone.
func WithReplay(cfg ReplayConfig) Option {
	return func(c *config) {
		c.replay = cfg
	}
}

// WithReplayFromStart reads from the beginning of the log file before
// tailing.
func WithReplayFromStart() Option {
	return func(c *config) {
		c.replay = ReplayConfig{Mode: ReplayFromStart}
	}
}

// WithReplayLastN reads the last N non-empty lines before tailing.
// Empty lines are skipped and not counted towards N.
func WithReplayLastN(n int) Option {
	return func(c *config) {
		c.replay = ReplayConfig{Mode: ReplayLastN, LastN: n}
	}
}

// WithMaxReplayLines sets the maximum lines for ReplayLastN mode.
// 0 uses the default (10000). Set to -1 for unlimited (not recommended).
func WithMaxReplayLines(max int) Option {
	return func(c *config) {
		c.maxReplayLines = max
	}
}

// WithMaxReplayBytes sets the maximum total bytes to read during replay.
// Default is 10MB. Set to 0 for unlimited (not recommended).
// If the limit is exceeded during ReplayLastN, ErrReplayLimitExceeded is
// returned.
func WithMaxReplayBytes(max int) Option {
	return func(c *config) {
		c.maxReplayBytes = max
	}
}

// WithMaxReplayLineBytes sets the maximum bytes per line during replay.
// Default is 512KB. Set to 0 for unlimited (not recommended).
// If a single line exceeds this limit, ErrReplayLimitExceeded is returned.
func WithMaxReplayLineBytes(max int) Option {
	return func(c *config) {
		c.maxReplayLineBytes = max
	}
}
