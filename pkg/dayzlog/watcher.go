package dayzlog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dayzlog/dayzlog-go/internal/logfinder"
	"github.com/dayzlog/dayzlog-go/internal/reconcile"
	"github.com/dayzlog/dayzlog-go/internal/tailer"
	"github.com/dayzlog/dayzlog-go/pkg/dayzlog/event"
)

// watcherErrBuffer is the buffer size for the error channel. A small
// buffer prevents error loss during brief moments when the consumer is
// busy processing events, while keeping memory usage minimal.
const watcherErrBuffer = 16

// Watcher streams classified events from a live DayZ server log.
// Unlike Collector it keeps no session or statistics state; it emits each
// reconciled event on a channel as soon as the line is written.
type Watcher struct {
	cfg     config
	logFile string // explicit file, empty when directory-based
	logDir  string
	log     *slog.Logger

	stream *reconcile.Stream // owned by the run goroutine

	mu       sync.Mutex
	closed   bool
	cancel   context.CancelFunc
	doneCh   chan struct{}
	watching bool
}

// NewWatcherWithOptions creates a watcher using functional options.
// Validates options and resolves the log location. Does NOT start
// goroutines; call Watch.
func NewWatcherWithOptions(opts ...Option) (*Watcher, error) {
	cfg := applyOptions(opts)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	w := &Watcher{
		cfg:     *cfg,
		logFile: cfg.logFile,
		log:     cfg.slogger(),
	}

	if w.logFile == "" {
		dir, err := logfinder.FindLogDir(cfg.logDir)
		if err != nil {
			return nil, fmt.Errorf("finding log directory: %w", err)
		}
		w.logDir = dir
	}

	return w, nil
}

// WatchWithOptions creates a watcher and starts watching in one call.
//
// The returned channels close when ctx is cancelled or a fatal error
// occurs. For synchronous shutdown via Close, use NewWatcherWithOptions
// and Watcher.Watch directly.
func WatchWithOptions(ctx context.Context, opts ...Option) (<-chan event.Event, <-chan error, error) {
	w, err := NewWatcherWithOptions(opts...)
	if err != nil {
		return nil, nil, err
	}
	return w.Watch(ctx)
}

// Watch starts the watch goroutine and returns its channels. Both
// channels close on ctx.Done() or fatal error. Watch can only be called
// once per Watcher.
func (w *Watcher) Watch(ctx context.Context) (<-chan event.Event, <-chan error, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, nil, ErrWatcherClosed
	}
	if w.watching {
		return nil, nil, ErrAlreadyWatching
	}
	w.watching = true

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.doneCh = make(chan struct{})

	eventCh := make(chan event.Event)
	errCh := make(chan error, watcherErrBuffer)

	go w.run(ctx, eventCh, errCh)

	return eventCh, errCh, nil
}

// Close stops the watcher and waits for the goroutine to exit.
// Safe to call multiple times.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.cancel != nil {
		w.cancel()
	}
	doneCh := w.doneCh
	w.mu.Unlock()

	if doneCh != nil {
		<-doneCh
	}
	return nil
}

func (w *Watcher) run(ctx context.Context, eventCh chan<- event.Event, errCh chan<- error) {
	defer close(w.doneCh)
	defer close(eventCh)
	defer close(errCh)

	logFile := w.logFile
	if logFile == "" {
		var err error
		logFile, err = logfinder.FindLatestLogFile(w.logDir)
		if err != nil {
			sendError(ctx, errCh, &WatchError{Op: OpFindLog, Err: err})
			return
		}
	}
	w.log.Debug("watching log file", "path", logFile)

	// The stream anchors the first line to today; rollovers advance it.
	w.stream = reconcile.NewStream(w.cfg.clock())

	tcfg := tailer.DefaultConfig()
	tcfg.FromStart = w.cfg.replay.Mode == ReplayFromStart

	if w.cfg.replay.Mode == ReplayLastN && w.cfg.replay.LastN > 0 {
		w.log.Debug("replaying recent lines", "n", w.cfg.replay.LastN, "path", logFile)
		if err := w.replayLastN(ctx, logFile, eventCh, errCh); err != nil {
			sendError(ctx, errCh, &WatchError{Op: OpReplay, Path: logFile, Err: err})
		}
	}

	t, err := tailer.New(ctx, logFile, tcfg)
	if err != nil {
		sendError(ctx, errCh, &WatchError{Op: OpTail, Path: logFile, Err: err})
		return
	}
	defer func() { _ = t.Stop() }()
	w.log.Debug("started tailing", "path", logFile, "from_start", tcfg.FromStart)

	// Rotation checks only make sense when the file was found by directory
	// scan; an explicit file is followed through truncation by the tailer.
	var rotationC <-chan time.Time
	if w.logDir != "" {
		ticker := time.NewTicker(w.cfg.pollInterval)
		defer ticker.Stop()
		rotationC = ticker.C
	}

	currentFile := logFile

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-t.Lines():
			if !ok {
				return
			}
			w.processLine(ctx, line, eventCh, errCh)
		case err, ok := <-t.Errors():
			if !ok {
				return
			}
			sendError(ctx, errCh, err)
		case <-rotationC:
			newFile, err := logfinder.FindLatestLogFile(w.logDir)
			if err != nil {
				sendError(ctx, errCh, &WatchError{Op: OpRotation, Err: err})
				continue
			}
			if newFile == currentFile {
				continue
			}
			w.log.Debug("log rotation detected", "from", currentFile, "to", newFile)
			_ = t.Stop()
			tcfg := tailer.DefaultConfig()
			tcfg.FromStart = true // the new file is read whole
			newTailer, err := tailer.New(ctx, newFile, tcfg)
			if err != nil {
				sendError(ctx, errCh, &WatchError{Op: OpTail, Path: newFile, Err: err})
				continue
			}
			t = newTailer
			currentFile = newFile
			// A fresh file starts a fresh day anchor.
			w.stream = reconcile.NewStream(w.cfg.clock())
		}
	}
}

// processLine classifies one raw line and emits the reconciled events that
// pass the kind filter.
func (w *Watcher) processLine(ctx context.Context, line string, eventCh chan<- event.Event, errCh chan<- error) {
	res, err := w.cfg.classifier.ClassifyLine(ctx, line)
	if err != nil {
		// Partial results from ChainContinueOnError are still delivered.
		sendError(ctx, errCh, &ClassifyError{Line: line, Err: err})
	}
	if !res.Matched {
		return
	}

	for _, pl := range res.Lines {
		if pl.Kind == event.None {
			continue
		}
		// Only the restart marker may carry no player.
		if pl.Kind != event.ServerRestart && !pl.Player.Valid() {
			continue
		}

		ev := w.stream.Next(pl)
		if w.cfg.filter != nil && !w.cfg.filter.Allows(ev.Kind) {
			continue
		}
		if !w.cfg.includeRawLine {
			ev.RawLine = ""
		}

		select {
		case eventCh <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// replayLastN reads and processes the last N lines of the log file before
// tailing begins.
func (w *Watcher) replayLastN(ctx context.Context, logFile string, eventCh chan<- event.Event, errCh chan<- error) error {
	lines, err := readLastLines(logFile, w.cfg.replay.LastN, w.cfg.maxReplayBytes, w.cfg.maxReplayLineBytes)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.processLine(ctx, line, eventCh, errCh)
	}
	return nil
}

// readLastLines returns the last n non-empty lines of a file, oldest
// first, by scanning backward in fixed-size chunks. maxBytes caps the
// total bytes read and maxLineBytes the length of a single line (0 means
// unlimited for either); exceeding a cap returns ErrReplayLimitExceeded.
func readLastLines(path string, n, maxBytes, maxLineBytes int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := stat.Size()
	if size == 0 || n <= 0 {
		return nil, nil
	}

	const chunkSize = 4096

	var (
		lines []string // newest first while scanning
		carry []byte   // incomplete line preceding the scanned region
		off   = size
		total int
	)

	for len(lines) < n && off > 0 {
		readSize := int64(chunkSize)
		if off < readSize {
			readSize = off
		}
		off -= readSize

		if maxBytes > 0 && total+int(readSize)+len(carry) > maxBytes {
			return nil, ErrReplayLimitExceeded
		}

		buf := make([]byte, readSize, int(readSize)+len(carry))
		if _, err := f.ReadAt(buf, off); err != nil {
			return nil, err
		}
		total += int(readSize)
		buf = append(buf, carry...)

		// Walk the chunk backward. Everything before the first newline is
		// an incomplete line carried into the next (earlier) chunk.
		end := len(buf)
		for i := end - 1; i >= 0 && len(lines) < n; i-- {
			if buf[i] != '\n' {
				continue
			}
			if maxLineBytes > 0 && end-i-1 > maxLineBytes {
				return nil, ErrReplayLimitExceeded
			}
			if line := trimLine(buf[i+1 : end]); line != "" {
				lines = append(lines, line)
			}
			end = i
		}
		carry = buf[:end]
		// Once n lines are found carry may still hold complete lines that
		// will never be scanned, so the length check only applies while
		// the scan continues.
		if maxLineBytes > 0 && len(lines) < n && len(carry) > maxLineBytes {
			return nil, ErrReplayLimitExceeded
		}
	}

	// The first line of the file has no leading newline.
	if off == 0 && len(lines) < n && len(carry) > 0 {
		if line := trimLine(carry); line != "" {
			lines = append(lines, line)
		}
	}

	// Reverse to oldest first.
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return lines, nil
}

func trimLine(b []byte) string {
	if len(b) > 0 && b[len(b)-1] == '\r' {
		b = b[:len(b)-1]
	}
	return string(b)
}

// sendError delivers an error without blocking shutdown. With a full
// buffer the error is dropped.
func sendError(ctx context.Context, errCh chan<- error, err error) {
	if err == nil {
		return
	}
	select {
	case errCh <- err:
	case <-ctx.Done():
	default:
	}
}
