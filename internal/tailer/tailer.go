// Package tailer provides follow-mode reading of DayZ server log files.
package tailer

import (
	"context"
	"fmt"
	"sync"

	"github.com/nxadm/tail"
)

// errBuffer is the buffer size for the error channel. A small buffer
// keeps errors from being dropped while the consumer is busy with lines.
const errBuffer = 16

// Config holds tailing configuration.
type Config struct {
	// Follow keeps reading as the file grows (tail -f).
	Follow bool

	// ReOpen reopens the file when it is truncated or recreated (tail -F).
	// The server truncates its log on restart, so this defaults on.
	ReOpen bool

	// Poll uses polling instead of inotify (more compatible, less efficient).
	Poll bool

	// MustExist requires the file to exist before starting.
	MustExist bool

	// FromStart reads from the beginning of the file instead of the end.
	FromStart bool
}

// DefaultConfig returns the default configuration for server logs.
func DefaultConfig() Config {
	return Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
	}
}

// Tailer wraps nxadm/tail and exposes lines and errors over channels.
type Tailer struct {
	t      *tail.Tail
	ctx    context.Context
	cancel context.CancelFunc
	lines  chan string
	errors chan error
	doneCh chan struct{}

	mu      sync.Mutex
	stopped bool
}

// New creates a Tailer for the given file. The context controls the
// tailer's lifecycle.
func New(ctx context.Context, path string, cfg Config) (*Tailer, error) {
	location := &tail.SeekInfo{Offset: 0, Whence: 2} // end of file
	if cfg.FromStart {
		location = &tail.SeekInfo{Offset: 0, Whence: 0}
	}

	t, err := tail.TailFile(path, tail.Config{
		Follow:    cfg.Follow,
		ReOpen:    cfg.ReOpen,
		Poll:      cfg.Poll,
		MustExist: cfg.MustExist,
		Location:  location,
	})
	if err != nil {
		return nil, fmt.Errorf("opening tail: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)

	tl := &Tailer{
		t:      t,
		ctx:    ctx,
		cancel: cancel,
		lines:  make(chan string),
		errors: make(chan error, errBuffer),
		doneCh: make(chan struct{}),
	}

	go tl.run()

	return tl, nil
}

// Lines returns the channel of log lines.
func (t *Tailer) Lines() <-chan string { return t.lines }

// Errors returns the channel of tailing errors. Sends are non-blocking;
// with a full buffer errors are dropped.
func (t *Tailer) Errors() <-chan error { return t.errors }

// Stop stops tailing and closes all channels. Safe to call multiple
// times.
func (t *Tailer) Stop() error {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return nil
	}
	t.stopped = true
	t.mu.Unlock()

	t.cancel()
	<-t.doneCh
	return t.t.Stop()
}

func (t *Tailer) run() {
	defer close(t.doneCh)
	defer close(t.lines)
	defer close(t.errors)

	for {
		select {
		case <-t.ctx.Done():
			return
		case line, ok := <-t.t.Lines:
			if !ok {
				return
			}
			if line.Err != nil {
				select {
				case t.errors <- fmt.Errorf("tail: %w", line.Err):
				case <-t.ctx.Done():
					return
				default:
				}
				continue
			}
			select {
			case t.lines <- line.Text:
			case <-t.ctx.Done():
				return
			}
		}
	}
}
