package dayzlog

import (
	"errors"
	"fmt"

	"github.com/dayzlog/dayzlog-go/internal/logfinder"
)

// Sentinel errors returned by this package.
var (
	// ErrLogDirNotFound is returned when the server log directory cannot
	// be found or accessed.
	ErrLogDirNotFound = logfinder.ErrLogDirNotFound

	// ErrNoLogFiles is returned when no server log files are found in
	// the configured directory.
	ErrNoLogFiles = logfinder.ErrNoLogFiles

	// ErrWatcherClosed is returned when Watch is called on a closed
	// watcher.
	ErrWatcherClosed = errors.New("watcher is closed")

	// ErrAlreadyWatching is returned when Watch is called twice on the
	// same watcher.
	ErrAlreadyWatching = errors.New("watcher is already watching")

	// ErrCollectorClosed is returned when Run is called on a closed
	// collector.
	ErrCollectorClosed = errors.New("collector is closed")

	// ErrAlreadyRunning is returned when Run is called twice on the
	// same collector.
	ErrAlreadyRunning = errors.New("collector is already running")

	// ErrReplayLimitExceeded is returned when replaying recent lines
	// would exceed the configured byte limits.
	ErrReplayLimitExceeded = errors.New("replay limit exceeded")
)

// Op identifies the operation a WatchError occurred in.
type Op string

const (
	OpFindLog  Op = "find_log"
	OpPull     Op = "pull"
	OpTail     Op = "tail"
	OpReplay   Op = "replay"
	OpRotation Op = "rotation"
	OpPersist  Op = "persist"
)

// WatchError wraps a failure in the watch/collect machinery with the
// operation and, when known, the log file path.
type WatchError struct {
	Op   Op
	Path string
	Err  error
}

func (e *WatchError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *WatchError) Unwrap() error { return e.Err }

// ClassifyError wraps a classifier failure with the offending line.
type ClassifyError struct {
	Line string
	Err  error
}

func (e *ClassifyError) Error() string {
	return fmt.Sprintf("classifying line %q: %v", e.Line, e.Err)
}

func (e *ClassifyError) Unwrap() error { return e.Err }
