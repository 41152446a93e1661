// Package logsource incrementally exposes newly appended lines of a
// growing server log file.
package logsource

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dayzlog/dayzlog-go/internal/safefile"
)

// Source reads a log file in increments: each Pull returns only the
// complete lines appended since the previous successful Pull. State is a
// byte offset kept in memory; the file is reopened on every call so the
// external writer is never blocked and file replacement is tolerated.
//
// Source is not safe for concurrent use; it belongs to the poll
// goroutine.
type Source struct {
	path   string
	offset int64
}

// New creates a Source for the given log file. The first Pull reads from
// the beginning of the file; call SkipToEnd first for tail-like behavior.
func New(path string) *Source {
	return &Source{path: path}
}

// Path returns the log file path.
func (s *Source) Path() string { return s.path }

// Offset returns the byte offset of the next unread line. Callers that
// want read positions to survive a process restart can persist it and
// hand it back via SetOffset.
func (s *Source) Offset() int64 { return s.offset }

// SetOffset overrides the read position, e.g. when restoring persisted
// state.
func (s *Source) SetOffset(off int64) {
	if off < 0 {
		off = 0
	}
	s.offset = off
}

// SkipToEnd moves the read position to the current end of the file, so
// only lines appended afterwards are pulled.
func (s *Source) SkipToEnd() error {
	f, info, err := safefile.OpenRegular(s.path)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()
	s.offset = info.Size()
	return nil
}

// Pull returns up to maxLines newly appended complete lines, in file
// order. maxLines <= 0 means no cap. Incomplete trailing data (no
// newline yet) stays unconsumed until a later Pull sees it completed.
//
// If the file shrank below the stored offset it was truncated or
// replaced; reading restarts from the beginning.
//
// I/O failures (missing or unreadable file) are returned to the caller
// unchanged; Source never retries internally.
func (s *Source) Pull(ctx context.Context, maxLines int) ([]string, error) {
	f, info, err := safefile.OpenRegular(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()

	if info.Size() < s.offset {
		s.offset = 0
	}

	if _, err := f.Seek(s.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking log file: %w", err)
	}

	var lines []string
	r := bufio.NewReader(f)
	consumed := s.offset

	for maxLines <= 0 || len(lines) < maxLines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := r.ReadString('\n')
		if err == io.EOF {
			// Partial line at EOF: leave it for the next pull.
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading log file: %w", err)
		}

		consumed += int64(len(raw))
		line := strings.TrimRight(raw, "\r\n")
		if line != "" {
			lines = append(lines, line)
		}
	}

	s.offset = consumed
	return lines, nil
}
