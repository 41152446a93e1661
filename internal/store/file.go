package store

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/dayzlog/dayzlog-go/pkg/dayzlog/event"
)

// record is one line of the JSONL store file. Exactly one field is set.
type record struct {
	Event  *event.Event  `json:"event,omitempty"`
	Player *event.Player `json:"player,omitempty"`
}

// File is an append-only JSON Lines store. The full file is loaded into
// an in-memory index on open; adds are appended and flushed immediately,
// so a crash loses at most the tick in flight.
type File struct {
	mu   sync.Mutex
	f    *os.File
	w    *bufio.Writer
	path string

	events  []event.Event
	seen    map[string]struct{}
	players map[event.Player]struct{}
}

// OpenFile opens (or creates) the store file at path and loads its
// contents. Corrupt lines abort the open: a store that silently drops
// history would defeat de-duplication.
func OpenFile(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening store file: %w", err)
	}

	s := &File{
		f:       f,
		w:       bufio.NewWriter(f),
		path:    path,
		seen:    make(map[string]struct{}),
		players: make(map[event.Player]struct{}),
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec record
		if err := sonic.Unmarshal(scanner.Bytes(), &rec); err != nil {
			f.Close()
			return nil, fmt.Errorf("store file %s line %d: %w", path, lineNo, err)
		}
		switch {
		case rec.Event != nil:
			s.events = append(s.events, *rec.Event)
			s.seen[rec.Event.Key()] = struct{}{}
		case rec.Player != nil:
			s.players[*rec.Player] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		f.Close()
		return nil, fmt.Errorf("reading store file: %w", err)
	}

	return s, nil
}

// Path returns the store file path.
func (s *File) Path() string { return s.path }

// AddEvents implements Store.
func (s *File) AddEvents(_ context.Context, events []event.Event) ([]event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var added []event.Event
	for _, ev := range events {
		key := ev.Key()
		if _, dup := s.seen[key]; dup {
			continue
		}
		ev := ev
		if err := s.append(record{Event: &ev}); err != nil {
			return added, err
		}
		s.seen[key] = struct{}{}
		s.events = append(s.events, ev)
		added = append(added, ev)
	}
	return added, s.flush()
}

// AddPlayers implements Store.
func (s *File) AddPlayers(_ context.Context, players []event.Player) ([]event.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var added []event.Player
	for _, p := range players {
		if !p.Valid() {
			continue
		}
		if _, dup := s.players[p]; dup {
			continue
		}
		p := p
		if err := s.append(record{Player: &p}); err != nil {
			return added, err
		}
		s.players[p] = struct{}{}
		added = append(added, p)
	}
	return added, s.flush()
}

// Events implements Store.
func (s *File) Events(_ context.Context) ([]event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]event.Event, len(s.events))
	copy(out, s.events)
	return out, nil
}

// Players implements Store.
func (s *File) Players(_ context.Context) ([]event.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]event.Player, 0, len(s.players))
	for p := range s.players {
		out = append(out, p)
	}
	sortPlayers(out)
	return out, nil
}

// Close flushes pending writes and closes the file. Safe to call once.
func (s *File) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return nil
	}
	flushErr := s.w.Flush()
	closeErr := s.f.Close()
	s.f = nil
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

func (s *File) append(rec record) error {
	data, err := sonic.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding store record: %w", err)
	}
	if _, err := s.w.Write(data); err != nil {
		return fmt.Errorf("writing store record: %w", err)
	}
	return s.w.WriteByte('\n')
}

func (s *File) flush() error {
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("flushing store: %w", err)
	}
	return nil
}
