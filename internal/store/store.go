// Package store persists observed log events and players.
//
// The store is the de-duplication boundary: re-pulled log lines reach it
// again after every restart or overlapping read, and it suppresses them
// by full {kind, player, timestamp} equality before insert. The session
// state machine upstream never de-duplicates.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/dayzlog/dayzlog-go/pkg/dayzlog/event"
)

// Store persists events and players across poll ticks.
type Store interface {
	// AddEvents inserts events not seen before and returns the newly
	// added ones, preserving input order. Duplicates (by Event.Key) are
	// silently skipped.
	AddEvents(ctx context.Context, events []event.Event) ([]event.Event, error)

	// AddPlayers inserts players not seen before and returns the newly
	// added ones. Invalid (empty-name) players are skipped: they are the
	// restart sentinel, not an identity.
	AddPlayers(ctx context.Context, players []event.Player) ([]event.Player, error)

	// Events returns all stored events, oldest first.
	Events(ctx context.Context) ([]event.Event, error)

	// Players returns all stored players, sorted by name.
	Players(ctx context.Context) ([]event.Player, error)

	// Close releases underlying resources.
	Close() error
}

// Memory is an in-process Store. It is the default when no persistence
// is configured and the fixture store in tests.
type Memory struct {
	mu      sync.Mutex
	events  []event.Event
	seen    map[string]struct{}
	players map[event.Player]struct{}
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		seen:    make(map[string]struct{}),
		players: make(map[event.Player]struct{}),
	}
}

// AddEvents implements Store.
func (m *Memory) AddEvents(_ context.Context, events []event.Event) ([]event.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var added []event.Event
	for _, ev := range events {
		key := ev.Key()
		if _, dup := m.seen[key]; dup {
			continue
		}
		m.seen[key] = struct{}{}
		m.events = append(m.events, ev)
		added = append(added, ev)
	}
	return added, nil
}

// AddPlayers implements Store.
func (m *Memory) AddPlayers(_ context.Context, players []event.Player) ([]event.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var added []event.Player
	for _, p := range players {
		if !p.Valid() {
			continue
		}
		if _, dup := m.players[p]; dup {
			continue
		}
		m.players[p] = struct{}{}
		added = append(added, p)
	}
	return added, nil
}

// Events implements Store.
func (m *Memory) Events(_ context.Context) ([]event.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]event.Event, len(m.events))
	copy(out, m.events)
	return out, nil
}

// Players implements Store.
func (m *Memory) Players(_ context.Context) ([]event.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]event.Player, 0, len(m.players))
	for p := range m.players {
		out = append(out, p)
	}
	sortPlayers(out)
	return out, nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }

func sortEvents(events []event.Event) {
	sort.Slice(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
}

func sortPlayers(players []event.Player) {
	sort.Slice(players, func(i, j int) bool {
		if players[i].Name != players[j].Name {
			return players[i].Name < players[j].Name
		}
		return players[i].SteamID < players[j].SteamID
	})
}
