// Package session tracks per-player online state across log events.
package session

import (
	"time"

	"github.com/dayzlog/dayzlog-go/pkg/dayzlog/event"
)

// Sink receives closed online intervals as the tracker emits them.
type Sink interface {
	Accumulate(event.Interval)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(event.Interval)

// Accumulate implements Sink.
func (f SinkFunc) Accumulate(iv event.Interval) { f(iv) }

// Tracker is a per-player two-state machine: Offline (initial) and Online.
//
//   - Connected moves a player Offline -> Online and records the start time.
//   - Disconnected and both kick kinds move Online -> Offline and emit the
//     closed interval. If the player is already Offline the event is a
//     no-op, not an error: the player may have connected before the
//     tracker started observing.
//   - ServerRestart closes the session of every currently online player
//     at the restart timestamp, exactly as a disconnect would.
//   - Died and classifier noise never reach session state.
//
// Tracker is not safe for concurrent use; it is owned by the single poll
// goroutine and mutated only there.
//
// Sessions are matched by player name. Only connect lines carry a steamID,
// so a disconnect or kick must close the session its name-only player
// opened; the emitted interval keeps the full identity recorded at
// connect time.
type Tracker struct {
	online map[string]openSession // player name -> open session
	sink   Sink
}

type openSession struct {
	player event.Player // identity from the connect line, steamID included
	start  time.Time
}

// NewTracker creates a Tracker that emits closed intervals to sink.
func NewTracker(sink Sink) *Tracker {
	return &Tracker{
		online: make(map[string]openSession),
		sink:   sink,
	}
}

// Observe feeds one reconciled event into the state machine.
// Events must arrive in timestamp order (oldest first).
func (t *Tracker) Observe(ev event.Event) {
	switch {
	case ev.Kind == event.Connected:
		if !ev.Player.Valid() {
			return
		}
		// A second connect without a disconnect restarts the session;
		// the earlier open session is unrecoverable and dropped.
		t.online[ev.Player.Name] = openSession{player: ev.Player, start: ev.Timestamp}

	case ev.Kind.Closing():
		s, ok := t.online[ev.Player.Name]
		if !ok {
			return // no session to close
		}
		delete(t.online, ev.Player.Name)
		t.emit(event.Interval{Player: s.player, Start: s.start, End: ev.Timestamp})

	case ev.Kind == event.ServerRestart:
		for _, s := range t.online {
			t.emit(event.Interval{Player: s.player, Start: s.start, End: ev.Timestamp})
		}
		clear(t.online)
	}
}

// OnlineCount returns the number of players currently online.
func (t *Tracker) OnlineCount() int {
	return len(t.online)
}

// Online reports whether the given player has an open session.
// Only the name participates in the lookup.
func (t *Tracker) Online(p event.Player) bool {
	_, ok := t.online[p.Name]
	return ok
}

func (t *Tracker) emit(iv event.Interval) {
	if iv.End.Before(iv.Start) {
		// Out-of-order input; clamp rather than emit a negative interval.
		iv.End = iv.Start
	}
	if t.sink != nil {
		t.sink.Accumulate(iv)
	}
}
