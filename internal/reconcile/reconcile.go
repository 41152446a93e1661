// Package reconcile assigns absolute dates to time-of-day-stamped events.
//
// DayZ server logs carry only a HH:MM:SS prefix per line. The date is
// recovered from an anchor: the newest line of a batch is assumed to have
// been written on the anchor date (normally "today"), and older lines are
// dated by walking the batch backward and detecting day rollovers.
//
// The rollover rule is a heuristic: it assumes at most one midnight is
// crossed inside a single batch and that the anchor date really is the
// date of the newest line. Large batches or multi-day processing gaps
// silently degrade accuracy.
package reconcile

import (
	"time"

	"github.com/dayzlog/dayzlog-go/pkg/dayzlog/event"
)

// Batch resolves absolute timestamps for a batch of classified lines.
//
// The batch must be ordered as read from the file: oldest line first, the
// most recently written line last. The returned events keep that order,
// and their timestamps are non-decreasing from first to last.
//
// An empty batch returns nil. A batch of size 1 is anchored directly.
func Batch(lines []event.ParsedLine, anchor time.Time) []event.Event {
	if len(lines) == 0 {
		return nil
	}

	events := make([]event.Event, len(lines))

	// Newest line gets the anchor date.
	last := len(lines) - 1
	events[last] = resolved(lines[last], lines[last].Time.At(anchor))

	// Walk backward. An older line with a greater hour than its already
	// resolved successor means a midnight was crossed going back in time:
	// it belongs to the previous day.
	for i := last - 1; i >= 0; i-- {
		newer := events[i+1].Timestamp
		date := newer
		if lines[i].Time.Hour > newer.Hour() {
			date = newer.AddDate(0, 0, -1)
		}
		events[i] = resolved(lines[i], lines[i].Time.At(date))
	}

	return events
}

func resolved(pl event.ParsedLine, ts time.Time) event.Event {
	return event.Event{
		Kind:      pl.Kind,
		Timestamp: ts,
		Player:    pl.Player,
		RawLine:   pl.Raw,
		Data:      pl.Data,
	}
}

// Stream resolves timestamps for lines arriving one at a time, for live
// tailing where batch anchoring is not possible. It is the forward mirror
// of the Batch rule: a new line whose time-of-day is earlier than the
// previous line's means midnight passed, so the date advances by one day.
type Stream struct {
	current time.Time // date of the most recent event
	primed  bool
}

// NewStream creates a Stream anchored to the given start date.
func NewStream(start time.Time) *Stream {
	return &Stream{current: start}
}

// Next resolves one classified line to an absolute event.
func (s *Stream) Next(pl event.ParsedLine) event.Event {
	ts := pl.Time.At(s.current)
	if s.primed && ts.Before(s.current) {
		ts = ts.AddDate(0, 0, 1)
	}
	s.current = ts
	s.primed = true
	return resolved(pl, ts)
}
