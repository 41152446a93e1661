// Package stats folds closed online intervals into per-player, per-day
// online-time statistics.
package stats

import (
	"sort"
	"strings"
	"time"

	"github.com/dayzlog/dayzlog-go/pkg/dayzlog/event"
)

// placeholderNamePrefix marks the default survivor identity the server
// assigns before login completes. Such entries never represent a real
// player and are excluded from reporting.
const placeholderNamePrefix = "Survivor"

// DayStat is one {player, date, duration} reporting triple.
type DayStat struct {
	Player   event.Player  `json:"player"`
	Date     time.Time     `json:"date"` // midnight, local time
	Duration time.Duration `json:"duration"`
}

// Summary is the read-side projection of one player's day buckets.
type Summary struct {
	Player event.Player  `json:"player"`
	Total  time.Duration `json:"total"`
	MaxDay time.Duration `json:"max_day"`
}

// Aggregator owns the per-player day-bucket maps. It is mutated only on
// the poll goroutine that owns it.
type Aggregator struct {
	days map[event.Player]map[time.Time]time.Duration
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{days: make(map[event.Player]map[time.Time]time.Duration)}
}

// Accumulate adds one closed interval to the player's day buckets.
//
// An interval contained in a single calendar day is added to that day's
// bucket. An interval spanning midnight is split at the boundary: the
// portion before midnight goes to the start date, the rest to the end
// date. Intervals crossing more than one midnight are not split further;
// the excess is attributed to the end date (known limitation).
func (a *Aggregator) Accumulate(iv event.Interval) {
	buckets := a.days[iv.Player]
	if buckets == nil {
		buckets = make(map[time.Time]time.Duration)
		a.days[iv.Player] = buckets
	}

	startDay := midnight(iv.Start)
	endDay := midnight(iv.End)

	if startDay.Equal(endDay) {
		buckets[startDay] += iv.End.Sub(iv.Start)
		return
	}

	// Session crossed midnight: attribute the remainder of the start day
	// to it and the rest to the end day.
	buckets[startDay] += startDay.AddDate(0, 0, 1).Sub(iv.Start)
	buckets[endDay] += iv.End.Sub(endDay)
}

// Ensure creates an empty bucket map for the player if absent. Called on
// first observed connect so the player appears in reports even before a
// session closes.
func (a *Aggregator) Ensure(p event.Player) {
	if _, ok := a.days[p]; !ok {
		a.days[p] = make(map[time.Time]time.Duration)
	}
}

// Players returns all tracked players, sorted by name for deterministic
// output.
func (a *Aggregator) Players() []event.Player {
	players := make([]event.Player, 0, len(a.days))
	for p := range a.days {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].Name != players[j].Name {
			return players[i].Name < players[j].Name
		}
		return players[i].SteamID < players[j].SteamID
	})
	return players
}

// DayStats returns the reporting triples for all reportable players,
// oldest date first, players sorted by name within a date. Players with
// empty or placeholder names are skipped.
func (a *Aggregator) DayStats() []DayStat {
	var out []DayStat
	for _, p := range a.Players() {
		if !reportable(p) {
			continue
		}
		for date, d := range a.days[p] {
			out = append(out, DayStat{Player: p, Date: date, Duration: d})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Player.Name < out[j].Player.Name
	})
	return out
}

// Summaries folds each reportable player's day buckets into total and
// maximum per-day online time. A pure projection; no state changes.
func (a *Aggregator) Summaries() []Summary {
	var out []Summary
	for _, p := range a.Players() {
		if !reportable(p) {
			continue
		}
		s := Summary{Player: p}
		for _, d := range a.days[p] {
			s.Total += d
			if d > s.MaxDay {
				s.MaxDay = d
			}
		}
		out = append(out, s)
	}
	return out
}

// PlayerDays returns a copy of one player's day buckets, nil if the
// player is unknown.
func (a *Aggregator) PlayerDays(p event.Player) map[time.Time]time.Duration {
	buckets, ok := a.days[p]
	if !ok {
		return nil
	}
	out := make(map[time.Time]time.Duration, len(buckets))
	for k, v := range buckets {
		out[k] = v
	}
	return out
}

func reportable(p event.Player) bool {
	return p.Valid() && !strings.HasPrefix(p.Name, placeholderNamePrefix)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
