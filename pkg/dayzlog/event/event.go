// Package event defines the core event types for DayZ server log parsing.
//
// This package is separated from the main dayzlog package to avoid import
// cycles between pkg/dayzlog and internal/classifier.
package event

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind represents the type of a DayZ server log event.
type Kind string

const (
	// Connected indicates a player has connected to the server.
	Connected Kind = "connected"

	// Disconnected indicates a player has disconnected from the server.
	Disconnected Kind = "disconnected"

	// Died indicates a player has died. The server log carries no
	// recognizable line shape for it today; the kind exists so stored
	// events remain forward compatible.
	Died Kind = "died"

	// Kicked indicates the server state machine kicked a player
	// (wrong mods, failed auth, etc.).
	Kicked Kind = "kicked"

	// KickedUnstableConnection indicates a kick for speedhack suspicion
	// or a very unstable connection.
	KickedUnstableConnection Kind = "kicked_unstable_connection"

	// ServerRestart indicates the server started reading its mission,
	// i.e. it restarted. Restart events carry no player.
	ServerRestart Kind = "server_restart"

	// None marks a line that carried no recognizable event.
	// Lines classified as None are dropped before further processing.
	None Kind = "none"
)

// allKinds is the canonical list of event kinds that can appear on the wire.
// None is deliberately excluded: it never leaves the classifier.
var allKinds = []Kind{Connected, Disconnected, Died, Kicked, KickedUnstableConnection, ServerRestart}

// KindNames returns a sorted list of all valid event kind names.
// This is the single source of truth for kind enumeration.
func KindNames() []string {
	names := make([]string, len(allKinds))
	for i, k := range allKinds {
		names[i] = string(k)
	}
	sort.Strings(names)
	return names
}

// kindByName maps lowercase names to Kind for lookup.
var kindByName = func() map[string]Kind {
	m := make(map[string]Kind, len(allKinds))
	for _, k := range allKinds {
		m[string(k)] = k
	}
	return m
}()

// ParseKind converts a string to Kind if valid.
// It is case-insensitive and trims leading/trailing whitespace.
func ParseKind(name string) (Kind, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	k, ok := kindByName[name]
	return k, ok
}

// Closing reports whether the kind terminates an open player session.
func (k Kind) Closing() bool {
	return k == Disconnected || k == Kicked || k == KickedUnstableConnection
}

// Player identifies a DayZ player by display name and Steam ID.
// Equality is by the (Name, SteamID) pair; the struct is comparable and
// used directly as a map key.
type Player struct {
	Name    string `json:"name"`
	SteamID string `json:"steam_id,omitempty"`
}

// Valid reports whether the player carries an identity. An empty name is
// the sentinel for "no player" events such as server restarts.
func (p Player) Valid() bool {
	return p.Name != ""
}

func (p Player) String() string {
	return p.Name
}

// TimeOfDay is a wall-clock time without a date, as read from the
// fixed-width HH:MM:SS prefix of a log line.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay parses the fixed 8-character HH:MM:SS prefix of a log
// line. A leading space in the hour field (" 9:03:08") is tolerated, as
// the server emits it for single-digit hours.
func ParseTimeOfDay(line string) (TimeOfDay, error) {
	if len(line) < 8 {
		return TimeOfDay{}, fmt.Errorf("line shorter than time prefix: %q", line)
	}
	prefix := strings.TrimSpace(line[:8])

	parts := strings.Split(prefix, ":")
	if len(parts) != 3 {
		return TimeOfDay{}, fmt.Errorf("malformed time prefix: %q", prefix)
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return TimeOfDay{}, fmt.Errorf("invalid hour in time prefix: %q", prefix)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid minute in time prefix: %q", prefix)
	}
	s, err := strconv.Atoi(parts[2])
	if err != nil || s < 0 || s > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid second in time prefix: %q", prefix)
	}

	return TimeOfDay{Hour: h, Minute: m, Second: s}, nil
}

// At combines the time-of-day with the date portion of the given time.
func (t TimeOfDay) At(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour, t.Minute, t.Second, 0, date.Location())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// ParsedLine is a classified log line before date reconciliation.
// Its timestamp is only a time-of-day; the absolute date is assigned
// later by walking the batch against an anchor date.
type ParsedLine struct {
	Kind   Kind
	Player Player
	Time   TimeOfDay
	Raw    string

	// Data holds named capture groups from custom pattern classifiers.
	// Built-in recognizers leave it nil.
	Data map[string]string
}

// Event is a fully reconciled log event with an absolute timestamp.
type Event struct {
	// Kind is the event kind.
	Kind Kind `json:"kind"`

	// Timestamp is when the event occurred (local time, date reconciled
	// against the anchor date of its batch).
	Timestamp time.Time `json:"timestamp"`

	// Player identifies the affected player. Zero for server restarts.
	Player Player `json:"player"`

	// RawLine is the original log line (only included if requested).
	RawLine string `json:"raw_line,omitempty"`

	// Data holds named capture groups from custom pattern classifiers.
	Data map[string]string `json:"data,omitempty"`
}

// Key returns the de-duplication identity of the event: the full
// {kind, player, timestamp} tuple. Two reads of the same log line always
// produce the same key.
func (e Event) Key() string {
	return string(e.Kind) + "|" + e.Player.Name + "|" + e.Player.SteamID + "|" + strconv.FormatInt(e.Timestamp.Unix(), 10)
}

// Interval is a closed time range during which a player was online.
// End is never before Start.
type Interval struct {
	Player Player
	Start  time.Time
	End    time.Time
}

// Duration returns the length of the interval.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}
