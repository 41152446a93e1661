// Package classifier provides DayZ server log line classification.
//
// A line is matched against an ordered list of recognizers; the first that
// matches wins. The order disambiguates overlapping marker substrings (a
// state-machine kick line also contains "player", an unstable-connection
// kick also contains "kicked").
package classifier

import (
	"strings"

	"github.com/dayzlog/dayzlog-go/pkg/dayzlog/event"
)

// recognizers in match order. Order matters: the unstable-connection kick
// must be tried before the generic disconnect, and the state-machine kick
// before both.
var recognizers = []func(string) (event.ParsedLine, bool){
	recognizeConnect,
	recognizeStateMachineKick,
	recognizeUnstableKick,
	recognizeDisconnect,
	recognizeRestart,
}

// Classify converts one raw log line into a ParsedLine.
//
// Returns:
//   - (line, true): the line carried a recognized event
//   - (zero, false): noise, or a matched shape with an unparsable time prefix
//
// Classify is pure: the same input always yields the same result.
func Classify(raw string) (event.ParsedLine, bool) {
	// Trim trailing CR for Windows CRLF logs
	raw = strings.TrimRight(raw, "\r")

	if raw == "" {
		return event.ParsedLine{}, false
	}

	for _, recognize := range recognizers {
		if pl, ok := recognize(raw); ok {
			return pl, true
		}
	}

	return event.ParsedLine{}, false
}
