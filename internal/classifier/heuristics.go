package classifier

import (
	"strings"

	"github.com/dayzlog/dayzlog-go/pkg/dayzlog/event"
)

// Marker substrings tested by the recognizers. Markers are substring
// checks, not token checks; token positions only matter for name
// extraction.
const (
	markerPlayer        = "Player"
	markerConnected     = "connected"
	markerIs            = " is "
	markerDisconnected  = "disconnected"
	markerStateKick     = "[StateMachine]: Kick player"
	markerUnstableConn  = "unstable connection"
	markerBattlEye      = "BattlEye"
	markerReadingMisson = "Reading mission ..."
)

// steamIDPrefixLen is the length of the "(steamID=" prefix on the trailing
// token of a connect line.
const steamIDPrefixLen = 9

// recognizeConnect matches:
//
//	19:22:10 Player "moglef" is connected (steamID=76561198067078615)
func recognizeConnect(line string) (event.ParsedLine, bool) {
	if !strings.Contains(line, markerPlayer) ||
		!strings.Contains(line, markerConnected) ||
		!strings.Contains(line, markerIs) ||
		strings.Contains(line, markerDisconnected) {
		return event.ParsedLine{}, false
	}

	tod, err := event.ParseTimeOfDay(line)
	if err != nil {
		return event.ParsedLine{}, false
	}

	parts := strings.Split(line, " ")
	name := joinBetween(parts, indexOf(parts, "Player"), indexOf(parts, "is"))
	name = strings.Trim(name, `"`)

	return event.ParsedLine{
		Kind:   event.Connected,
		Player: event.Player{Name: name, SteamID: trailingSteamID(parts)},
		Time:   tod,
		Raw:    line,
	}, true
}

// recognizeStateMachineKick matches kicks issued by the login state
// machine (wrong mods, failed auth):
//
//	19:22:37 [StateMachine]: Kick player Survivor (dpnid 178538990 uid ) State AuthPlayerLoginState
func recognizeStateMachineKick(line string) (event.ParsedLine, bool) {
	if !strings.Contains(line, markerStateKick) {
		return event.ParsedLine{}, false
	}

	tod, err := event.ParseTimeOfDay(line)
	if err != nil {
		return event.ParsedLine{}, false
	}

	parts := strings.Split(line, " ")
	after := indexFunc(parts, func(s string) bool { return strings.HasPrefix(s, "(") })
	name := strings.TrimSpace(joinBetween(parts, indexOf(parts, "player"), after))

	return event.ParsedLine{
		Kind:   event.Kicked,
		Player: event.Player{Name: name},
		Time:   tod,
		Raw:    line,
	}, true
}

// recognizeUnstableKick matches:
//
//	09:03:08 Player moglef (20582534) kicked from server: 10 (Possible speedhack or very unstable connection.)
func recognizeUnstableKick(line string) (event.ParsedLine, bool) {
	if !strings.Contains(line, markerUnstableConn) {
		return event.ParsedLine{}, false
	}

	tod, err := event.ParseTimeOfDay(line)
	if err != nil {
		return event.ParsedLine{}, false
	}

	parts := strings.Split(line, " ")
	after := indexFunc(parts, func(s string) bool {
		return strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")
	})
	name := strings.TrimSpace(joinBetween(parts, indexOf(parts, "Player"), after))

	return event.ParsedLine{
		Kind:   event.KickedUnstableConnection,
		Player: event.Player{Name: name},
		Time:   tod,
		Raw:    line,
	}, true
}

// recognizeDisconnect matches:
//
//	15:52:07 Player Chris Toffel disconnected.
//
// BattlEye chatter mentioning "disconnected" is excluded.
func recognizeDisconnect(line string) (event.ParsedLine, bool) {
	if !strings.Contains(line, markerPlayer) ||
		!strings.Contains(line, markerDisconnected) ||
		strings.Contains(line, markerBattlEye) {
		return event.ParsedLine{}, false
	}

	tod, err := event.ParseTimeOfDay(line)
	if err != nil {
		return event.ParsedLine{}, false
	}

	parts := strings.Split(line, " ")
	name := joinBetween(parts, indexOf(parts, "Player"), indexOf(parts, "disconnected."))

	return event.ParsedLine{
		Kind:   event.Disconnected,
		Player: event.Player{Name: name},
		Time:   tod,
		Raw:    line,
	}, true
}

// recognizeRestart matches the mission load at server start:
//
//	03:00:01 Reading mission ...
//
// Restart events carry no player.
func recognizeRestart(line string) (event.ParsedLine, bool) {
	if !strings.Contains(line, markerReadingMisson) {
		return event.ParsedLine{}, false
	}

	tod, err := event.ParseTimeOfDay(line)
	if err != nil {
		return event.ParsedLine{}, false
	}

	return event.ParsedLine{
		Kind: event.ServerRestart,
		Time: tod,
		Raw:  line,
	}, true
}

// indexOf returns the index of the first element equal to want, or -1.
func indexOf(parts []string, want string) int {
	for i, p := range parts {
		if p == want {
			return i
		}
	}
	return -1
}

// indexFunc returns the index of the first element matching f, or -1.
func indexFunc(parts []string, f func(string) bool) int {
	for i, p := range parts {
		if f(p) {
			return i
		}
	}
	return -1
}

// joinBetween concatenates the tokens strictly between the two boundary
// indexes, without separators. Player names containing spaces therefore
// lose them ("Chris Toffel" becomes "ChrisToffel"). Connect and
// disconnect lines degrade the same way, so identities still match up.
// A missing boundary (-1) yields an empty result.
func joinBetween(parts []string, front, after int) string {
	if front < 0 || after < 0 || after <= front+1 {
		return ""
	}
	var b strings.Builder
	for i := front + 1; i < after; i++ {
		b.WriteString(parts[i])
	}
	return b.String()
}

// trailingSteamID extracts the Steam ID from the trailing
// "(steamID=<digits>)" token of a connect line.
func trailingSteamID(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	last := parts[len(parts)-1]
	if len(last) < steamIDPrefixLen {
		return ""
	}
	return strings.TrimSuffix(last[steamIDPrefixLen:], ")")
}
