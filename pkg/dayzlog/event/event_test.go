package event_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayzlog/dayzlog-go/pkg/dayzlog/event"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    event.TimeOfDay
		wantErr bool
	}{
		{
			name: "standard",
			line: "19:22:10 Player connected",
			want: event.TimeOfDay{Hour: 19, Minute: 22, Second: 10},
		},
		{
			name: "midnight",
			line: "00:00:00 something",
			want: event.TimeOfDay{},
		},
		{
			name: "space_padded_hour",
			line: " 9:03:08 Player kicked",
			want: event.TimeOfDay{Hour: 9, Minute: 3, Second: 8},
		},
		{
			name: "exactly_prefix",
			line: "23:59:59",
			want: event.TimeOfDay{Hour: 23, Minute: 59, Second: 59},
		},
		{
			name:    "too_short",
			line:    "19:22",
			wantErr: true,
		},
		{
			name:    "not_a_time",
			line:    "xx:yy:zz rest of line",
			wantErr: true,
		},
		{
			name:    "hour_out_of_range",
			line:    "24:00:00 line",
			wantErr: true,
		},
		{
			name:    "minute_out_of_range",
			line:    "10:60:00 line",
			wantErr: true,
		},
		{
			name:    "empty",
			line:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := event.ParseTimeOfDay(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeOfDayAt(t *testing.T) {
	tod := event.TimeOfDay{Hour: 19, Minute: 22, Second: 10}
	date := time.Date(2024, 3, 15, 8, 30, 0, 0, time.UTC)

	got := tod.At(date)
	assert.Equal(t, time.Date(2024, 3, 15, 19, 22, 10, 0, time.UTC), got)
}

func TestTimeOfDayString(t *testing.T) {
	assert.Equal(t, "09:03:08", event.TimeOfDay{Hour: 9, Minute: 3, Second: 8}.String())
}

func TestParseKind(t *testing.T) {
	k, ok := event.ParseKind("connected")
	require.True(t, ok)
	assert.Equal(t, event.Connected, k)

	k, ok = event.ParseKind("  Server_Restart ")
	require.True(t, ok)
	assert.Equal(t, event.ServerRestart, k)

	_, ok = event.ParseKind("none")
	assert.False(t, ok, "none never appears on the wire")

	_, ok = event.ParseKind("bogus")
	assert.False(t, ok)
}

func TestKindNames(t *testing.T) {
	names := event.KindNames()
	assert.Contains(t, names, "connected")
	assert.Contains(t, names, "kicked_unstable_connection")
	assert.NotContains(t, names, "none")
	assert.IsIncreasing(t, names)
}

func TestKindClosing(t *testing.T) {
	assert.True(t, event.Disconnected.Closing())
	assert.True(t, event.Kicked.Closing())
	assert.True(t, event.KickedUnstableConnection.Closing())
	assert.False(t, event.Connected.Closing())
	assert.False(t, event.ServerRestart.Closing())
}

func TestPlayerValid(t *testing.T) {
	assert.True(t, event.Player{Name: "moglef"}.Valid())
	assert.True(t, event.Player{Name: "moglef", SteamID: "765"}.Valid())
	assert.False(t, event.Player{SteamID: "765"}.Valid())
	assert.False(t, event.Player{}.Valid())
}

func TestEventKey(t *testing.T) {
	ts := time.Date(2024, 3, 15, 19, 22, 10, 0, time.UTC)
	a := event.Event{Kind: event.Connected, Player: event.Player{Name: "moglef", SteamID: "765"}, Timestamp: ts}
	b := event.Event{Kind: event.Connected, Player: event.Player{Name: "moglef", SteamID: "765"}, Timestamp: ts}

	assert.Equal(t, a.Key(), b.Key())

	c := a
	c.Kind = event.Disconnected
	assert.NotEqual(t, a.Key(), c.Key())

	d := a
	d.Timestamp = ts.Add(time.Second)
	assert.NotEqual(t, a.Key(), d.Key())

	// Key is timezone independent.
	e := a
	e.Timestamp = ts.In(time.FixedZone("x", 3600))
	assert.Equal(t, a.Key(), e.Key())
}

func TestIntervalDuration(t *testing.T) {
	start := time.Date(2024, 3, 15, 19, 0, 0, 0, time.UTC)
	iv := event.Interval{Start: start, End: start.Add(30 * time.Minute)}
	assert.Equal(t, 30*time.Minute, iv.Duration())
}
