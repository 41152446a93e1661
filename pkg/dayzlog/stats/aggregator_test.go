package stats_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayzlog/dayzlog-go/pkg/dayzlog/event"
	"github.com/dayzlog/dayzlog-go/pkg/dayzlog/stats"
)

var (
	alice = event.Player{Name: "alice", SteamID: "1"}
	bob   = event.Player{Name: "bob", SteamID: "2"}
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func iv(p event.Player, start, end time.Time) event.Interval {
	return event.Interval{Player: p, Start: start, End: end}
}

func TestAccumulateSingleDay(t *testing.T) {
	agg := stats.NewAggregator()
	agg.Accumulate(iv(bob,
		time.Date(2026, 3, 14, 10, 0, 0, 0, time.Local),
		time.Date(2026, 3, 14, 10, 30, 0, 0, time.Local)))

	days := agg.PlayerDays(bob)
	require.Len(t, days, 1)
	assert.Equal(t, 30*time.Minute, days[day(2026, 3, 14)])
}

func TestAccumulateSplitsAtMidnight(t *testing.T) {
	agg := stats.NewAggregator()
	agg.Accumulate(iv(alice,
		time.Date(2026, 3, 14, 23, 58, 0, 0, time.Local),
		time.Date(2026, 3, 15, 0, 2, 0, 0, time.Local)))

	days := agg.PlayerDays(alice)
	require.Len(t, days, 2)
	assert.Equal(t, 2*time.Minute, days[day(2026, 3, 14)])
	assert.Equal(t, 2*time.Minute, days[day(2026, 3, 15)])
}

func TestAccumulateAddsToExistingBucket(t *testing.T) {
	agg := stats.NewAggregator()
	agg.Accumulate(iv(alice,
		time.Date(2026, 3, 14, 10, 0, 0, 0, time.Local),
		time.Date(2026, 3, 14, 11, 0, 0, 0, time.Local)))
	agg.Accumulate(iv(alice,
		time.Date(2026, 3, 14, 20, 0, 0, 0, time.Local),
		time.Date(2026, 3, 14, 20, 45, 0, 0, time.Local)))

	days := agg.PlayerDays(alice)
	assert.Equal(t, time.Hour+45*time.Minute, days[day(2026, 3, 14)])
}

func TestEnsureListsPlayerWithoutIntervals(t *testing.T) {
	agg := stats.NewAggregator()
	agg.Ensure(alice)

	assert.Equal(t, []event.Player{alice}, agg.Players())
	assert.Empty(t, agg.PlayerDays(alice))
	assert.NotNil(t, agg.PlayerDays(alice))
}

func TestDayStatsSortedAndFiltered(t *testing.T) {
	agg := stats.NewAggregator()
	agg.Accumulate(iv(bob,
		time.Date(2026, 3, 15, 9, 0, 0, 0, time.Local),
		time.Date(2026, 3, 15, 10, 0, 0, 0, time.Local)))
	agg.Accumulate(iv(alice,
		time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local),
		time.Date(2026, 3, 14, 10, 0, 0, 0, time.Local)))
	agg.Accumulate(iv(alice,
		time.Date(2026, 3, 15, 9, 0, 0, 0, time.Local),
		time.Date(2026, 3, 15, 9, 30, 0, 0, time.Local)))

	// Placeholder identities are tracked but never reported.
	survivor := event.Player{Name: "Survivor"}
	agg.Accumulate(iv(survivor,
		time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local),
		time.Date(2026, 3, 14, 9, 10, 0, 0, time.Local)))

	got := agg.DayStats()
	require.Len(t, got, 3)
	assert.Equal(t, stats.DayStat{Player: alice, Date: day(2026, 3, 14), Duration: time.Hour}, got[0])
	assert.Equal(t, stats.DayStat{Player: alice, Date: day(2026, 3, 15), Duration: 30 * time.Minute}, got[1])
	assert.Equal(t, stats.DayStat{Player: bob, Date: day(2026, 3, 15), Duration: time.Hour}, got[2])
}

func TestSummaries(t *testing.T) {
	agg := stats.NewAggregator()
	agg.Accumulate(iv(alice,
		time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local),
		time.Date(2026, 3, 14, 11, 0, 0, 0, time.Local)))
	agg.Accumulate(iv(alice,
		time.Date(2026, 3, 15, 9, 0, 0, 0, time.Local),
		time.Date(2026, 3, 15, 9, 30, 0, 0, time.Local)))

	got := agg.Summaries()
	require.Len(t, got, 1)
	assert.Equal(t, alice, got[0].Player)
	assert.Equal(t, 2*time.Hour+30*time.Minute, got[0].Total)
	assert.Equal(t, 2*time.Hour, got[0].MaxDay)
}

func TestSummariesSkipsSurvivorPrefix(t *testing.T) {
	agg := stats.NewAggregator()
	agg.Ensure(event.Player{Name: "Survivor (2)"})
	agg.Ensure(event.Player{Name: "SurvivorX"})
	agg.Ensure(alice)

	got := agg.Summaries()
	require.Len(t, got, 1)
	assert.Equal(t, alice, got[0].Player)
}

func TestPlayerDaysReturnsCopy(t *testing.T) {
	agg := stats.NewAggregator()
	agg.Accumulate(iv(alice,
		time.Date(2026, 3, 14, 10, 0, 0, 0, time.Local),
		time.Date(2026, 3, 14, 11, 0, 0, 0, time.Local)))

	days := agg.PlayerDays(alice)
	days[day(2026, 3, 14)] = 0

	assert.Equal(t, time.Hour, agg.PlayerDays(alice)[day(2026, 3, 14)])
	assert.Nil(t, agg.PlayerDays(bob))
}
