package dayzlog_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayzlog/dayzlog-go/pkg/dayzlog"
	"github.com/dayzlog/dayzlog-go/pkg/dayzlog/event"
)

const watcherLog = `19:22:10 Player "moglef" is connected (steamID=76561198067078615)
19:25:00 Chat(moglef): anyone here
19:40:33 Player moglef disconnected.
`

func writeADM(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "DayZServer_x64.ADM")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// receiveEvents drains count events or fails the test on timeout.
func receiveEvents(t *testing.T, ch <-chan event.Event, count int) []event.Event {
	t.Helper()
	var got []event.Event
	deadline := time.After(5 * time.Second)
	for len(got) < count {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("event channel closed after %d of %d events", len(got), count)
			}
			got = append(got, ev)
		case <-deadline:
			t.Fatalf("timeout after %d of %d events", len(got), count)
		}
	}
	return got
}

func TestWatcher_ReplayLastN(t *testing.T) {
	path := writeADM(t, watcherLog)
	anchor := time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC)

	w, err := dayzlog.NewWatcherWithOptions(
		dayzlog.WithLogFile(path),
		dayzlog.WithReplayLastN(10),
		dayzlog.WithClock(fixedClock(anchor)),
	)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := w.Watch(ctx)
	require.NoError(t, err)

	got := receiveEvents(t, events, 2)

	assert.Equal(t, event.Connected, got[0].Kind)
	assert.Equal(t, "moglef", got[0].Player.Name)
	assert.Equal(t, "76561198067078615", got[0].Player.SteamID)
	assert.Equal(t, time.Date(2024, 3, 15, 19, 22, 10, 0, time.UTC), got[0].Timestamp)

	assert.Equal(t, event.Disconnected, got[1].Kind)
	assert.Equal(t, time.Date(2024, 3, 15, 19, 40, 33, 0, time.UTC), got[1].Timestamp)
}

func TestWatcher_ReplayFromStartWithFilter(t *testing.T) {
	path := writeADM(t, watcherLog)

	w, err := dayzlog.NewWatcherWithOptions(
		dayzlog.WithLogFile(path),
		dayzlog.WithReplayFromStart(),
		dayzlog.WithIncludeKinds(event.Connected),
	)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := w.Watch(ctx)
	require.NoError(t, err)

	got := receiveEvents(t, events, 1)
	assert.Equal(t, event.Connected, got[0].Kind)
	assert.Empty(t, got[0].RawLine)
}

func TestWatcher_IncludeRawLine(t *testing.T) {
	path := writeADM(t, watcherLog)

	w, err := dayzlog.NewWatcherWithOptions(
		dayzlog.WithLogFile(path),
		dayzlog.WithReplayLastN(10),
		dayzlog.WithIncludeRawLine(true),
	)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := w.Watch(ctx)
	require.NoError(t, err)

	got := receiveEvents(t, events, 1)
	assert.Contains(t, got[0].RawLine, `Player "moglef" is connected`)
}

func TestWatcher_WatchTwice(t *testing.T) {
	path := writeADM(t, "")

	w, err := dayzlog.NewWatcherWithOptions(dayzlog.WithLogFile(path))
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, _, err = w.Watch(ctx)
	require.NoError(t, err)

	_, _, err = w.Watch(ctx)
	assert.ErrorIs(t, err, dayzlog.ErrAlreadyWatching)
}

func TestWatcher_WatchAfterClose(t *testing.T) {
	path := writeADM(t, "")

	w, err := dayzlog.NewWatcherWithOptions(dayzlog.WithLogFile(path))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, _, err = w.Watch(context.Background())
	assert.ErrorIs(t, err, dayzlog.ErrWatcherClosed)
}

func TestWatcher_CloseIdempotent(t *testing.T) {
	path := writeADM(t, "")

	w, err := dayzlog.NewWatcherWithOptions(dayzlog.WithLogFile(path))
	require.NoError(t, err)

	_, _, err = w.Watch(context.Background())
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestWatcher_ContextCancelClosesChannels(t *testing.T) {
	path := writeADM(t, "")

	w, err := dayzlog.NewWatcherWithOptions(dayzlog.WithLogFile(path))
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	events, errs, err := w.Watch(ctx)
	require.NoError(t, err)

	cancel()

	deadline := time.After(5 * time.Second)
	for events != nil || errs != nil {
		select {
		case _, ok := <-events:
			if !ok {
				events = nil
			}
		case _, ok := <-errs:
			if !ok {
				errs = nil
			}
		case <-deadline:
			t.Fatal("channels did not close after cancel")
		}
	}
}

func TestWatcher_InvalidOptions(t *testing.T) {
	_, err := dayzlog.NewWatcherWithOptions(
		dayzlog.WithLogFile("x.ADM"),
		dayzlog.WithPollInterval(-time.Second),
	)
	assert.Error(t, err)
}
