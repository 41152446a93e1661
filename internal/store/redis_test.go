package store_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayzlog/dayzlog-go/internal/store"
	"github.com/dayzlog/dayzlog-go/pkg/dayzlog/event"
)

func newRedisStore(t *testing.T) *store.Redis {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := store.NewRedisWithClient(client)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRedisAddEventsDeduplicates(t *testing.T) {
	s := newRedisStore(t)
	ctx := context.Background()

	added, err := s.AddEvents(ctx, []event.Event{connectedAt(alice, 10), connectedAt(bob, 11)})
	require.NoError(t, err)
	assert.Len(t, added, 2)

	added, err = s.AddEvents(ctx, []event.Event{connectedAt(alice, 10)})
	require.NoError(t, err)
	assert.Empty(t, added)

	events, err := s.Events(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	// Oldest first regardless of hash iteration order.
	assert.Equal(t, alice, events[0].Player)
	assert.Equal(t, bob, events[1].Player)
}

func TestRedisEventsRoundTrip(t *testing.T) {
	s := newRedisStore(t)
	ctx := context.Background()

	want := connectedAt(alice, 10)
	want.RawLine = `19:22:10 Player "alice" is connected (steamID=1)`
	want.Data = map[string]string{"k": "v"}

	_, err := s.AddEvents(ctx, []event.Event{want})
	require.NoError(t, err)

	events, err := s.Events(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, want.Kind, events[0].Kind)
	assert.Equal(t, want.Player, events[0].Player)
	assert.True(t, want.Timestamp.Equal(events[0].Timestamp))
	assert.Equal(t, want.RawLine, events[0].RawLine)
	assert.Equal(t, want.Data, events[0].Data)
}

func TestRedisAddPlayers(t *testing.T) {
	s := newRedisStore(t)
	ctx := context.Background()

	added, err := s.AddPlayers(ctx, []event.Player{bob, alice, {}})
	require.NoError(t, err)
	assert.Len(t, added, 2)

	added, err = s.AddPlayers(ctx, []event.Player{alice})
	require.NoError(t, err)
	assert.Empty(t, added)

	players, err := s.Players(ctx)
	require.NoError(t, err)
	assert.Equal(t, []event.Player{alice, bob}, players)
}

func TestOpenRedisBadURL(t *testing.T) {
	_, err := store.OpenRedis("not-a-redis-url")
	assert.Error(t, err)
}
