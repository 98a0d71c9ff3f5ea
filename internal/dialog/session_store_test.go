package dialog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/carservice-desk/internal/slots"
	"github.com/wolfman30/carservice-desk/pkg/logging"
)

func sampleSession(id string) *Session {
	return &Session{
		ID:                id,
		Stage:             StageConfirmTime,
		CustomerName:      "John Smith",
		VehicleID:         "KA01AB1234",
		PreferredDateText: "5 December 2025",
		ResolvedDate:      time.Date(2025, 12, 5, 0, 0, 0, 0, time.UTC),
		PreferredSlot:     slots.Morning,
	}
}

func TestMemorySessionStore_RoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore(10*time.Minute, logging.Discard())
	clock := time.Date(2025, 12, 3, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	require.NoError(t, store.Save(ctx, sampleSession("s1")))

	got, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, StageConfirmTime, got.Stage)
	assert.Equal(t, slots.Morning, got.PreferredSlot)

	got.Stage = StageFinalAsk
	again, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, StageConfirmTime, again.Stage, "loaded sessions are copies")

	clock = clock.Add(11 * time.Minute)
	got, err = store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 0, store.Len())
}

func TestMemorySessionStore_Sweep(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore(time.Minute, logging.Discard())
	clock := time.Date(2025, 12, 3, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	require.NoError(t, store.Save(ctx, sampleSession("old")))
	clock = clock.Add(2 * time.Minute)
	require.NoError(t, store.Save(ctx, sampleSession("fresh")))

	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Delete(ctx, "fresh"))
	assert.Equal(t, 0, store.Len())
}

func TestMemorySessionStore_StartStop(t *testing.T) {
	store := NewMemorySessionStore(time.Minute, logging.Discard())
	require.NoError(t, store.Start(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	store.Stop(ctx)
	store.Stop(ctx)
}

func TestMemorySessionStore_RejectsEmptyID(t *testing.T) {
	store := NewMemorySessionStore(0, nil)
	_, err := store.Load(context.Background(), "")
	require.ErrorIs(t, err, ErrEmptySessionID)
	require.ErrorIs(t, store.Save(context.Background(), &Session{}), ErrEmptySessionID)
}

func newRedisSessionStore(t *testing.T, ttl time.Duration) (*RedisSessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSessionStore(client, ttl), mr
}

func TestRedisSessionStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisSessionStore(t, 30*time.Minute)

	require.NoError(t, store.Save(ctx, sampleSession("s1")))
	assert.True(t, mr.Exists(sessionKey("s1")))
	assert.Equal(t, 30*time.Minute, mr.TTL(sessionKey("s1")))

	got, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "John Smith", got.CustomerName)
	assert.Equal(t, "KA01AB1234", got.VehicleID)
	assert.True(t, got.ResolvedDate.Equal(time.Date(2025, 12, 5, 0, 0, 0, 0, time.UTC)))
	assert.False(t, got.UpdatedAt.IsZero())

	require.NoError(t, store.Delete(ctx, "s1"))
	got, err = store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisSessionStore_SlidingTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisSessionStore(t, 10*time.Minute)

	require.NoError(t, store.Save(ctx, sampleSession("s1")))
	mr.FastForward(8 * time.Minute)
	require.NoError(t, store.Save(ctx, sampleSession("s1")))
	mr.FastForward(8 * time.Minute)

	got, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got, "saving must refresh the ttl")

	mr.FastForward(11 * time.Minute)
	got, err = store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisSessionStore_Errors(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisSessionStore(t, time.Minute)

	require.NoError(t, mr.Set(sessionKey("bad"), "{not json"))
	_, err := store.Load(ctx, "bad")
	require.Error(t, err)

	_, err = store.Load(ctx, "")
	require.ErrorIs(t, err, ErrEmptySessionID)

	mr.Close()
	_, err = store.Load(ctx, "s1")
	require.Error(t, err)
}

func TestEngineWithRedisSessions(t *testing.T) {
	h := newHarness(t)
	redisStore, _ := newRedisSessionStore(t, time.Hour)
	h.engine.sessions = redisStore

	reply, err := h.engine.Begin(context.Background(), "")
	require.NoError(t, err)
	id := reply.SessionID

	for _, u := range bookingScript("John Smith", "KA01AB1234") {
		_, err := h.engine.Advance(context.Background(), id, u)
		require.NoError(t, err)
	}
	s, err := redisStore.Load(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, StageFinalAsk, s.Stage)
	assert.Equal(t, OutcomeBooked, s.Outcome)
}
