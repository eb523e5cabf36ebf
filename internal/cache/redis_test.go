package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis, *fakeClock) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	clock := newFakeClock()
	return NewRedisStore(client, "xfey:").WithClock(clock.Now), mr, clock
}

func TestRedisStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr, _ := newTestRedisStore(t)

	value := []byte(`{"priceUSD":3100.5,"lastUpdated":1}`)
	require.NoError(t, store.Set(ctx, "gecko_weth_price", value, 5*time.Minute))

	got, ok := store.Get(ctx, "gecko_weth_price")
	require.True(t, ok)
	assert.Equal(t, value, got)

	assert.True(t, mr.Exists("xfey:gecko_weth_price"), "key should be namespaced")
	assert.Equal(t, 5*time.Minute, mr.TTL("xfey:gecko_weth_price"))
}

func TestRedisStore_ExpiredByRedis(t *testing.T) {
	ctx := context.Background()
	store, mr, _ := newTestRedisStore(t)

	require.NoError(t, store.Set(ctx, "k", []byte(`1`), time.Second))
	mr.FastForward(2 * time.Second)

	_, ok := store.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedisStore_ExpiryEvaluatedAtRead(t *testing.T) {
	ctx := context.Background()
	store, _, clock := newTestRedisStore(t)

	require.NoError(t, store.Set(ctx, "k", []byte(`1`), time.Second))

	// Redis still holds the key, but the recorded expiry has passed
	clock.Advance(time.Second)
	_, ok := store.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedisStore_MalformedRecordIsMiss(t *testing.T) {
	ctx := context.Background()
	store, mr, _ := newTestRedisStore(t)

	require.NoError(t, mr.Set("xfey:k", "not-json"))

	_, ok := store.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedisStore_Unavailable(t *testing.T) {
	ctx := context.Background()
	store, mr, _ := newTestRedisStore(t)
	mr.Close()

	_, ok := store.Get(ctx, "k")
	assert.False(t, ok, "an unreachable backend degrades to a miss")

	assert.Error(t, store.Set(ctx, "k", []byte(`1`), time.Minute))
}
