package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced time source shared by the backend tests
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	value := []byte(`{"conversionRate":17.02304}`)
	require.NoError(t, store.Set(ctx, "current_conversion_rate", value, time.Minute))

	got, ok := store.Get(ctx, "current_conversion_rate")
	require.True(t, ok)
	assert.Equal(t, value, got)

	_, ok = store.Get(ctx, "unknown")
	assert.False(t, ok)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := NewMemoryStore().WithClock(clock.Now)

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Second))

	clock.Advance(999 * time.Millisecond)
	_, ok := store.Get(ctx, "k")
	assert.True(t, ok, "record should be live before expiry")

	clock.Advance(time.Millisecond)
	_, ok = store.Get(ctx, "k")
	assert.False(t, ok, "record must not be returned at its expiry")
}

func TestMemoryStore_ExpiryRealClock(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)

	_, ok := store.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryStore_OverwriteAndIsolation(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := NewMemoryStore().WithClock(clock.Now)

	require.NoError(t, store.Set(ctx, "a", []byte("1"), time.Second))
	require.NoError(t, store.Set(ctx, "b", []byte("2"), time.Hour))

	clock.Advance(2 * time.Second)
	_, ok := store.Get(ctx, "a")
	assert.False(t, ok)

	got, ok := store.Get(ctx, "b")
	require.True(t, ok)
	assert.Equal(t, []byte("2"), got)

	// a later Set supersedes the expired record
	require.NoError(t, store.Set(ctx, "a", []byte("3"), time.Second))
	got, ok = store.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, []byte("3"), got)
}

func TestMemoryStore_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	value := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", value, time.Minute))
	value[0] = 'x'

	got, _ := store.Get(ctx, "k")
	got[1] = 'y'

	again, _ := store.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), again)
}

func TestMemoryStore_InvalidTTL(t *testing.T) {
	store := NewMemoryStore()
	assert.ErrorIs(t, store.Set(context.Background(), "k", []byte("v"), 0), ErrInvalidTTL)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%5)
			_ = store.Set(ctx, key, []byte(key), time.Minute)
			if got, ok := store.Get(ctx, key); ok {
				assert.Equal(t, []byte(key), got)
			}
		}(i)
	}
	wg.Wait()
}
