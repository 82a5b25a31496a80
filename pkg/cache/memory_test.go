package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Symbol string  `json:"symbol"`
	Score  float64 `json:"score"`
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	in := payload{Symbol: "AAPL", Score: 0.72}
	require.NoError(t, mc.Set(ctx, "scores:AAPL", in, time.Minute))

	var out payload
	require.NoError(t, mc.Get(ctx, "scores:AAPL", &out))
	assert.Equal(t, in, out)

	exists, err := mc.Exists(ctx, "scores:AAPL")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemoryCacheMiss(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	var out payload
	err := mc.Get(context.Background(), "absent", &out)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "ephemeral", payload{Symbol: "TSLA"}, 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	var out payload
	assert.ErrorIs(t, mc.Get(ctx, "ephemeral", &out), ErrCacheMiss)

	exists, err := mc.Exists(ctx, "ephemeral")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryCacheDelete(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, mc.Set(ctx, "b", 2, time.Minute))
	require.NoError(t, mc.Delete(ctx, "a", "b"))

	var out int
	assert.ErrorIs(t, mc.Get(ctx, "a", &out), ErrCacheMiss)
	assert.ErrorIs(t, mc.Get(ctx, "b", &out), ErrCacheMiss)
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxEntries(2))
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "old", payload{Symbol: "IBM"}, time.Minute))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, mc.Set(ctx, "warm", payload{Symbol: "NVDA"}, time.Minute))
	time.Sleep(2 * time.Millisecond)

	// Touch "old" so "warm" becomes the eviction candidate.
	var out payload
	require.NoError(t, mc.Get(ctx, "old", &out))
	time.Sleep(2 * time.Millisecond)

	require.NoError(t, mc.Set(ctx, "new", payload{Symbol: "AMD"}, time.Minute))

	assert.NoError(t, mc.Get(ctx, "old", &out))
	assert.ErrorIs(t, mc.Get(ctx, "warm", &out), ErrCacheMiss)
	assert.NoError(t, mc.Get(ctx, "new", &out))
}

func TestGenerateKeyWithParams(t *testing.T) {
	assert.Equal(t, "candles:AAPL:120", GenerateKeyWithParams("candles", "AAPL", 120))
	assert.Equal(t, "candles", GenerateKeyWithParams("candles"))
}
