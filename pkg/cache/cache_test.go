package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type payload struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
	At     time.Time `json:"at"`
}

func newMemory(t *testing.T, opts ...MemoryOption) (*MemoryCache, *clock) {
	t.Helper()
	clk := &clock{t: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)}
	mc := NewMemoryCache(append([]MemoryOption{WithMemoryClock(clk.Now)}, opts...)...)
	t.Cleanup(func() { _ = mc.Close() })
	return mc, clk
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	mc, _ := newMemory(t)

	in := payload{Name: "x", Values: []float64{0.1, 1e-9, 21.123456789012345}, At: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, mc.Set(ctx, "k", in, time.Hour))

	var out payload
	require.NoError(t, mc.Get(ctx, "k", &out))
	assert.Equal(t, in, out)

	var s string
	require.NoError(t, mc.Set(ctx, "s", "plain", time.Hour))
	require.NoError(t, mc.Get(ctx, "s", &s))
	assert.Equal(t, "plain", s)
}

func TestMemoryStoredBytesAreIsolated(t *testing.T) {
	ctx := context.Background()
	mc, _ := newMemory(t)

	raw := []byte(`{"a":1}`)
	require.NoError(t, mc.Set(ctx, "k", raw, time.Hour))
	raw[2] = 'X'

	var got []byte
	require.NoError(t, mc.Get(ctx, "k", &got))
	assert.Equal(t, `{"a":1}`, string(got))
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	mc, clk := newMemory(t)

	require.NoError(t, mc.Set(ctx, "k", 1, 12*time.Hour))

	clk.Advance(11 * time.Hour)
	ttl, err := mc.TTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, ttl)

	var v int
	require.NoError(t, mc.Get(ctx, "k", &v))

	clk.Advance(time.Hour)
	assert.ErrorIs(t, mc.Get(ctx, "k", &v), ErrCacheMiss)
	ok, err := mc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc, clk := newMemory(t, WithMemoryMaxSize(2))

	require.NoError(t, mc.Set(ctx, "a", 1, time.Hour))
	clk.Advance(time.Second)
	require.NoError(t, mc.Set(ctx, "b", 2, time.Hour))
	clk.Advance(time.Second)

	var v int
	require.NoError(t, mc.Get(ctx, "a", &v))
	clk.Advance(time.Second)
	require.NoError(t, mc.Set(ctx, "c", 3, time.Hour))

	assert.Equal(t, 2, mc.Len())
	assert.ErrorIs(t, mc.Get(ctx, "b", &v), ErrCacheMiss)
	assert.NoError(t, mc.Get(ctx, "a", &v))
	assert.NoError(t, mc.Get(ctx, "c", &v))
}

func TestMemoryDeleteByPattern(t *testing.T) {
	ctx := context.Background()
	mc, _ := newMemory(t)

	for _, k := range []string{"liquidity:8:0", "liquidity:5:3", "other:1"} {
		require.NoError(t, mc.Set(ctx, k, 1, time.Hour))
	}
	require.NoError(t, mc.DeleteByPattern(ctx, BuildPattern("liquidity")))

	ok, _ := mc.Exists(ctx, "liquidity:8:0", "liquidity:5:3")
	assert.False(t, ok)
	ok, _ = mc.Exists(ctx, "other:1")
	assert.True(t, ok)
}

func TestLayeredPromotesWithRemainingTTL(t *testing.T) {
	ctx := context.Background()
	remote, clk := newMemory(t)
	lc := NewLayeredCache(remote, WithLayeredMemory(WithMemoryClock(clk.Now)))

	require.NoError(t, remote.Set(ctx, "k", payload{Name: "r"}, 2*time.Hour))
	clk.Advance(time.Hour)

	var out payload
	require.NoError(t, lc.Get(ctx, "k", &out))
	assert.Equal(t, "r", out.Name)

	ttl, err := lc.mem.TTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, ttl)

	clk.Advance(time.Hour)
	assert.ErrorIs(t, lc.Get(ctx, "k", &out), ErrCacheMiss)
}

func TestLayeredWriteThrough(t *testing.T) {
	ctx := context.Background()
	remote, _ := newMemory(t)
	lc := NewLayeredCache(remote)
	t.Cleanup(func() { _ = lc.Close() })

	require.NoError(t, lc.Set(ctx, "k", payload{Name: "w"}, time.Hour))
	var out payload
	require.NoError(t, remote.Get(ctx, "k", &out))
	assert.Equal(t, "w", out.Name)

	require.NoError(t, lc.Delete(ctx, "k"))
	ok, _ := lc.Exists(ctx, "k")
	assert.False(t, ok)
}

func TestGenerateKeyWithParams(t *testing.T) {
	assert.Equal(t, "liquidity:8:-3", GenerateKeyWithParams("liquidity", 8, -3))
}

func TestRedisDefaultsAddNoPrefix(t *testing.T) {
	cfg := defaultRedisConfig()
	assert.Empty(t, cfg.Prefix)

	WithRedisPrefix("app")(&cfg)
	assert.Equal(t, "app", cfg.Prefix)
}
