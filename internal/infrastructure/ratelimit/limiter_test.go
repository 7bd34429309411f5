package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemory_BurstThenReject(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l := NewInMemory()
	l.now = func() time.Time { return now }
	rule := Rule{Name: "t", Limit: 3, Window: 15 * time.Minute}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := l.Allow(ctx, rule, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "hit %d", i+1)
	}
	d, err := l.Allow(ctx, rule, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.InDelta(t, float64(5*time.Minute), float64(d.RetryAfter), float64(time.Second))

	// otra clave tiene su propio bucket
	d, _ = l.Allow(ctx, rule, "5.6.7.8")
	assert.True(t, d.Allowed)

	// tras un tercio de ventana se recarga una petición
	now = now.Add(5*time.Minute + time.Second)
	d, _ = l.Allow(ctx, rule, "1.2.3.4")
	assert.True(t, d.Allowed)
}

func TestInMemory_RulesAreIndependent(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	a := Rule{Name: "a", Limit: 1, Window: time.Minute}
	b := Rule{Name: "b", Limit: 1, Window: time.Minute}

	d, _ := l.Allow(ctx, a, "k")
	assert.True(t, d.Allowed)
	d, _ = l.Allow(ctx, a, "k")
	assert.False(t, d.Allowed)
	d, _ = l.Allow(ctx, b, "k")
	assert.True(t, d.Allowed)
}

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestRedis_FixedWindow(t *testing.T) {
	client, mr := setupRedis(t)
	l := NewRedis(client)
	l.Fallback = nil
	rule := Rule{Name: "login", Limit: 2, Window: time.Minute}
	ctx := context.Background()

	d, err := l.Allow(ctx, rule, "ip")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)

	d, err = l.Allow(ctx, rule, "ip")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	d, err = l.Allow(ctx, rule, "ip")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, d.RetryAfter, time.Minute)

	assert.True(t, mr.Exists("rl:login:ip"))

	mr.FastForward(time.Minute + time.Second)
	d, err = l.Allow(ctx, rule, "ip")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRedis_FallbackWhenDown(t *testing.T) {
	client, mr := setupRedis(t)
	l := NewRedis(client)
	mr.Close()

	rule := Rule{Name: "x", Limit: 1, Window: time.Minute}
	d, err := l.Allow(context.Background(), rule, "k")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	d, err = l.Allow(context.Background(), rule, "k")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}

func TestRedis_ErrorWithoutFallback(t *testing.T) {
	client, mr := setupRedis(t)
	l := NewRedis(client)
	l.Fallback = nil
	mr.Close()

	_, err := l.Allow(context.Background(), Rule{Name: "x", Limit: 1, Window: time.Minute}, "k")
	assert.Error(t, err)
}
