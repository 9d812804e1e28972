package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*OTPLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewOTPLimiter(client, limit, window), mr
}

func TestOTPLimiterAllowsWithinLimit(t *testing.T) {
	l, _ := newTestLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.True(t, l.Allow(ctx, "a@example.com", "1.2.3.4"), "request %d should pass", i+1)
	}
	assert.False(t, l.Allow(ctx, "a@example.com", "1.2.3.4"))
}

func TestOTPLimiterKeysByEmailAndIP(t *testing.T) {
	l, _ := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	require.True(t, l.Allow(ctx, "a@example.com", "1.2.3.4"))
	require.False(t, l.Allow(ctx, "a@example.com", "1.2.3.4"))

	// A different IP or address gets its own window.
	assert.True(t, l.Allow(ctx, "a@example.com", "5.6.7.8"))
	assert.True(t, l.Allow(ctx, "b@example.com", "1.2.3.4"))
}

func TestOTPLimiterResetsAfterWindow(t *testing.T) {
	l, mr := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	require.True(t, l.Allow(ctx, "a@example.com", "1.2.3.4"))
	require.False(t, l.Allow(ctx, "a@example.com", "1.2.3.4"))

	mr.FastForward(61 * time.Second)
	assert.True(t, l.Allow(ctx, "a@example.com", "1.2.3.4"))
}

func TestOTPLimiterFailsOpenWithoutRedis(t *testing.T) {
	l := NewOTPLimiter(nil, 1, time.Minute)
	for i := 0; i < 10; i++ {
		assert.True(t, l.Allow(context.Background(), "a@example.com", "1.2.3.4"))
	}
}
