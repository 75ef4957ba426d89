package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serroba/joke-bot-go/internal/ratelimit"
	"github.com/serroba/joke-bot-go/internal/store"
)

func TestSlidingWindowLimiter(t *testing.T) {
	t.Run("allows requests under the limit", func(t *testing.T) {
		limiter := ratelimit.NewSlidingWindowLimiter(store.NewRateLimitMemoryStore(), 5, time.Minute)

		for range 5 {
			allowed, err := limiter.Allow(context.Background(), "sender1")

			require.NoError(t, err)
			assert.True(t, allowed)
		}
	})

	t.Run("denies requests over the limit", func(t *testing.T) {
		limiter := ratelimit.NewSlidingWindowLimiter(store.NewRateLimitMemoryStore(), 3, time.Minute)

		for range 3 {
			allowed, err := limiter.Allow(context.Background(), "sender1")

			require.NoError(t, err)
			assert.True(t, allowed)
		}

		allowed, err := limiter.Allow(context.Background(), "sender1")

		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("tracks senders independently", func(t *testing.T) {
		limiter := ratelimit.NewSlidingWindowLimiter(store.NewRateLimitMemoryStore(), 2, time.Minute)

		for range 2 {
			allowed, _ := limiter.Allow(context.Background(), "sender1")
			assert.True(t, allowed)
		}

		allowed, _ := limiter.Allow(context.Background(), "sender1")
		assert.False(t, allowed, "sender1 should be rate limited")

		allowed, err := limiter.Allow(context.Background(), "sender2")

		require.NoError(t, err)
		assert.True(t, allowed, "sender2 should still be allowed")
	})

	t.Run("allows requests again after the window expires", func(t *testing.T) {
		limiter := ratelimit.NewSlidingWindowLimiter(store.NewRateLimitMemoryStore(), 2, 50*time.Millisecond)

		for range 2 {
			allowed, _ := limiter.Allow(context.Background(), "sender1")
			assert.True(t, allowed)
		}

		allowed, _ := limiter.Allow(context.Background(), "sender1")
		assert.False(t, allowed, "should be rate limited")

		time.Sleep(60 * time.Millisecond)

		allowed, err := limiter.Allow(context.Background(), "sender1")

		require.NoError(t, err)
		assert.True(t, allowed, "should be allowed after window expires")
	})
}
