package store

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/jaevor/go-nanoid"
	"github.com/redis/go-redis/v9"
)

// RateLimitRedisStore is a Redis implementation of ratelimit.Store backed by
// a sorted set of request timestamps per key. Suitable when the webhook is
// served by more than one instance.
type RateLimitRedisStore struct {
	client   *redis.Client
	prefix   string
	instance string
	seq      atomic.Uint64
	now      func() time.Time
}

// NewRateLimitRedisStore creates a new Redis-backed rate limit store.
func NewRateLimitRedisStore(client *redis.Client) *RateLimitRedisStore {
	// Standard only fails for lengths outside 2..255.
	tag, _ := nanoid.Standard(8)

	return &RateLimitRedisStore{
		client:   client,
		prefix:   "ratelimit:",
		instance: tag(),
		now:      time.Now,
	}
}

func (s *RateLimitRedisStore) Record(ctx context.Context, key string, window time.Duration) (int64, error) {
	now := s.now()
	cutoff := now.Add(-window)
	redisKey := s.prefix + key

	// The member carries an instance tag and sequence number so requests
	// landing in the same nanosecond stay distinct set members; a bare
	// timestamp member would collapse them and undercount the window.
	member := fmt.Sprintf("%d-%s-%d", now.UnixNano(), s.instance, s.seq.Add(1))

	pipe := s.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, redisKey,
		"-inf", strconv.FormatInt(cutoff.UnixNano(), 10))
	pipe.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: member,
	})
	count := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("record rate limit key: %w", err)
	}

	return count.Val(), nil
}
