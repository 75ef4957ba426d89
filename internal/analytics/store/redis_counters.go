package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/joke-bot-go/internal/analytics"
)

// RedisCounters aggregates analytics events into per-day counters in Redis.
type RedisCounters struct {
	client *redis.Client
	prefix string
}

// NewRedisCounters creates a Redis-backed analytics store.
func NewRedisCounters(client *redis.Client) *RedisCounters {
	return &RedisCounters{
		client: client,
		prefix: "analytics:",
	}
}

func (r *RedisCounters) SaveJokeDelivered(ctx context.Context, event *analytics.JokeDeliveredEvent) error {
	day := event.DeliveredAt.Format("2006-01-02")

	pipe := r.client.Pipeline()
	pipe.Incr(ctx, fmt.Sprintf("%sdelivered:%s", r.prefix, day))
	pipe.Incr(ctx, fmt.Sprintf("%sdelivered:%s:locale:%s", r.prefix, day, event.Locale))

	if event.Translated {
		pipe.Incr(ctx, fmt.Sprintf("%stranslated:%s", r.prefix, day))
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("increment delivery counters: %w", err)
	}

	return nil
}

func (r *RedisCounters) SaveVoteCast(ctx context.Context, event *analytics.VoteCastEvent) error {
	day := event.CastAt.Format("2006-01-02")

	pipe := r.client.Pipeline()
	pipe.Incr(ctx, fmt.Sprintf("%svotes:%s", r.prefix, day))
	pipe.Incr(ctx, fmt.Sprintf("%svotes:%s:%s", r.prefix, day, event.Direction))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("increment vote counters: %w", err)
	}

	return nil
}

// Compile-time checks.
var (
	_ analytics.Store = (*Noop)(nil)
	_ analytics.Store = (*RedisCounters)(nil)
)
