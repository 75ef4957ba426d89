package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore is a Redis implementation of Store. Each record set lives under
// one key as a single JSON document, so Save stays a full atomic overwrite.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisStore creates a new Redis-backed store.
func NewRedisStore(client *redis.Client, logger *zap.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "set:",
		logger: logger,
	}
}

func (r *RedisStore) Load(ctx context.Context, set string) (map[string]json.RawMessage, error) {
	data, err := r.client.Get(ctx, r.prefix+set).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return map[string]json.RawMessage{}, nil
		}

		return nil, fmt.Errorf("redis get set %q: %w", set, err)
	}

	var records map[string]json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		r.logger.Warn("stored set corrupt, starting empty",
			zap.String("set", set),
			zap.Error(err),
		)

		return map[string]json.RawMessage{}, nil
	}

	if records == nil {
		records = map[string]json.RawMessage{}
	}

	return records, nil
}

func (r *RedisStore) Save(ctx context.Context, set string, records map[string]json.RawMessage) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode set %q: %w", set, err)
	}

	if err := r.client.Set(ctx, r.prefix+set, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", set, err)
	}

	return nil
}

// Compile-time check.
var _ Store = (*RedisStore)(nil)
