package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Collection is a typed view over one record set of a Store.
//
// Every read-modify-write against a set must go through Update: because Save
// overwrites the whole set, two concurrent handlers that each load, mutate and
// save would clobber each other's records. Update holds the collection mutex
// for the full load-mutate-save cycle, making it the serialization boundary
// for the set.
type Collection[T any] struct {
	store Store
	set   string
	mu    sync.Mutex

	logger *zap.Logger
}

// NewCollection creates a typed collection bound to one named set.
func NewCollection[T any](s Store, set string, logger *zap.Logger) *Collection[T] {
	return &Collection[T]{
		store:  s,
		set:    set,
		logger: logger,
	}
}

// Set returns the name of the underlying record set.
func (c *Collection[T]) Set() string {
	return c.set
}

// Update runs fn against the decoded mapping and persists the result.
// The mutation is atomic relative to other Update and View calls on this
// collection. If fn returns an error nothing is saved.
func (c *Collection[T]) Update(ctx context.Context, fn func(records map[string]T) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.load(ctx)
	if err != nil {
		return err
	}

	if err := fn(records); err != nil {
		return err
	}

	return c.save(ctx, records)
}

// View runs fn against a decoded snapshot of the mapping without saving.
// Mutations made by fn are discarded.
func (c *Collection[T]) View(ctx context.Context, fn func(records map[string]T) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.load(ctx)
	if err != nil {
		return err
	}

	return fn(records)
}

func (c *Collection[T]) load(ctx context.Context) (map[string]T, error) {
	raw, err := c.store.Load(ctx, c.set)
	if err != nil {
		return nil, fmt.Errorf("load set %q: %w", c.set, err)
	}

	records := make(map[string]T, len(raw))

	for id, payload := range raw {
		var record T
		if err := json.Unmarshal(payload, &record); err != nil {
			// A single corrupt record must not take the whole set down.
			c.logger.Warn("skipping undecodable record",
				zap.String("set", c.set),
				zap.String("id", id),
				zap.Error(err),
			)

			continue
		}

		records[id] = record
	}

	return records, nil
}

func (c *Collection[T]) save(ctx context.Context, records map[string]T) error {
	raw := make(map[string]json.RawMessage, len(records))

	for id, record := range records {
		payload, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encode record %q in set %q: %w", id, c.set, err)
		}

		raw[id] = payload
	}

	if err := c.store.Save(ctx, c.set, raw); err != nil {
		return fmt.Errorf("save set %q: %w", c.set, err)
	}

	return nil
}
