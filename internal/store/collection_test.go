package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/serroba/joke-bot-go/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type counterRecord struct {
	Value int `json:"value"`
}

func TestCollection_Update(t *testing.T) {
	t.Run("persists mutations", func(t *testing.T) {
		col := store.NewCollection[counterRecord](store.NewMemoryStore(), "counters", zap.NewNop())

		err := col.Update(context.Background(), func(records map[string]counterRecord) error {
			records["a"] = counterRecord{Value: 1}

			return nil
		})
		require.NoError(t, err)

		err = col.View(context.Background(), func(records map[string]counterRecord) error {
			assert.Equal(t, 1, records["a"].Value)

			return nil
		})
		require.NoError(t, err)
	})

	t.Run("saves nothing when fn fails", func(t *testing.T) {
		col := store.NewCollection[counterRecord](store.NewMemoryStore(), "counters", zap.NewNop())

		err := col.Update(context.Background(), func(records map[string]counterRecord) error {
			records["a"] = counterRecord{Value: 1}

			return errors.New("boom")
		})
		require.Error(t, err)

		err = col.View(context.Background(), func(records map[string]counterRecord) error {
			assert.Empty(t, records)

			return nil
		})
		require.NoError(t, err)
	})

	t.Run("ignores unknown fields on load", func(t *testing.T) {
		memStore := store.NewMemoryStore()
		require.NoError(t, memStore.Save(context.Background(), "counters", map[string]json.RawMessage{
			"a": json.RawMessage(`{"value":7,"futureField":"ignored"}`),
		}))

		col := store.NewCollection[counterRecord](memStore, "counters", zap.NewNop())

		err := col.View(context.Background(), func(records map[string]counterRecord) error {
			assert.Equal(t, 7, records["a"].Value)

			return nil
		})
		require.NoError(t, err)
	})

	t.Run("skips undecodable records instead of failing the set", func(t *testing.T) {
		memStore := store.NewMemoryStore()
		require.NoError(t, memStore.Save(context.Background(), "counters", map[string]json.RawMessage{
			"good": json.RawMessage(`{"value":1}`),
			"bad":  json.RawMessage(`"not an object"`),
		}))

		col := store.NewCollection[counterRecord](memStore, "counters", zap.NewNop())

		err := col.View(context.Background(), func(records map[string]counterRecord) error {
			assert.Len(t, records, 1)
			assert.Contains(t, records, "good")

			return nil
		})
		require.NoError(t, err)
	})
}

func TestCollection_View(t *testing.T) {
	t.Run("discards mutations", func(t *testing.T) {
		col := store.NewCollection[counterRecord](store.NewMemoryStore(), "counters", zap.NewNop())

		err := col.View(context.Background(), func(records map[string]counterRecord) error {
			records["a"] = counterRecord{Value: 99}

			return nil
		})
		require.NoError(t, err)

		err = col.View(context.Background(), func(records map[string]counterRecord) error {
			assert.Empty(t, records)

			return nil
		})
		require.NoError(t, err)
	})
}

func TestCollection_ConcurrentUpdates(t *testing.T) {
	// Two concurrent load-mutate-save cycles against the same set must not
	// clobber each other, even when they touch different keys: Save
	// overwrites the whole set.
	col := store.NewCollection[counterRecord](store.NewMemoryStore(), "counters", zap.NewNop())

	const workers = 50

	var wg sync.WaitGroup

	for i := range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			err := col.Update(context.Background(), func(records map[string]counterRecord) error {
				record := records["shared"]
				record.Value++
				records["shared"] = record

				if i%2 == 0 {
					records["even"] = counterRecord{Value: 1}
				}

				return nil
			})
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	err := col.View(context.Background(), func(records map[string]counterRecord) error {
		assert.Equal(t, workers, records["shared"].Value)
		assert.Equal(t, 1, records["even"].Value)

		return nil
	})
	require.NoError(t, err)
}
