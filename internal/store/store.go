package store

import (
	"context"
	"encoding/json"
)

// Set names for the two record sets this service persists.
const (
	SetUsers = "users"
	SetJokes = "jokes"
)

// Store persists named record sets as full mappings of id -> raw record.
//
// Load is fail-soft: a missing or corrupt backing resource yields an empty
// mapping, never an error the caller has to handle. Save overwrites the whole
// set atomically with respect to concurrent readers; callers must therefore
// always write an up-to-date superset, which Collection enforces by holding
// its lock across the full load-mutate-save cycle.
type Store interface {
	Load(ctx context.Context, set string) (map[string]json.RawMessage, error)
	Save(ctx context.Context, set string, records map[string]json.RawMessage) error
}
