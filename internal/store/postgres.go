package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresStore is a PostgreSQL implementation of Store. Each record set is
// one row with a jsonb payload; the upsert replaces the payload in a single
// statement, keeping Save atomic for concurrent readers.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, logger: logger}
}

func (p *PostgresStore) Load(ctx context.Context, set string) (map[string]json.RawMessage, error) {
	query := `
		SELECT payload
		FROM record_sets
		WHERE set_name = $1
	`

	var data []byte

	err := p.pool.QueryRow(ctx, query, set).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return map[string]json.RawMessage{}, nil
		}

		return nil, fmt.Errorf("select set %q: %w", set, err)
	}

	var records map[string]json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		p.logger.Warn("stored set corrupt, starting empty",
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

func (p *PostgresStore) Save(ctx context.Context, set string, records map[string]json.RawMessage) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode set %q: %w", set, err)
	}

	query := `
		INSERT INTO record_sets (set_name, payload)
		VALUES ($1, $2)
		ON CONFLICT (set_name) DO UPDATE SET payload = EXCLUDED.payload
	`

	if _, err := p.pool.Exec(ctx, query, set, data); err != nil {
		return fmt.Errorf("upsert set %q: %w", set, err)
	}

	return nil
}

// Compile-time check.
var _ Store = (*PostgresStore)(nil)
