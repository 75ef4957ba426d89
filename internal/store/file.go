package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// FileStore persists each record set as one JSON file under a data directory.
type FileStore struct {
	dir    string
	logger *zap.Logger
}

// NewFileStore creates a file-backed store rooted at dir, creating the
// directory if needed.
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	return &FileStore{dir: dir, logger: logger}, nil
}

// Load reads the set's file. A missing or corrupt file yields an empty
// mapping: the service stays available with fresh state rather than crashing
// on a bad store.
func (f *FileStore) Load(_ context.Context, set string) (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(f.path(set))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			f.logger.Warn("store file unreadable, starting empty",
				zap.String("set", set),
				zap.Error(err),
			)
		}

		return map[string]json.RawMessage{}, nil
	}

	var records map[string]json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		f.logger.Warn("store file corrupt, starting empty",
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

// Save writes the full mapping to a temp file and renames it into place, so a
// concurrent Load never observes a partially written set.
func (f *FileStore) Save(_ context.Context, set string, records map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode set %q: %w", set, err)
	}

	tmp, err := os.CreateTemp(f.dir, set+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path(set)); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("replace set %q: %w", set, err)
	}

	return nil
}

func (f *FileStore) path(set string) string {
	return filepath.Join(f.dir, set+".json")
}

// Compile-time check.
var _ Store = (*FileStore)(nil)
