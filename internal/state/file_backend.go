package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/localloop/localloop-backend/pkg/logger"
)

// FileBackend persists the snapshot as a pretty-printed JSON file. Writing
// the same in-memory snapshot twice produces byte-identical output, so
// replaying a persist is safe.
type FileBackend struct {
	path string
	logg *logger.Logger
}

// NewFileBackend prepares the data directory and returns the backend.
func NewFileBackend(path string, logg *logger.Logger) (*FileBackend, error) {
	if path == "" {
		return nil, fmt.Errorf("snapshot path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating snapshot dir: %w", err)
		}
	}
	return &FileBackend{path: path, logg: logg}, nil
}

// Load reads the snapshot file. A missing or undecodable file yields the
// default snapshot; the next persist overwrites the corrupt blob.
func (f *FileBackend) Load(ctx context.Context) (Snapshot, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSnapshot(), nil
		}
		return Snapshot{}, fmt.Errorf("reading snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		if f.logg != nil {
			f.logg.Warn(ctx, "snapshot file is corrupted, starting from default state")
		}
		return DefaultSnapshot(), nil
	}
	return snap, nil
}

// Persist writes the snapshot atomically via a temp file + rename.
func (f *FileBackend) Persist(ctx context.Context, snap Snapshot) error {
	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}
