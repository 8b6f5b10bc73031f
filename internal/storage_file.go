package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// StateKey is the fixed key the state is kept under in key/value backends.
const StateKey = "subscription_tracker_state"

var validKey = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// FileBackend is a flat key/value string store: one file per key in a directory.
type FileBackend struct {
	dir string
	key string
}

func NewFileBackend(dir, key string) (*FileBackend, error) {
	if key == "" {
		key = StateKey
	}
	if !validKey.MatchString(key) {
		return nil, fmt.Errorf("invalid key %q", key)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return &FileBackend{dir: dir, key: key}, nil
}

func (b *FileBackend) Name() string { return "file" }

func (b *FileBackend) path() string {
	return filepath.Join(b.dir, b.key+".json")
}

func (b *FileBackend) Read(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(b.path())
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", b.path(), err)
	}
	if len(data) == 0 {
		return nil, ErrNoRecord
	}
	return data, nil
}

// Write replaces the value atomically via a temp file and rename.
func (b *FileBackend) Write(_ context.Context, data []byte) error {
	tmp, err := os.CreateTemp(b.dir, b.key+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), b.path()); err != nil {
		return fmt.Errorf("replacing %s: %w", b.path(), err)
	}
	return nil
}

func (b *FileBackend) Clear(_ context.Context) error {
	if err := os.Remove(b.path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", b.path(), err)
	}
	return nil
}

func (b *FileBackend) Close() error { return nil }
