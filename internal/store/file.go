package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ratrace/internal/game"
)

// File keeps the snapshot in a single JSON file. Writes go to a temp file
// in the same directory and are renamed over the old save.
type File struct {
	path string
}

func NewFile(path string) (*File, error) {
	if path == "" {
		p, err := DefaultSavePath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create save dir: %w", err)
	}
	return &File{path: path}, nil
}

func DefaultSavePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ratrace", "save.json"), nil
}

func (f *File) Path() string { return f.path }

func (f *File) Load(context.Context) ([]byte, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, game.ErrNoSnapshot
		}
		return nil, fmt.Errorf("read save: %w", err)
	}
	if len(raw) == 0 {
		return nil, game.ErrNoSnapshot
	}
	return raw, nil
}

func (f *File) Save(_ context.Context, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".save-*.json")
	if err != nil {
		return fmt.Errorf("create temp save: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write save: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close save: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace save: %w", err)
	}
	return nil
}
