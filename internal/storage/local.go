package storage

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

// LocalStore writes renders below a directory
type LocalStore struct {
	dir string
}

// NewLocalStore creates the directory if needed
func NewLocalStore(dir string) (*LocalStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{dir: abs}, nil
}

// Name returns the store name
func (s *LocalStore) Name() string {
	return "local"
}

// Put writes data to dir/key, creating intermediate directories
func (s *LocalStore) Put(ctx context.Context, key string, data []byte) (*Object, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", key, err)
	}

	// Write then rename so readers never see a partial file
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return nil, fmt.Errorf("failed to move %s into place: %w", key, err)
	}

	log.Printf("💾 Wrote %s (%s)", target, humanize.Bytes(uint64(len(data))))
	return &Object{Key: key, Location: "file://" + filepath.ToSlash(target), Size: len(data)}, nil
}
