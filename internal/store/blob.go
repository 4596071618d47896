// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// BlobStore implements Blob on the local filesystem, one JSON file per
// paper id. Writes go through a temp file and rename so a crash never
// leaves a half-written payload behind.
type BlobStore struct {
	dir string
}

// OpenBlob creates the blob directory if needed.
func OpenBlob(dir string) (*BlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating blob directory: %w", err)
	}
	return &BlobStore{dir: dir}, nil
}

// path escapes the paper id so ids containing path separators, such as
// DOIs and old-style arXiv ids, map to a single flat filename.
func (s *BlobStore) path(paperID string) string {
	return filepath.Join(s.dir, url.PathEscape(paperID)+".json")
}

// Put overwrites the payload for paperID atomically.
func (s *BlobStore) Put(ctx context.Context, paperID string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if paperID == "" {
		return fmt.Errorf("empty paper id")
	}

	tmp, err := os.CreateTemp(s.dir, ".blob-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing blob: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, s.path(paperID)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Get returns the payload for paperID, or ErrNotFound.
func (s *BlobStore) Get(ctx context.Context, paperID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(paperID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading blob: %w", err)
	}
	return data, nil
}
