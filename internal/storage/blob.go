// Package storage provides the blob-store collaborator used for avatar
// uploads. The core only sees the interface; the reference string it returns
// is what lands in User.Avatar.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// BlobStore accepts a file and returns a stored reference string.
type BlobStore interface {
	Save(filename string, r io.Reader) (string, error)
}

// DiskBlobStore stores blobs on the local filesystem.
type DiskBlobStore struct {
	dir string
}

// NewDiskBlobStore creates a DiskBlobStore rooted at dir.
func NewDiskBlobStore(dir string) *DiskBlobStore {
	return &DiskBlobStore{dir: dir}
}

// Save writes the blob under the store's directory and returns its relative
// reference.
func (s *DiskBlobStore) Save(filename string, r io.Reader) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create blob directory: %w", err)
	}

	path := filepath.Join(s.dir, filepath.Base(filename))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create blob file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}

	return path, nil
}
