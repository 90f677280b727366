package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileStore keeps uploaded payload files under a single directory and
// hands out opaque paths for the registry to track.
type FileStore struct {
	dir string
}

func New(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes the stream to <dir>/<id>_<name> and returns the path.
// Directory components in the display name are stripped.
func (s *FileStore) Save(id, name string, r io.Reader) (string, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("%s_%s", id, filepath.Base(name)))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}

	return path, nil
}

// Remove deletes a stored file. A file that is already gone is not an
// error.
func (s *FileStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stored file: %w", err)
	}
	return nil
}

// Locator is the string encoded into a code for a stored file.
func (s *FileStore) Locator(path string) string {
	return "file://" + path
}
