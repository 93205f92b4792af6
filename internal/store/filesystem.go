package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"dose-go/internal/dose"
)

// FileSystemStore keeps one file per key:
//
//	<dir>/
//	  medications.json
//	  appointments.json
//	  ...
type FileSystemStore struct {
	dir string
}

var _ dose.Store = (*FileSystemStore)(nil)

// NewFileSystemStore creates a store rooted at dir, creating it if needed.
func NewFileSystemStore(dir string) (*FileSystemStore, error) {
	if err := ensureDir(dir); err != nil {
		return nil, err
	}
	return &FileSystemStore{dir: dir}, nil
}

func (s *FileSystemStore) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("invalid store key: %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

func (s *FileSystemStore) Get(key string) (string, bool, error) {
	p, err := s.path(key)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(data), true, nil
}

// Set writes the value using an atomic write (temp file + rename).
func (s *FileSystemStore) Set(key, value string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.WriteString(tmpFile, value); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, p); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Close is a no-op; every write is already durable.
func (s *FileSystemStore) Close() error {
	return nil
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	return nil
}
