package prefs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
)

// FileStore implements Store as a JSON object in a single file. Every
// operation holds an exclusive file lock, so concurrent processes see
// last-write-wins per key rather than lost updates.
type FileStore struct {
	path     string
	lockPath string
}

// NewFileStore creates a file-backed store at path.
func NewFileStore(path string) (*FileStore, error) {
	// Create parent directory with 0700 permissions
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	return &FileStore{
		path:     path,
		lockPath: path + ".lock",
	}, nil
}

// Path returns the location of the store file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) withLock(fn func() error) error {
	lock := flock.New(s.lockPath)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire lock: timeout")
	}
	defer lock.Unlock()

	return fn()
}

// read parses the store file. Returns an empty map if the file doesn't exist.
func (s *FileStore) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	if len(data) == 0 {
		return make(map[string]string), nil
	}

	values := make(map[string]string)
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse store file: %w", err)
	}
	return values, nil
}

// write replaces the store file atomically.
func (s *FileStore) write(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}

func (s *FileStore) Get(key string) (string, error) {
	var (
		value string
		found bool
	)
	err := s.withLock(func() error {
		values, err := s.read()
		if err != nil {
			return err
		}
		value, found = values[key]
		return nil
	})
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *FileStore) Set(key, value string) error {
	return s.withLock(func() error {
		values, err := s.read()
		if err != nil {
			return err
		}
		values[key] = value
		return s.write(values)
	})
}

func (s *FileStore) Delete(key string) error {
	return s.withLock(func() error {
		values, err := s.read()
		if err != nil {
			return err
		}
		if _, ok := values[key]; !ok {
			return nil
		}
		delete(values, key)
		return s.write(values)
	})
}

func (s *FileStore) List() ([]string, error) {
	var keys []string
	err := s.withLock(func() error {
		values, err := s.read()
		if err != nil {
			return err
		}
		keys = make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}
