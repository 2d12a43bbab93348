// Package prefs is the durable string-keyed store secrets are persisted in.
// Values are opaque strings; the store offers last-write-wins per key and no
// transactions.
package prefs

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Store is the interface for durable key/value storage
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	// List returns all keys in sorted order.
	List() ([]string, error)
}

// ErrNotFound is returned when a key is not found in the store
var ErrNotFound = errors.New("key not found")

// Store kinds accepted by Open.
const (
	KindFile   = "file"
	KindSQLite = "sqlite"
	KindMemory = "memory"
)

// Open creates a Store of the given kind with its data under dir.
func Open(kind, dir string) (Store, error) {
	switch kind {
	case KindFile, "":
		return NewFileStore(filepath.Join(dir, "prefs.json"))
	case KindSQLite:
		return NewSQLiteStore(filepath.Join(dir, "prefs.db"))
	case KindMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store kind: %s", kind)
	}
}
