package keystore

import (
	"fmt"
	"sort"
	"sync"
)

// MemoryBackend is an in-process Backend for tests and throwaway sessions.
// Keys do not survive the process.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string][]byte
	creates int
}

// NewMemoryBackend creates an empty in-memory keystore.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string][]byte)}
}

// Put stores raw bytes under alias, whether or not they form a valid key.
// Tests use it to plant corrupted or foreign entries.
func (b *MemoryBackend) Put(alias string, raw []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[alias] = append([]byte(nil), raw...)
}

// Creates returns how many keys the backend actually generated.
func (b *MemoryBackend) Creates() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.creates
}

func (b *MemoryBackend) Aliases() ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	aliases := make([]string, 0, len(b.entries))
	for a := range b.entries {
		aliases = append(aliases, a)
	}
	sort.Strings(aliases)
	return aliases, nil
}

func (b *MemoryBackend) Load(alias string) (Key, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	raw, ok := b.entries[alias]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLabel, alias)
	}
	return newSoftwareKey(raw)
}

func (b *MemoryBackend) Create(alias string) (Key, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if raw, ok := b.entries[alias]; ok {
		return newSoftwareKey(raw)
	}
	material, err := generateMaterial()
	if err != nil {
		return nil, err
	}
	b.entries[alias] = material
	b.creates++
	return newSoftwareKey(material)
}
