package keystore

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Store caches keys from a Backend by label. It is safe for concurrent use.
type Store struct {
	backend Backend
	log     *zap.Logger

	mu    sync.RWMutex
	cache map[string]Key
}

// New creates a Store over backend and loads every key the backend already
// holds. Entries that cannot be loaded are logged and skipped.
func New(backend Backend, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		backend: backend,
		log:     logger.Named("keystore"),
		cache:   make(map[string]Key),
	}

	aliases, err := backend.Aliases()
	if err != nil {
		return nil, fmt.Errorf("enumerate keystore aliases: %w", err)
	}
	for _, alias := range aliases {
		key, err := backend.Load(alias)
		if err != nil {
			s.log.Debug("skipping keystore entry", zap.String("alias", alias), zap.Error(err))
			continue
		}
		s.cache[alias] = key
		s.log.Info("loaded keystore entry", zap.String("alias", alias))
	}
	return s, nil
}

// Available reports whether a key is cached under label.
func (s *Store) Available(label string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.cache[label]
	return ok
}

// Labels returns the cached labels in sorted order.
func (s *Store) Labels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	labels := make([]string, 0, len(s.cache))
	for l := range s.cache {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// Generate ensures a key exists under label. It is a no-op when the label is
// already cached.
func (s *Store) Generate(label string) error {
	if label == "" {
		return fmt.Errorf("%w: empty label", ErrKeyGeneration)
	}
	if s.Available(label) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cache[label]; ok {
		return nil
	}
	key, err := s.backend.Create(label)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrKeyGeneration, label, err)
	}
	s.cache[label] = key
	s.log.Info("generated key", zap.String("label", label))
	return nil
}

// EncryptCipher returns a cipher primed for one encryption under label with
// a freshly generated nonce.
func (s *Store) EncryptCipher(label string) (*Cipher, error) {
	key, err := s.lookup(label)
	if err != nil {
		return nil, err
	}
	aead, err := key.NewAEAD()
	if err != nil {
		return nil, fmt.Errorf("encrypt cipher for %q: %w", label, err)
	}
	nonce, err := generateNonce()
	if err != nil {
		return nil, err
	}
	return &Cipher{label: label, mode: ModeEncrypt, aead: aead, nonce: nonce}, nil
}

// DecryptCipher returns a cipher primed for decryption under label with the
// nonce used at encryption time.
func (s *Store) DecryptCipher(label string, nonce []byte) (*Cipher, error) {
	key, err := s.lookup(label)
	if err != nil {
		return nil, err
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("decrypt cipher for %q: nonce is %d bytes, want %d", label, len(nonce), NonceSize)
	}
	aead, err := key.NewAEAD()
	if err != nil {
		return nil, fmt.Errorf("decrypt cipher for %q: %w", label, err)
	}
	n := make([]byte, NonceSize)
	copy(n, nonce)
	return &Cipher{label: label, mode: ModeDecrypt, aead: aead, nonce: n}, nil
}

func (s *Store) lookup(label string) (Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.cache[label]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLabel, label)
	}
	return key, nil
}
