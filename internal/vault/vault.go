// Package vault keeps named secrets sealed in envelopes in a durable store
// and gates reads behind a lock that only a successful authentication
// outcome can open.
package vault

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/semmy-space/dataprotect/internal/auth"
	"github.com/semmy-space/dataprotect/internal/envelope"
	"github.com/semmy-space/dataprotect/internal/prefs"
)

// KeyPrefix namespaces secret entries in the durable store.
const KeyPrefix = "keychain:"

// DefaultLabel is the keystore label secrets are sealed under.
const DefaultLabel = "keychain"

var (
	// ErrLocked is returned by reads while the store is locked.
	ErrLocked = errors.New("secret store is locked")
	// ErrNotFound is returned when no secret exists under a name.
	ErrNotFound = errors.New("secret not found")
	// ErrNotAuthenticated is returned by Unlock for any outcome but Found.
	ErrNotAuthenticated = errors.New("unlock requires a successful authentication")
	// ErrInvalidName is returned for empty names.
	ErrInvalidName = errors.New("secret name must not be empty")
)

// LockState is the read gate of a Store.
type LockState int

const (
	Locked LockState = iota
	Unlocked
)

func (s LockState) String() string {
	switch s {
	case Locked:
		return "locked"
	case Unlocked:
		return "unlocked"
	default:
		return fmt.Sprintf("lockstate(%d)", int(s))
	}
}

// Keys is the keystore surface the vault uses.
type Keys interface {
	envelope.CipherProvider
	Generate(label string) error
}

// Store seals secrets under one keystore label. It starts Locked.
type Store struct {
	keys  Keys
	kv    prefs.Store
	label string
	log   *zap.Logger

	mu    sync.RWMutex
	state LockState
}

// New returns a locked store, generating the sealing key if it is missing.
func New(keys Keys, kv prefs.Store, label string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if label == "" {
		label = DefaultLabel
	}
	if err := keys.Generate(label); err != nil {
		return nil, err
	}
	return &Store{
		keys:  keys,
		kv:    kv,
		label: label,
		log:   logger.Named("vault").With(zap.String("label", label)),
		state: Locked,
	}, nil
}

// Label returns the keystore label secrets are sealed under.
func (s *Store) Label() string {
	return s.label
}

// State returns the current lock state.
func (s *Store) State() LockState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Locked reports whether reads are refused.
func (s *Store) Locked() bool {
	return s.State() == Locked
}

// Lock closes the read gate. It always succeeds.
func (s *Store) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Locked {
		s.log.Info("locked")
	}
	s.state = Locked
}

// Unlock opens the read gate. Only an outcome of kind Found is accepted;
// the store performs no authentication itself.
func (s *Store) Unlock(o auth.Outcome) error {
	if o.Kind != auth.Found {
		return fmt.Errorf("%w: %s", ErrNotAuthenticated, o)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Unlocked
	s.log.Info("unlocked", zap.String("attempt", o.Attempt))
	return nil
}

// SetSecret seals plaintext and persists it under name. Writes are
// permitted in either lock state.
func (s *Store) SetSecret(name string, plaintext []byte) error {
	if name == "" {
		return ErrInvalidName
	}
	env, err := envelope.Seal(s.keys, s.label, plaintext)
	if err != nil {
		return err
	}
	if err := s.kv.Set(KeyPrefix+name, envelope.EncodeString(env)); err != nil {
		return fmt.Errorf("persist secret %q: %w", name, err)
	}
	s.log.Debug("stored secret", zap.String("name", name))
	return nil
}

// GetSecret opens the secret stored under name. It fails with ErrLocked
// while locked. Envelope errors are returned unmodified.
func (s *Store) GetSecret(name string) ([]byte, error) {
	if s.Locked() {
		return nil, ErrLocked
	}
	raw, err := s.kv.Get(KeyPrefix + name)
	if errors.Is(err, prefs.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("load secret %q: %w", name, err)
	}
	env, err := envelope.DecodeString(raw)
	if err != nil {
		return nil, err
	}
	return envelope.Open(s.keys, s.label, env)
}

// RemoveSecret deletes the secret under name, in either lock state.
// Removing a missing secret is not an error.
func (s *Store) RemoveSecret(name string) error {
	if err := s.kv.Delete(KeyPrefix + name); err != nil {
		return fmt.Errorf("remove secret %q: %w", name, err)
	}
	s.log.Debug("removed secret", zap.String("name", name))
	return nil
}

// Names lists stored secret names, sorted. Names are not secret and are
// listed in either lock state.
func (s *Store) Names() ([]string, error) {
	return NamesFrom(s.kv)
}

// NamesFrom lists the secret names held in kv, sorted, without a keystore.
func NamesFrom(kv prefs.Store) ([]string, error) {
	keys, err := kv.List()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, k := range keys {
		if name, ok := strings.CutPrefix(k, KeyPrefix); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Seed stores valueFor(name) for every name that has no secret yet and
// returns how many were written.
func (s *Store) Seed(names []string, valueFor func(name string) ([]byte, error)) (int, error) {
	existing, err := s.Names()
	if err != nil {
		return 0, err
	}
	have := make(map[string]bool, len(existing))
	for _, n := range existing {
		have[n] = true
	}

	written := 0
	for _, name := range names {
		if have[name] {
			continue
		}
		v, err := valueFor(name)
		if err != nil {
			return written, fmt.Errorf("seed %q: %w", name, err)
		}
		if err := s.SetSecret(name, v); err != nil {
			return written, err
		}
		have[name] = true
		written++
	}
	if written > 0 {
		s.log.Info("seeded secrets", zap.Int("count", written))
	}
	return written, nil
}
