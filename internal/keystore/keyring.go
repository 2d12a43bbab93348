package keystore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/99designs/keyring"
	"github.com/cenkalti/backoff/v4"
	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

// ServiceName is the keyring service all dataprotect keys live under.
const ServiceName = "dataprotect"

// KeyringBackend keeps key material in the OS keyring (macOS Keychain,
// Secret Service, KWallet, Windows Credential Manager or the keyring's
// encrypted-file backend).
type KeyringBackend struct {
	ring     keyring.Keyring
	lockPath string
}

// KeyringConfig selects and configures the keyring implementation.
type KeyringConfig struct {
	// Backends restricts which keyring implementations may be used. Empty
	// means every implementation available on this platform.
	Backends []keyring.BackendType
	// Dir holds the lock file and, for the file backend, the keyring itself.
	Dir string
	// Password unlocks the encrypted-file backend.
	Password keyring.PromptFunc
}

// NewKeyringBackend wraps an already opened keyring. Creation is serialized
// across processes through a lock file at lockPath.
func NewKeyringBackend(ring keyring.Keyring, lockPath string) *KeyringBackend {
	return &KeyringBackend{ring: ring, lockPath: lockPath}
}

// OpenKeyring opens the OS keyring, retrying transient failures such as a
// session bus that is still starting.
func OpenKeyring(cfg KeyringConfig, logger *zap.Logger) (*KeyringBackend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(cfg.Dir, 0700); err != nil {
		return nil, fmt.Errorf("create keystore directory: %w", err)
	}
	password := cfg.Password
	if password == nil {
		password = keyring.TerminalPrompt
	}
	kcfg := keyring.Config{
		ServiceName:                    ServiceName,
		AllowedBackends:                cfg.Backends,
		KeychainTrustApplication:       true,
		KeychainSynchronizable:         false,
		KeychainAccessibleWhenUnlocked: true,
		FileDir:                        filepath.Join(cfg.Dir, "keyring"),
		FilePasswordFunc:               password,
	}

	var ring keyring.Keyring
	open := func() error {
		r, err := keyring.Open(kcfg)
		if err != nil {
			if errors.Is(err, keyring.ErrNoAvailImpl) {
				return backoff.Permanent(err)
			}
			return err
		}
		ring = r
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxElapsedTime = 3 * time.Second
	notify := func(err error, next time.Duration) {
		logger.Debug("keyring open failed, retrying", zap.Error(err), zap.Duration("next", next))
	}
	if err := backoff.RetryNotify(open, b, notify); err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}

	return NewKeyringBackend(ring, filepath.Join(cfg.Dir, "keystore.lock")), nil
}

func (b *KeyringBackend) Aliases() ([]string, error) {
	keys, err := b.ring.Keys()
	if err != nil {
		return nil, fmt.Errorf("keyring list: %w", err)
	}
	return keys, nil
}

func (b *KeyringBackend) Load(alias string) (Key, error) {
	item, err := b.ring.Get(alias)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownLabel, alias)
		}
		return nil, fmt.Errorf("keyring get %q: %w", alias, err)
	}
	return newSoftwareKey(item.Data)
}

// Create generates a key under alias unless another process already did.
func (b *KeyringBackend) Create(alias string) (Key, error) {
	unlock, err := b.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	key, err := b.Load(alias)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, ErrUnknownLabel) {
		return nil, err
	}

	material, err := generateMaterial()
	if err != nil {
		return nil, err
	}
	item := keyring.Item{
		Key:         alias,
		Data:        material,
		Label:       fmt.Sprintf("%s: %s", ServiceName, alias),
		Description: "AES-256-GCM secret store key",
	}
	if err := b.ring.Set(item); err != nil {
		return nil, fmt.Errorf("keyring set %q: %w", alias, err)
	}
	return newSoftwareKey(material)
}

func (b *KeyringBackend) lock() (func(), error) {
	if b.lockPath == "" {
		return func() {}, nil
	}
	lock := flock.New(b.lockPath)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("acquire keystore lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("acquire keystore lock: timeout")
	}
	return func() { _ = lock.Unlock() }, nil
}
