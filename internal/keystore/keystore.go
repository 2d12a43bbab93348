// Package keystore caches named symmetric keys held by a hardware-backed
// keystore and hands out single-purpose AEAD ciphers bound to them.
//
// The backing keystore is injected as a Backend. Keys never leave the backend
// as raw bytes through this package: callers only receive a Cipher primed for
// one encryption or one decryption.
package keystore

import (
	"crypto/cipher"
	"errors"
)

const (
	// KeySize is the AES key length in bytes (AES-256).
	KeySize = 32
	// NonceSize is the GCM nonce length in bytes.
	NonceSize = 12
	// TagSize is the GCM authentication tag length in bytes.
	TagSize = 16
)

var (
	// ErrKeyGeneration is returned when the backend cannot create a key.
	ErrKeyGeneration = errors.New("key generation failed")
	// ErrUnknownLabel is returned when no key is cached under a label.
	ErrUnknownLabel = errors.New("unknown key label")
	// ErrInvalidKey is returned by backends for entries that are not usable keys.
	ErrInvalidKey = errors.New("invalid key material")
	// ErrCipherMode is returned when a cipher is used against its mode.
	ErrCipherMode = errors.New("cipher used in wrong mode")
	// ErrCipherUsed is returned when an encryption cipher is asked to seal twice.
	ErrCipherUsed = errors.New("cipher already used")
)

// Key is an opaque handle to a symmetric key living in a Backend.
type Key interface {
	NewAEAD() (cipher.AEAD, error)
}

// Backend is the hardware-backed keystore collaborator. It has process-wide
// lifetime and may be shared by several Stores.
type Backend interface {
	// Aliases lists every entry currently held, including ones that may
	// fail to load.
	Aliases() ([]string, error)
	// Load returns the key stored under alias.
	Load(alias string) (Key, error)
	// Create generates a key under alias. If one already exists it is
	// returned unchanged. Implementations serialize creation per alias.
	Create(alias string) (Key, error)
}
