package keystore

import (
	"crypto/cipher"
	"fmt"
	"sync"
)

// Mode is the single purpose a Cipher was created for.
type Mode int

const (
	ModeEncrypt Mode = iota + 1
	ModeDecrypt
)

func (m Mode) String() string {
	switch m {
	case ModeEncrypt:
		return "encrypt"
	case ModeDecrypt:
		return "decrypt"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Cipher is a cipher context primed for one operation under one key.
//
// An encryption Cipher carries a fresh random nonce and seals at most once,
// so the nonce it exposes is never reused under the same key. A decryption
// Cipher carries the caller-supplied nonce and may open repeatedly.
type Cipher struct {
	label string
	mode  Mode
	aead  cipher.AEAD
	nonce []byte

	mu   sync.Mutex
	used bool
}

// Label returns the key label the cipher is bound to.
func (c *Cipher) Label() string { return c.label }

// Mode returns the cipher's purpose.
func (c *Cipher) Mode() Mode { return c.mode }

// Nonce returns a copy of the nonce used by the cipher.
func (c *Cipher) Nonce() []byte {
	n := make([]byte, len(c.nonce))
	copy(n, c.nonce)
	return n
}

// Used reports whether an encryption cipher has already sealed.
func (c *Cipher) Used() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.used
}

// Seal encrypts plaintext and returns ciphertext with the tag appended.
func (c *Cipher) Seal(plaintext []byte) ([]byte, error) {
	if c.mode != ModeEncrypt {
		return nil, fmt.Errorf("seal with %s cipher: %w", c.mode, ErrCipherMode)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.used {
		return nil, fmt.Errorf("seal under %q: %w", c.label, ErrCipherUsed)
	}
	c.used = true
	return c.aead.Seal(nil, c.nonce, plaintext, nil), nil
}

// Open authenticates and decrypts ciphertext (with appended tag).
func (c *Cipher) Open(ciphertext []byte) ([]byte, error) {
	if c.mode != ModeDecrypt {
		return nil, fmt.Errorf("open with %s cipher: %w", c.mode, ErrCipherMode)
	}
	return c.aead.Open(nil, c.nonce, ciphertext, nil)
}
