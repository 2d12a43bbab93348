package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

// softwareKey is key material a backend keeps in process memory after
// fetching it from its secure store.
type softwareKey struct {
	material []byte
}

func newSoftwareKey(material []byte) (*softwareKey, error) {
	if len(material) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKey, len(material), KeySize)
	}
	m := make([]byte, KeySize)
	copy(m, material)
	return &softwareKey{material: m}, nil
}

func (k *softwareKey) NewAEAD() (cipher.AEAD, error) {
	block, err := aes.NewCipher(k.material)
	if err != nil {
		return nil, fmt.Errorf("create aes block cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, NonceSize)
	if err != nil {
		return nil, fmt.Errorf("create gcm cipher: %w", err)
	}
	return gcm, nil
}

func generateMaterial() ([]byte, error) {
	material := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, material); err != nil {
		return nil, fmt.Errorf("read random key material: %w", err)
	}
	return material, nil
}

func generateNonce() ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return nonce, nil
}
