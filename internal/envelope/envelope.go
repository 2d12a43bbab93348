// Package envelope frames AEAD ciphertext in a versioned, self-describing
// byte layout:
//
//	byte   version          (currently 1)
//	[12]   nonce
//	[...]  ciphertext||tag
//
// The version byte is checked before any other field is interpreted. At rest
// an envelope is stored as unpadded URL-safe base64 text.
package envelope

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/semmy-space/dataprotect/internal/keystore"
)

// Version1 is the only envelope version this package reads or writes.
const Version1 byte = 0x01

// HeaderSize is the length of version plus nonce.
const HeaderSize = 1 + keystore.NonceSize

var (
	// ErrMalformedEnvelope is returned for input that cannot be an envelope.
	ErrMalformedEnvelope = errors.New("malformed envelope")
	// ErrUnsupportedVersion is returned for any version byte other than Version1.
	ErrUnsupportedVersion = errors.New("unsupported envelope version")
	// ErrTagMismatch is returned when authentication of the ciphertext fails.
	ErrTagMismatch = errors.New("authentication tag mismatch")
)

// CipherProvider hands out ciphers bound to labelled keys.
type CipherProvider interface {
	EncryptCipher(label string) (*keystore.Cipher, error)
	DecryptCipher(label string, nonce []byte) (*keystore.Cipher, error)
}

var encoding = base64.RawURLEncoding

// Encode concatenates version, nonce and ciphertext.
func Encode(version byte, nonce, ciphertext []byte) []byte {
	out := make([]byte, 0, 1+len(nonce)+len(ciphertext))
	out = append(out, version)
	out = append(out, nonce...)
	return append(out, ciphertext...)
}

// Decode splits an envelope into its fields. The returned slices alias b.
func Decode(b []byte) (version byte, nonce, ciphertext []byte, err error) {
	if len(b) == 0 {
		return 0, nil, nil, fmt.Errorf("%w: empty input", ErrMalformedEnvelope)
	}
	if b[0] != Version1 {
		return 0, nil, nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, b[0])
	}
	if len(b) < HeaderSize {
		return 0, nil, nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrMalformedEnvelope, len(b), HeaderSize)
	}
	return b[0], b[1:HeaderSize], b[HeaderSize:], nil
}

// Seal encrypts plaintext under label and returns a version 1 envelope.
func Seal(p CipherProvider, label string, plaintext []byte) ([]byte, error) {
	c, err := p.EncryptCipher(label)
	if err != nil {
		return nil, err
	}
	ct, err := c.Seal(plaintext)
	if err != nil {
		return nil, fmt.Errorf("seal under %q: %w", label, err)
	}
	return Encode(Version1, c.Nonce(), ct), nil
}

// Open decodes env and returns its authenticated plaintext.
func Open(p CipherProvider, label string, env []byte) ([]byte, error) {
	_, nonce, ct, err := Decode(env)
	if err != nil {
		return nil, err
	}
	if len(ct) < keystore.TagSize {
		return nil, fmt.Errorf("%w: ciphertext shorter than tag", ErrMalformedEnvelope)
	}
	c, err := p.DecryptCipher(label, nonce)
	if err != nil {
		return nil, err
	}
	pt, err := c.Open(ct)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTagMismatch, err)
	}
	return pt, nil
}

// EncodeString returns the at-rest text form of an envelope.
func EncodeString(env []byte) string {
	return encoding.EncodeToString(env)
}

// DecodeString parses the at-rest text form of an envelope.
func DecodeString(s string) ([]byte, error) {
	b, err := encoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	return b, nil
}
