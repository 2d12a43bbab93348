package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"
	"golang.org/x/term"
	"golang.org/x/time/rate"

	"github.com/semmy-space/dataprotect/internal/prefs"
)

// CredentialKey is the prefs key holding the device credential hash.
const CredentialKey = "auth:credential"

// MinPINLength is the shortest accepted device PIN.
const MinPINLength = 4

var (
	ErrPINTooShort       = fmt.Errorf("PIN must be at least %d characters", MinPINLength)
	ErrCorruptCredential = errors.New("stored device credential is corrupt")
)

// HashParams are the argon2id parameters for the device credential.
type HashParams struct {
	Time    uint32 `json:"t"`
	Memory  uint32 `json:"m"`
	Threads uint8  `json:"p"`
	KeyLen  uint32 `json:"l"`
}

// DefaultHashParams follow the argon2id recommendation for interactive use.
var DefaultHashParams = HashParams{Time: 1, Memory: 64 * 1024, Threads: 4, KeyLen: 32}

// MaxHashMemory caps the argon2 memory cost (KiB) accepted from a stored record.
const MaxHashMemory = 1024 * 1024

// valid reports whether p can be handed to argon2 for a hash of keyLen bytes.
func (p HashParams) valid(keyLen int) bool {
	return p.Time >= 1 && p.Threads >= 1 && p.Memory <= MaxHashMemory && int(p.KeyLen) == keyLen
}

type credentialRecord struct {
	Params HashParams `json:"params"`
	Salt   string     `json:"salt"`
	Hash   string     `json:"hash"`
}

// TerminalCredential is a device credential checked against an argon2id
// hash kept in the prefs store. Confirmation reads the PIN from the
// terminal without echo.
type TerminalCredential struct {
	store   prefs.Store
	params  HashParams
	tries   int
	limiter *rate.Limiter
	out     io.Writer
	read    func() ([]byte, error)
	log     *zap.Logger
}

// NewTerminalCredential returns a credential bound to store.
func NewTerminalCredential(store prefs.Store, out io.Writer, logger *zap.Logger) *TerminalCredential {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TerminalCredential{
		store:   store,
		params:  DefaultHashParams,
		tries:   3,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		out:     out,
		read: func() ([]byte, error) {
			return term.ReadPassword(int(os.Stdin.Fd()))
		},
		log: logger.Named("credential"),
	}
}

// IsDeviceSecure reports whether a PIN has been set.
func (c *TerminalCredential) IsDeviceSecure() bool {
	_, err := c.store.Get(CredentialKey)
	return err == nil
}

// SetPIN replaces the device PIN.
func (c *TerminalCredential) SetPIN(pin string) error {
	if len(pin) < MinPINLength {
		return ErrPINTooShort
	}
	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}
	rec := credentialRecord{
		Params: c.params,
		Salt:   base64.RawStdEncoding.EncodeToString(salt),
		Hash:   base64.RawStdEncoding.EncodeToString(c.hash([]byte(pin), salt, c.params)),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return c.store.Set(CredentialKey, string(data))
}

// Clear removes the device PIN.
func (c *TerminalCredential) Clear() error {
	return c.store.Delete(CredentialKey)
}

// Verify checks pin against the stored hash.
func (c *TerminalCredential) Verify(pin []byte) (bool, error) {
	raw, err := c.store.Get(CredentialKey)
	if err != nil {
		return false, err
	}
	var rec credentialRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return false, ErrCorruptCredential
	}
	salt, err := base64.RawStdEncoding.DecodeString(rec.Salt)
	if err != nil {
		return false, ErrCorruptCredential
	}
	want, err := base64.RawStdEncoding.DecodeString(rec.Hash)
	if err != nil || len(want) == 0 {
		return false, ErrCorruptCredential
	}
	if !rec.Params.valid(len(want)) {
		return false, fmt.Errorf("%w: hash parameters %+v", ErrCorruptCredential, rec.Params)
	}
	got := c.hash(pin, salt, rec.Params)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func (c *TerminalCredential) hash(pin, salt []byte, p HashParams) []byte {
	return argon2.IDKey(pin, salt, p.Time, p.Memory, p.Threads, p.KeyLen)
}

// IssueConfirmation prompts for the PIN up to three times, pacing retries.
func (c *TerminalCredential) IssueConfirmation(ctx context.Context, done func(bool)) {
	go func() {
		done(c.confirm(ctx))
	}()
}

func (c *TerminalCredential) confirm(ctx context.Context) bool {
	for try := 1; try <= c.tries; try++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return false
		}
		fmt.Fprint(c.out, "Device PIN: ")
		pin, err := c.read()
		fmt.Fprintln(c.out)
		if err != nil {
			c.log.Debug("read PIN failed", zap.Error(err))
			return false
		}
		if ctx.Err() != nil {
			return false
		}
		ok, err := c.Verify(pin)
		if err != nil {
			c.log.Warn("verify PIN failed", zap.Error(err))
			return false
		}
		if ok {
			return true
		}
		c.log.Info("incorrect PIN", zap.Int("try", try))
		fmt.Fprintln(c.out, "Incorrect PIN.")
	}
	return false
}
