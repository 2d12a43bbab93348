package cli

import (
	"strings"

	"go.uber.org/zap"

	"github.com/semmy-space/dataprotect/internal/config"
)

// LockCmd implements the lock command
type LockCmd struct{}

// Run locks the store. Each invocation opens a fresh, locked store, so this
// only confirms the state; stored ciphertext is untouched.
func (cmd *LockCmd) Run(cfg *config.Config, fp *FormatterProvider, g *Globals, logger *zap.Logger) error {
	s, err := openSession(cfg, g, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	s.Vault.Lock()
	fp.Formatter.PrintSuccess("Secret store " + s.Vault.State().String() + "; every command starts locked")
	return nil
}

// StatusCmd implements the status command
type StatusCmd struct{}

type statusView struct {
	Keystore         string `json:"keystore"`
	Store            string `json:"store"`
	DataDir          string `json:"data_dir"`
	Keys             string `json:"keys"`
	State            string `json:"state"`
	Strategy         string `json:"strategy"`
	DeviceCredential bool   `json:"device_credential"`
	Fallback         string `json:"fallback"`
}

// Run reports how the session is wired
func (cmd *StatusCmd) Run(cfg *config.Config, fp *FormatterProvider, g *Globals, logger *zap.Logger) error {
	s, err := openSession(cfg, g, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	return fp.Formatter.Print(statusView{
		Keystore:         s.Backend,
		Store:            s.StoreKind,
		DataDir:          g.ResolvedDataDir(),
		Keys:             strings.Join(s.Keys.Labels(), ","),
		State:            s.Vault.State().String(),
		Strategy:         s.Coordinator.Strategy(),
		DeviceCredential: s.Credential.IsDeviceSecure(),
		Fallback:         string(s.Policy),
	})
}
