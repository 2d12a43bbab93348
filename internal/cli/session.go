package cli

import (
	"io"
	"os"
	"os/user"

	"go.uber.org/zap"

	"github.com/semmy-space/dataprotect/internal/auth"
	"github.com/semmy-space/dataprotect/internal/config"
	"github.com/semmy-space/dataprotect/internal/keystore"
	"github.com/semmy-space/dataprotect/internal/prefs"
	"github.com/semmy-space/dataprotect/internal/vault"
)

// Session wires the keystore, secret store and authentication gate for one
// command invocation. Every session starts with the store locked.
type Session struct {
	Keys        *keystore.Store
	Prefs       prefs.Store
	Vault       *vault.Store
	Coordinator *auth.Coordinator
	Credential  *auth.TerminalCredential
	Gate        *auth.Gate
	Backend     string
	StoreKind   string
	Policy      auth.FallbackPolicy
}

// openSession builds a Session from config, with global flags taking
// precedence
func openSession(cfg *config.Config, g *Globals, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dir := g.ResolvedDataDir()

	backendKind := g.Backend
	if backendKind == "" {
		backendKind = cfg.BackendKind()
	}
	storeKind := g.Store
	if storeKind == "" {
		storeKind = cfg.StoreKind()
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	backend, err := keystore.OpenSystem(backendKind, dir, logger)
	if err != nil {
		return nil, err
	}
	keys, err := keystore.New(backend, logger)
	if err != nil {
		return nil, err
	}
	kv, err := prefs.Open(storeKind, dir)
	if err != nil {
		return nil, err
	}

	s := &Session{Keys: keys, Prefs: kv, Backend: backendKind, StoreKind: storeKind}

	s.Vault, err = vault.New(keys, kv, cfg.SecretLabel(), logger)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.Policy, err = auth.ParseFallbackPolicy(cfg.FallbackPolicy())
	if err != nil {
		s.Close()
		return nil, err
	}

	sensor := cfg.SensorKind()
	if g.NoInput {
		sensor = "none"
		s.Policy = auth.FallbackNever
	}
	platform := buildPlatform(sensor, os.Stdin, os.Stderr, logger)

	s.Coordinator = auth.NewCoordinator(keys, platform,
		auth.WithLabel(cfg.BindingLabel()),
		auth.WithLogger(logger),
	)
	s.Credential = auth.NewTerminalCredential(kv, os.Stderr, logger)
	s.Gate = auth.NewGate(s.Coordinator, auth.NewFallback(s.Credential, logger), s.Policy, logger)

	return s, nil
}

// Close releases the secret store
func (s *Session) Close() error {
	if c, ok := s.Prefs.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// buildPlatform resolves the sensor setting to biometric facilities.
// "auto" uses fprintd when it is installed.
func buildPlatform(sensor string, in io.Reader, out io.Writer, logger *zap.Logger) auth.Platform {
	switch sensor {
	case "fprintd":
	case "auto":
		if !auth.FprintdInstalled() {
			return auth.Platform{}
		}
	default:
		return auth.Platform{}
	}
	return auth.Platform{
		Sensor: auth.NewFprintdSensor(currentUser(), logger),
		Dialog: auth.NewTerminalDialog(in, out),
	}
}

func currentUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return os.Getenv("USER")
}
