package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/semmy-space/dataprotect/internal/auth"
	"github.com/semmy-space/dataprotect/internal/config"
	"github.com/semmy-space/dataprotect/internal/output"
)

// AuthCheckCmd implements the auth check command
type AuthCheckCmd struct{}

type outcomeView struct {
	Outcome  string `json:"outcome"`
	Code     string `json:"code,omitempty"`
	Attempt  string `json:"attempt"`
	Strategy string `json:"strategy"`
	Fallback string `json:"fallback"`
}

// Run runs one challenge, with fallback per policy, and reports the outcome.
// Anything but success exits non-zero.
func (cmd *AuthCheckCmd) Run(ctx context.Context, cfg *config.Config, fp *FormatterProvider, g *Globals, logger *zap.Logger) error {
	s, err := openSession(cfg, g, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	actx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()
	o, err := s.Gate.Authenticate(actx)
	if err != nil {
		return err
	}

	view := outcomeView{
		Outcome:  o.Kind.String(),
		Attempt:  o.Attempt,
		Strategy: s.Coordinator.Strategy(),
		Fallback: string(s.Policy),
	}
	if o.Code != 0 {
		view.Code = o.Code.String()
	}
	if err := fp.Formatter.Print(view); err != nil {
		return err
	}
	return o.Err()
}

// AuthCredentialSetCmd implements the auth credential set command
type AuthCredentialSetCmd struct{}

// Run prompts for a new device PIN twice and stores its hash
func (cmd *AuthCredentialSetCmd) Run(cfg *config.Config, fp *FormatterProvider, g *Globals, logger *zap.Logger) error {
	pin, err := readSecretInput("New device PIN: ", g)
	if err != nil {
		return err
	}
	if g.interactive() {
		confirm, err := readSecretInput("Repeat PIN: ", g)
		if err != nil {
			return err
		}
		if !bytes.Equal(pin, confirm) {
			return output.NewCLIError(output.ExitUsage, "PINs do not match")
		}
	}

	s, err := openSession(cfg, g, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Credential.SetPIN(string(pin)); err != nil {
		return output.Wrap(output.ExitUsage, err)
	}
	fp.Formatter.PrintSuccess("Device PIN set")
	if s.Policy == auth.FallbackNever {
		fmt.Fprintf(os.Stderr, "Note: fallback is disabled; enable it with: dataprotect config set fallback auto\n")
	}
	return nil
}

// AuthCredentialClearCmd implements the auth credential clear command
type AuthCredentialClearCmd struct{}

// Run removes the device PIN
func (cmd *AuthCredentialClearCmd) Run(cfg *config.Config, fp *FormatterProvider, g *Globals, logger *zap.Logger) error {
	s, err := openSession(cfg, g, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Credential.Clear(); err != nil {
		return err
	}
	fp.Formatter.PrintSuccess("Device PIN removed")
	return nil
}
