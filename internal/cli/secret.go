package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/semmy-space/dataprotect/internal/config"
	"github.com/semmy-space/dataprotect/internal/output"
)

// DefaultSeedNames are seeded when secret seed is given no names
var DefaultSeedNames = []string{"password", "pin", "secret"}

// SecretSetCmd implements the secret set command
type SecretSetCmd struct {
	Name  string `arg:"" help:"Secret name" predictor:"secret"`
	Value *string `arg:"" optional:"" help:"Secret value (prompted, or read from stdin, when omitted)"`
}

// Run seals and stores the value. Writing never requires authentication.
func (cmd *SecretSetCmd) Run(cfg *config.Config, fp *FormatterProvider, g *Globals, logger *zap.Logger) error {
	var value []byte
	if cmd.Value != nil {
		value = []byte(*cmd.Value)
	} else {
		var err error
		value, err = readSecretInput(fmt.Sprintf("Value for %s: ", cmd.Name), g)
		if err != nil {
			return err
		}
	}

	s, err := openSession(cfg, g, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Vault.SetSecret(cmd.Name, value); err != nil {
		return err
	}
	fp.Formatter.PrintSuccess(fmt.Sprintf("Stored %s", cmd.Name))
	return nil
}

// SecretGetCmd implements the secret get command
type SecretGetCmd struct {
	Name string `arg:"" help:"Secret name" predictor:"secret"`
}

type secretView struct {
	Name    string `json:"name"`
	Value   string `json:"value"`
	Attempt string `json:"attempt"`
}

// Run authenticates, unlocks the store and prints the secret
func (cmd *SecretGetCmd) Run(ctx context.Context, cfg *config.Config, fp *FormatterProvider, g *Globals, logger *zap.Logger) error {
	s, err := openSession(cfg, g, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	actx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()
	o, err := s.Gate.Unlock(actx, s.Vault)
	if err != nil {
		return err
	}

	value, err := s.Vault.GetSecret(cmd.Name)
	if err != nil {
		return err
	}

	if g.ResolvedOutput(cfg) == "json" {
		return fp.Formatter.Print(secretView{Name: cmd.Name, Value: string(value), Attempt: o.Attempt})
	}
	return fp.Formatter.Print(string(value))
}

// SecretListCmd implements the secret list command
type SecretListCmd struct{}

type secretItem struct {
	Name string `json:"name"`
}

// Run lists secret names. Names are readable while locked.
func (cmd *SecretListCmd) Run(cfg *config.Config, fp *FormatterProvider, g *Globals, logger *zap.Logger) error {
	s, err := openSession(cfg, g, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	names, err := s.Vault.Names()
	if err != nil {
		return err
	}
	items := make([]secretItem, len(names))
	for i, n := range names {
		items[i] = secretItem{Name: n}
	}
	return fp.Formatter.PrintList(items, []output.Column{{Name: "NAME", Key: "Name"}})
}

// SecretRmCmd implements the secret rm command
type SecretRmCmd struct {
	Name string `arg:"" help:"Secret name" predictor:"secret"`
}

// Run removes the secret without authentication
func (cmd *SecretRmCmd) Run(cfg *config.Config, fp *FormatterProvider, g *Globals, logger *zap.Logger) error {
	s, err := openSession(cfg, g, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Vault.RemoveSecret(cmd.Name); err != nil {
		return err
	}
	fp.Formatter.PrintSuccess(fmt.Sprintf("Removed %s", cmd.Name))
	return nil
}

// SecretSeedCmd implements the secret seed command
type SecretSeedCmd struct {
	Names    []string `arg:"" optional:"" help:"Names to seed (default: password, pin, secret)"`
	Generate bool     `help:"Generate random values instead of prompting" short:"g"`
}

// Run stores a value for each name that has none yet
func (cmd *SecretSeedCmd) Run(cfg *config.Config, fp *FormatterProvider, g *Globals, logger *zap.Logger) error {
	names := cmd.Names
	if len(names) == 0 {
		names = DefaultSeedNames
	}
	if !cmd.Generate && !g.interactive() {
		return output.NewCLIError(output.ExitUsage, "seeding without --generate needs an interactive terminal")
	}

	s, err := openSession(cfg, g, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := s.Vault.Seed(names, func(name string) ([]byte, error) {
		if cmd.Generate {
			return []byte(uuid.NewString()), nil
		}
		return readSecretInput(fmt.Sprintf("Value for %s: ", name), g)
	})
	if err != nil {
		return err
	}
	fp.Formatter.PrintSuccess(fmt.Sprintf("Seeded %d of %d secrets", n, len(names)))
	return nil
}
