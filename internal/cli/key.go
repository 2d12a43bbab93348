package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/semmy-space/dataprotect/internal/config"
	"github.com/semmy-space/dataprotect/internal/output"
)

// KeyListCmd implements the key list command
type KeyListCmd struct{}

type keyItem struct {
	Label string `json:"label"`
	Role  string `json:"role"`
}

// Run lists cached keystore labels and what each is used for
func (cmd *KeyListCmd) Run(cfg *config.Config, fp *FormatterProvider, g *Globals, logger *zap.Logger) error {
	s, err := openSession(cfg, g, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	var items []keyItem
	for _, label := range s.Keys.Labels() {
		role := "-"
		switch label {
		case cfg.SecretLabel():
			role = "secrets"
		case cfg.BindingLabel():
			role = "auth binding"
		}
		items = append(items, keyItem{Label: label, Role: role})
	}

	return fp.Formatter.PrintList(items, []output.Column{
		{Name: "LABEL", Key: "Label"},
		{Name: "ROLE", Key: "Role"},
	})
}

// KeyGenerateCmd implements the key generate command
type KeyGenerateCmd struct {
	Label string `arg:"" help:"Keystore label"`
}

// Run creates the key if it does not exist
func (cmd *KeyGenerateCmd) Run(cfg *config.Config, fp *FormatterProvider, g *Globals, logger *zap.Logger) error {
	s, err := openSession(cfg, g, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	existed := s.Keys.Available(cmd.Label)
	if err := s.Keys.Generate(cmd.Label); err != nil {
		return err
	}
	if existed {
		fp.Formatter.PrintSuccess(fmt.Sprintf("Key %s already exists", cmd.Label))
		return nil
	}
	fp.Formatter.PrintSuccess(fmt.Sprintf("Generated key %s", cmd.Label))
	return nil
}
