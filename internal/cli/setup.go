package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/semmy-space/dataprotect/internal/auth"
	"github.com/semmy-space/dataprotect/internal/config"
	"github.com/semmy-space/dataprotect/internal/keystore"
	"github.com/semmy-space/dataprotect/internal/output"
)

// SetupCmd implements the interactive setup wizard
type SetupCmd struct{}

// Run executes the setup wizard
func (cmd *SetupCmd) Run(cfg *config.Config, fp *FormatterProvider, g *Globals, logger *zap.Logger) error {
	if !g.interactive() {
		return output.NewCLIError(output.ExitUsage, "setup needs an interactive terminal").
			WithHint("Use: dataprotect config set <key> <value>")
	}
	reader := bufio.NewReader(os.Stdin)

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  dataprotect setup\n")
	fmt.Fprintf(os.Stderr, "  =================\n\n")

	// Step 1: keystore backend
	suggested := "keyring"
	if keystore.IsWSL() || keystore.IsHeadless() {
		suggested = "file"
	}
	fmt.Fprintf(os.Stderr, "  Step 1: Where should keys live?\n\n")
	fmt.Fprintf(os.Stderr, "    keyring  OS keychain / Secret Service / KWallet\n")
	fmt.Fprintf(os.Stderr, "    file     password-encrypted key file\n\n")
	backend, err := choose(reader, "backend", "  Keystore", orValue(cfg.Backend, suggested))
	if err != nil {
		return err
	}

	// Step 2: secret store
	fmt.Fprintf(os.Stderr, "\n  Step 2: Where should sealed secrets be stored?\n\n")
	fmt.Fprintf(os.Stderr, "    file    JSON file\n")
	fmt.Fprintf(os.Stderr, "    sqlite  SQLite database\n\n")
	store, err := choose(reader, "store", "  Store", cfg.StoreKind())
	if err != nil {
		return err
	}

	// Step 3: authentication
	sensor := "none"
	if auth.FprintdInstalled() {
		sensor = "fprintd"
		fmt.Fprintf(os.Stderr, "\n  Step 3: fprintd found; fingerprints will unlock the store\n")
	} else {
		fmt.Fprintf(os.Stderr, "\n  Step 3: no fingerprint reader support found (install fprintd to use one)\n")
	}

	cfg.Backend = backend
	cfg.Store = store
	cfg.Sensor = sensor
	if err := cfg.Save(); err != nil {
		return output.Wrap(output.ExitConfigError, err)
	}

	s, err := openSession(cfg, g, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Keys.Generate(cfg.BindingLabel()); err != nil {
		return err
	}

	if !s.Credential.IsDeviceSecure() {
		answer := prompt(reader, "\n  Set a device PIN as fallback? [Y/n]: ")
		if strings.ToLower(answer) != "n" {
			pin, err := readSecretInput("  Device PIN: ", g)
			if err != nil {
				return err
			}
			if err := s.Credential.SetPIN(string(pin)); err != nil {
				return output.Wrap(output.ExitUsage, err)
			}
		}
	}

	fmt.Fprintf(os.Stderr, "\n  Setup complete!\n\n")
	fmt.Fprintf(os.Stderr, "    Keystore:   %s\n", backend)
	fmt.Fprintf(os.Stderr, "    Store:      %s\n", store)
	fmt.Fprintf(os.Stderr, "    Unlock:     %s\n", s.Coordinator.Strategy())
	fmt.Fprintf(os.Stderr, "    Device PIN: %v\n", s.Credential.IsDeviceSecure())
	fmt.Fprintf(os.Stderr, "    Config:     %s\n\n", cfg.Path())
	fmt.Fprintf(os.Stderr, "  Try it out:\n\n")
	fmt.Fprintf(os.Stderr, "    dataprotect secret set api-token\n")
	fmt.Fprintf(os.Stderr, "    dataprotect get api-token\n\n")

	return nil
}

// choose prompts for a value of key, validated against the config choices
func choose(reader *bufio.Reader, key, label, current string) (string, error) {
	value := prompt(reader, fmt.Sprintf("%s [%s]: ", label, current))
	if value == "" {
		value = current
	}
	if err := config.Validate(key, value); err != nil {
		return "", output.Wrap(output.ExitUsage, err)
	}
	return value, nil
}

// prompt prints a prompt and reads a line of input
func prompt(reader *bufio.Reader, text string) string {
	fmt.Fprint(os.Stderr, text)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func orValue(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
