package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/semmy-space/dataprotect/internal/config"
	"github.com/semmy-space/dataprotect/internal/output"
)

// ConfigGetCmd implements config get command
type ConfigGetCmd struct {
	Key string `arg:"" help:"Config key to get (e.g., backend, store)" predictor:"config_key"`
}

// Run executes the get command
func (cmd *ConfigGetCmd) Run(cfg *config.Config, fp *FormatterProvider) error {
	value, err := cfg.Get(cmd.Key)
	if err != nil {
		return unknownKey(cmd.Key, output.ExitNotFound)
	}

	fp.Formatter.Print(value)
	return nil
}

// ConfigSetCmd implements config set command
type ConfigSetCmd struct {
	Key   string `arg:"" help:"Config key to set" predictor:"config_key"`
	Value string `arg:"" help:"Value to set"`
}

// Run executes the set command
func (cmd *ConfigSetCmd) Run(cfg *config.Config, fp *FormatterProvider) error {
	if _, err := cfg.Get(cmd.Key); err != nil {
		return unknownKey(cmd.Key, output.ExitUsage)
	}
	if err := config.Validate(cmd.Key, cmd.Value); err != nil {
		return output.Wrap(output.ExitUsage, err)
	}

	if cmd.Key == "key_label" {
		fmt.Fprintf(os.Stderr, "Note: secrets sealed under the previous label stay readable only with that label.\n")
	}

	if err := cfg.Set(cmd.Key, cmd.Value); err != nil {
		return &output.CLIError{
			Message:  fmt.Sprintf("Failed to set config: %v", err),
			ExitCode: output.ExitConfigError,
		}
	}

	fmt.Fprintf(os.Stderr, "Set %s = %s\n", cmd.Key, cmd.Value)
	return nil
}

// ConfigUnsetCmd implements config unset command
type ConfigUnsetCmd struct {
	Key string `arg:"" help:"Config key to remove" predictor:"config_key"`
}

// Run executes the unset command
func (cmd *ConfigUnsetCmd) Run(cfg *config.Config, fp *FormatterProvider) error {
	if _, err := cfg.Get(cmd.Key); err != nil {
		return unknownKey(cmd.Key, output.ExitUsage)
	}

	if err := cfg.Unset(cmd.Key); err != nil {
		return &output.CLIError{
			Message:  fmt.Sprintf("Failed to unset config: %v", err),
			ExitCode: output.ExitConfigError,
		}
	}

	fmt.Fprintf(os.Stderr, "Unset %s\n", cmd.Key)
	return nil
}

// ConfigListConfigCmd implements config list command
type ConfigListConfigCmd struct{}

type configItem struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Allowed string `json:"allowed,omitempty"`
}

// Run executes the list command
func (cmd *ConfigListConfigCmd) Run(cfg *config.Config, fp *FormatterProvider) error {
	var items []configItem
	for _, key := range config.Keys() {
		value, _ := cfg.Get(key)
		items = append(items, configItem{
			Key:     key,
			Value:   value,
			Allowed: strings.Join(config.Choices[key], "|"),
		})
	}

	return fp.Formatter.PrintList(items, []output.Column{
		{Name: "KEY", Key: "Key"},
		{Name: "VALUE", Key: "Value"},
		{Name: "ALLOWED", Key: "Allowed"},
	})
}

// ConfigPathCmd implements config path command
type ConfigPathCmd struct{}

// Run executes the path command
func (cmd *ConfigPathCmd) Run(cfg *config.Config, fp *FormatterProvider) error {
	path := cfg.Path()
	fp.Formatter.Print(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "(file does not exist yet - will be created on first write)\n")
	} else {
		fmt.Fprintf(os.Stderr, "(file exists)\n")
	}

	return nil
}

func unknownKey(key string, code int) error {
	return output.NewCLIError(code, fmt.Sprintf("Unknown config key: %s", key)).
		WithHint("Valid keys: " + strings.Join(config.Keys(), ", "))
}
