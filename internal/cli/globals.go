package cli

import (
	"os"
	"time"

	"golang.org/x/term"

	"github.com/semmy-space/dataprotect/internal/config"
)

// Globals holds global flags available to all commands
type Globals struct {
	Output  string        `help:"Output format" default:"auto" enum:"json,plain,rich,auto" short:"o" env:"DPROT_OUTPUT"`
	Verbose bool          `help:"Verbose output" short:"v" env:"DPROT_VERBOSE"`
	Backend string        `help:"Keystore backend (overrides config)" default:"" enum:"auto,keyring,file,memory," env:"DPROT_BACKEND"`
	Store   string        `help:"Secret store backend (overrides config)" default:"" enum:"file,sqlite,memory," env:"DPROT_STORE"`
	DataDir string        `help:"Directory holding the key file and secret store" name:"data-dir" type:"path" env:"DPROT_DATA_DIR"`
	NoInput bool          `help:"Disable interactive prompts (fail instead)" env:"DPROT_NO_INPUT"`
	Timeout time.Duration `help:"Give up on authentication after this long" default:"60s" env:"DPROT_TIMEOUT"`
}

// ResolvedOutput returns the effective output mode
// "auto" uses the configured default_output, then detects TTY:
// if stdout is TTY -> rich, else -> plain
func (g *Globals) ResolvedOutput(cfg *config.Config) string {
	if g.Output != "" && g.Output != "auto" {
		return g.Output
	}
	if cfg != nil && cfg.DefaultOutput != "" && cfg.DefaultOutput != "auto" {
		return cfg.DefaultOutput
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		return "rich"
	}

	return "plain"
}

// ResolvedDataDir returns --data-dir or the XDG data directory
func (g *Globals) ResolvedDataDir() string {
	if g.DataDir != "" {
		return g.DataDir
	}
	return config.DataDir()
}

// interactive reports whether prompts can be shown
func (g *Globals) interactive() bool {
	return !g.NoInput && term.IsTerminal(int(os.Stdin.Fd()))
}
