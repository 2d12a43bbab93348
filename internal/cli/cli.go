package cli

import (
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/willabides/kongplete"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/semmy-space/dataprotect/internal/config"
	"github.com/semmy-space/dataprotect/internal/output"
)

// FormatterProvider wraps the formatter interface for Kong binding
type FormatterProvider struct {
	Formatter output.Formatter
}

// CLI is the root command structure
type CLI struct {
	Globals

	Secret  SecretCmd     `cmd:"" help:"Store and read protected secrets"`
	Ls      LsCmd         `cmd:"" help:"List secret names (shortcut for secret list)"`
	Get     GetCmd        `cmd:"" help:"Print a secret (shortcut for secret get)"`
	Key     KeyCmd        `cmd:"" help:"Inspect and create keystore keys"`
	Auth    AuthCmd       `cmd:"" help:"Authentication commands"`
	Lock    LockCmd       `cmd:"" help:"Lock the secret store"`
	Status  StatusCmd     `cmd:"" help:"Show keystore, store and authentication status"`
	Config  ConfigCmd     `cmd:"" help:"Configuration commands"`
	Setup   SetupCmd      `cmd:"" help:"Interactive first-run setup"`
	Schema  SchemaCmd     `cmd:"" help:"Print the command tree as JSON"`
	Version VersionCmd    `cmd:"" help:"Show version information"`

	InstallCompletions kongplete.InstallCompletions `cmd:"" help:"Install shell completions"`
}

// AfterApply hook runs once flags are applied, before any command executes
// It loads config, creates formatter and logger, and binds dependencies
func (c *CLI) AfterApply(ctx *kong.Context) error {
	// Load config from XDG path (returns defaults if missing)
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := NewLogger(c.Verbose)
	if err != nil {
		return err
	}

	formatter := &FormatterProvider{
		Formatter: output.New(c.ResolvedOutput(cfg)),
	}

	ctx.Bind(cfg)
	ctx.Bind(formatter)
	ctx.Bind(&c.Globals)
	ctx.Bind(logger)

	return nil
}

// NewLogger builds the CLI logger: debug-level development output with
// --verbose, warnings and errors only otherwise. Both write to stderr.
func NewLogger(verbose bool) (*zap.Logger, error) {
	var zc zap.Config
	if verbose {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zc.DisableStacktrace = true
	}
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}

// SecretCmd holds secret subcommands
type SecretCmd struct {
	Set  SecretSetCmd  `cmd:"" help:"Seal and store a secret (no authentication needed)"`
	Get  SecretGetCmd  `cmd:"" help:"Authenticate and print a secret"`
	List SecretListCmd `cmd:"" help:"List secret names"`
	Rm   SecretRmCmd   `cmd:"" help:"Remove a secret"`
	Seed SecretSeedCmd `cmd:"" help:"Store initial secrets that do not exist yet"`
}

// KeyCmd holds keystore subcommands
type KeyCmd struct {
	List     KeyListCmd     `cmd:"" help:"List keystore labels"`
	Generate KeyGenerateCmd `cmd:"" help:"Create a key under a label if missing"`
}

// AuthCmd holds authentication subcommands
type AuthCmd struct {
	Check      AuthCheckCmd      `cmd:"" help:"Run an authentication challenge and report the outcome"`
	Credential AuthCredentialCmd `cmd:"" help:"Manage the device PIN used as fallback"`
}

// AuthCredentialCmd holds device credential subcommands
type AuthCredentialCmd struct {
	Set   AuthCredentialSetCmd   `cmd:"" help:"Set or replace the device PIN"`
	Clear AuthCredentialClearCmd `cmd:"" help:"Remove the device PIN"`
}

// ConfigCmd holds configuration subcommands
type ConfigCmd struct {
	Get   ConfigGetCmd        `cmd:"" help:"Get a configuration value"`
	Set   ConfigSetCmd        `cmd:"" help:"Set a configuration value"`
	Unset ConfigUnsetCmd      `cmd:"" help:"Remove a configuration value"`
	List  ConfigListConfigCmd `cmd:"" name:"list" help:"List all configuration values"`
	Path  ConfigPathCmd       `cmd:"" help:"Show config file path"`
}

// VersionCmd shows version information
type VersionCmd struct{}

func (cmd *VersionCmd) Run(ctx *kong.Context, fp *FormatterProvider) error {
	version := ctx.Model.Vars()["version"]
	fp.Formatter.PrintSuccess(fmt.Sprintf("dataprotect version %s", version))
	return nil
}
