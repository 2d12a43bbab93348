package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/willabides/kongplete"

	"github.com/semmy-space/dataprotect/internal/cli"
	"github.com/semmy-space/dataprotect/internal/output"
)

var (
	version = "dev"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cliInstance := &cli.CLI{}
	parser := kong.Must(cliInstance,
		kong.Name("dataprotect"),
		kong.Description("Seal secrets with a keystore key and unlock them with your fingerprint or device PIN"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	// Answers shell completion requests and exits; no-op otherwise
	kongplete.Complete(parser, cli.Predictors()...)

	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	if err := cli.Classify(kctx.Run()); err != nil {
		mode := "plain"
		if cliInstance.Output == "json" {
			mode = "json"
		}
		output.ExitWithError(output.New(mode), err)
		stop()
		os.Exit(output.ExitCode(err))
	}
}
