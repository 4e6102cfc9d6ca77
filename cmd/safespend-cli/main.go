package main

import (
	"os"

	"github.com/alecthomas/kong"

	"safespend/internal/cli"
)

var (
	// Version is set via ldflags when building.
	Version = "dev"

	app struct {
		Version kong.VersionFlag `help:"Show version information."`
		cli.Commands
	}
)

func main() {
	cli.LoadEnvFile()

	ctx := kong.Parse(&app,
		kong.Vars{"version": Version},
		kong.Name("safespend-cli"),
		kong.Description("Record monthly finances and get AI financial advice from the terminal."),
		kong.UsageOnError(),
		kong.Bind(&app.Globals),
	)

	if err := ctx.Run(); err != nil {
		os.Exit(cli.ReportError(ctx, err))
	}
}
