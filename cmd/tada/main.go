package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/idilsaglam/tada/internal/cli"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/ui"
)

func main() {
	// Root flags (apply to every subcommand)
	groupPending := flag.Bool("group", false, "group output by pending/done")
	filter := flag.String("filter", "all", "list filter: all, active or completed")
	tenant := flag.String("tenant", "", "tenant id (overrides TADA_TENANT_ID and the saved tenant)")
	theme := flag.String("theme", "classic", "color theme: classic, neon or mono")
	noColor := flag.Bool("no-color", false, "disable ANSI colors")
	forceColor := flag.Bool("color", false, "force ANSI colors even when not a terminal")
	flag.Parse()

	ui.SetTheme(*theme)
	if *noColor || *forceColor {
		ui.SetColorForcing(*forceColor, *noColor)
	}

	// Hand the remaining args to the CLI runner.
	args := flag.Args()
	if len(args) == 0 {
		cli.PrintHelp(os.Stdout)
		os.Exit(2)
	}

	code := cli.Run(args, cli.Options{
		Group:  *groupPending,
		Filter: model.ParseFilter(*filter),
		Tenant: *tenant,
	})
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	os.Exit(code)
}
