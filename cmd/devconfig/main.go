package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/devconfig/cmd/devconfig/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug   bool `help:"Enable debug mode."`
		Version kong.VersionFlag
		Resolve commands.ResolveCmd `cmd:"" help:"Resolve a declaration and print the configuration handed to esbuild"`
		Build   commands.BuildCmd   `cmd:"" help:"Run a one-shot esbuild build with the resolved configuration"`
		Serve   commands.ServeCmd   `cmd:"" help:"Start the esbuild dev server with the resolved configuration"`
		Plugins commands.PluginsCmd `cmd:"" help:"List the built-in plugins"`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
