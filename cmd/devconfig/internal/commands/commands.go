package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/devconfig/internal/devconfig"
	"github.com/wolfeidau/devconfig/internal/engine"
	"github.com/wolfeidau/devconfig/internal/plugins"
)

type Globals struct {
	Debug   bool
	Version string
}

// DeclarationFlags locate the declaration file and override its server settings.
type DeclarationFlags struct {
	Config string `help:"path to the declaration file (yaml, json or jsonc)" default:"devconfig.yaml" env:"DEVCONFIG_CONFIG" type:"path"`
	Host   *string `help:"dev server bind address, overrides the declaration" env:"DEVCONFIG_HOST"`
	Port   *int    `help:"dev server port, overrides the declaration" env:"DEVCONFIG_PORT"`
}

// Resolve loads the declaration, applies the flag overrides and resolves it.
// Nothing is handed to esbuild when this fails.
func (f *DeclarationFlags) Resolve(logger zerolog.Logger) (devconfig.ResolvedConfiguration, error) {
	decl, err := devconfig.Load(f.Config, plugins.Default(logger))
	if err != nil {
		return devconfig.ResolvedConfiguration{}, err
	}

	// unset flags are nil and keep the declared values
	overlay := &devconfig.ServerDeclaration{Host: f.Host, Port: f.Port}

	decl.Server, err = devconfig.MergeServer(decl.Server, overlay)
	if err != nil {
		return devconfig.ResolvedConfiguration{}, err
	}

	resolved, err := devconfig.Resolve(decl)
	if err != nil {
		return devconfig.ResolvedConfiguration{}, fmt.Errorf("failed to resolve %s: %w", f.Config, err)
	}

	return resolved, nil
}

// EngineFlags configure the esbuild settings the declaration does not own.
type EngineFlags struct {
	Entry     string `help:"entry point glob" default:"src/*.ts" env:"DEVCONFIG_ENTRY"`
	Outdir    string `help:"output directory" default:"dist" env:"DEVCONFIG_OUTDIR"`
	Metafile  string `help:"metafile written by builds" default:"dist/meta.json"`
	Minify    bool   `help:"minify output" default:"true" negatable:""`
	Sourcemap bool   `help:"emit linked source maps" default:"true" negatable:""`
	Servedir  string `help:"directory of static files served next to the build output" default:""`
}

func (e *EngineFlags) Config() engine.Config {
	return engine.Config{
		EntryPointGlob: e.Entry,
		OutputDir:      e.Outdir,
		MetafilePath:   e.Metafile,
		Minify:         e.Minify,
		SourceMap:      e.Sourcemap,
		Servedir:       e.Servedir,
	}
}

func stdout(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
