package engine

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/devconfig/internal/devconfig"
	"github.com/wolfeidau/devconfig/internal/plugins"
)

func resolve(t *testing.T, decl devconfig.Declaration) devconfig.ResolvedConfiguration {
	t.Helper()
	cfg, err := devconfig.Resolve(decl)
	require.NoError(t, err)
	return cfg
}

func testProject(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "main.ts"), []byte(`
import { greet } from "./greet"
console.log(greet("dev"))
`), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "greet.ts"), []byte(`
export const greet = (name: string): string => "hello " + name
`), 0600))

	return Config{
		EntryPointGlob: filepath.Join(dir, "src", "main.ts"),
		OutputDir:      filepath.Join(dir, "dist"),
		MetafilePath:   filepath.Join(dir, "dist", "meta.json"),
	}
}

func TestServeOptions(t *testing.T) {
	tests := []struct {
		name     string
		server   *devconfig.ServerDeclaration
		expected api.ServeOptions
	}{
		{
			name:     "nothing declared",
			server:   nil,
			expected: api.ServeOptions{},
		},
		{
			name:     "host and port",
			server:   &devconfig.ServerDeclaration{Host: devconfig.Ptr("0.0.0.0"), Port: devconfig.Ptr(5173)},
			expected: api.ServeOptions{Host: "0.0.0.0", Port: 5173},
		},
		{
			name:     "port left to esbuild",
			server:   &devconfig.ServerDeclaration{Host: devconfig.Ptr("localhost")},
			expected: api.ServeOptions{Host: "localhost"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := resolve(t, devconfig.Declaration{Server: tt.server})
			opts := ServeOptions(Config{}, cfg)
			require.Equal(t, tt.expected.Host, opts.Host)
			require.Equal(t, tt.expected.Port, opts.Port)
		})
	}
}

func TestServeOptions_servedir(t *testing.T) {
	opts := ServeOptions(Config{Servedir: "public"}, resolve(t, devconfig.Declaration{}))
	require.Equal(t, "public", opts.Servedir)
}

func TestBuildOptions_pluginOrder(t *testing.T) {
	external, err := plugins.External("^react$")
	require.NoError(t, err)

	cfg := resolve(t, devconfig.Declaration{
		Plugins: []devconfig.PluginFactory{external, plugins.BuildLog(zerolog.Nop())},
	})

	opts, err := BuildOptions(testProject(t), cfg)
	require.NoError(t, err)
	require.Len(t, opts.Plugins, 2)
	require.Equal(t, plugins.ExternalName, opts.Plugins[0].Name)
	require.Equal(t, plugins.BuildLogName, opts.Plugins[1].Name)
	require.Len(t, opts.EntryPoints, 1)
}

func TestBuildOptions_noEntryPoints(t *testing.T) {
	_, err := BuildOptions(Config{EntryPointGlob: filepath.Join(t.TempDir(), "*.ts")}, resolve(t, devconfig.Declaration{}))
	require.EqualError(t, err, "no entry points found")
}

func TestPlugins_unsupportedPayload(t *testing.T) {
	cfg := resolve(t, devconfig.Declaration{
		Plugins: []devconfig.PluginFactory{devconfig.PluginFactoryFunc(func() devconfig.PluginEntry {
			return devconfig.NewPluginEntry("vue", "not an esbuild plugin")
		})},
	})

	_, err := Plugins(cfg)
	require.ErrorIs(t, err, ErrUnsupportedPlugin)
}

func TestPipeline_Build(t *testing.T) {
	config := testProject(t)
	p := New(config, resolve(t, devconfig.Declaration{}))

	_, err := p.Outputs()
	require.Error(t, err)

	require.NoError(t, p.Build(context.Background()))

	_, err = os.Stat(config.MetafilePath)
	require.NoError(t, err)

	outputs, err := p.Outputs()
	require.NoError(t, err)
	require.NotEmpty(t, outputs)

	for _, out := range outputs {
		_, err := os.Stat(out)
		require.NoError(t, err, "missing output %s", out)
	}
}

func TestPipeline_BuildError(t *testing.T) {
	config := testProject(t)
	require.NoError(t, os.WriteFile(config.EntryPointGlob, []byte(`import "./missing"`), 0600))

	p := New(config, resolve(t, devconfig.Declaration{}))
	require.EqualError(t, p.Build(context.Background()), "esbuild failed with errors")
}

func TestPipeline_ServeNoEntryPoints(t *testing.T) {
	p := New(Config{EntryPointGlob: filepath.Join(t.TempDir(), "*.ts")}, resolve(t, devconfig.Declaration{}))
	require.Error(t, p.Serve(context.Background()))
}

func TestPipeline_EntryOutput(t *testing.T) {
	config := testProject(t)
	p := New(config, resolve(t, devconfig.Declaration{}))

	_, err := p.EntryOutput("src/main.ts")
	require.Error(t, err)

	require.NoError(t, p.Build(context.Background()))

	// metafile paths are relative to the working directory
	wd, err := os.Getwd()
	require.NoError(t, err)
	entry, err := filepath.Rel(wd, config.EntryPointGlob)
	require.NoError(t, err)

	files, err := p.EntryOutput(filepath.ToSlash(entry))
	require.NoError(t, err)
	require.NotEmpty(t, files)
	require.Equal(t, "main.js", filepath.Base(files[0]))

	_, err = p.EntryOutput("src/other.ts")
	require.Error(t, err)
}

func TestPipeline_EntryOutputs(t *testing.T) {
	config := testProject(t)
	p := New(config, resolve(t, devconfig.Declaration{}))

	_, err := p.EntryOutputs()
	require.Error(t, err)

	require.NoError(t, p.Build(context.Background()))

	entries, err := p.EntryOutputs()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	for entry, files := range entries {
		require.Equal(t, "main.ts", filepath.Base(entry))
		require.Equal(t, "main.js", filepath.Base(files[0]))
	}
}

func TestServeOptions_bracketedIPv6(t *testing.T) {
	cfg := resolve(t, devconfig.Declaration{
		Server: &devconfig.ServerDeclaration{Host: devconfig.Ptr("[::1]"), Port: devconfig.Ptr(5173)},
	})

	opts := ServeOptions(Config{}, cfg)
	require.Equal(t, "::1", opts.Host)

	// the resolved value itself is untouched
	host, _ := cfg.Server().Host()
	require.Equal(t, "[::1]", host)
}

func TestPipeline_ServeBracketedIPv6(t *testing.T) {
	ln, err := net.Listen("tcp", "[::1]:0")
	if err != nil {
		t.Skipf("IPv6 loopback unavailable: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	cfg := resolve(t, devconfig.Declaration{
		Server: &devconfig.ServerDeclaration{Host: devconfig.Ptr("[::1]"), Port: devconfig.Ptr(port)},
	})

	// a cancelled context makes Serve return as soon as the listener is bound
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, New(testProject(t), cfg).Serve(ctx))
}
