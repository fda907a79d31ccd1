package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/devconfig/internal/devconfig"
	"github.com/wolfeidau/devconfig/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

const metricsPluginName = "devconfig:metrics"

// BuildOptions maps the engine settings and resolved plugins onto esbuild build options.
// Plugins keep their declared order.
func BuildOptions(config Config, resolved devconfig.ResolvedConfiguration) (api.BuildOptions, error) {
	entryPoints, err := filepath.Glob(config.EntryPointGlob)
	if err != nil {
		return api.BuildOptions{}, err
	}

	if len(entryPoints) == 0 {
		return api.BuildOptions{}, errors.New("no entry points found")
	}

	plugins, err := Plugins(resolved)
	if err != nil {
		return api.BuildOptions{}, err
	}

	return api.BuildOptions{
		EntryPoints:       entryPoints,
		Bundle:            true,
		Splitting:         true,
		Write:             true,
		JSX:               api.JSXAutomatic,
		Outdir:            config.OutputDir,
		Format:            api.FormatESModule,
		MinifyWhitespace:  config.Minify,
		MinifyIdentifiers: config.Minify,
		MinifySyntax:      config.Minify,
		TreeShaking:       api.TreeShakingTrue,
		Sourcemap:         cond(config.SourceMap, api.SourceMapLinked, api.SourceMapNone),
		Metafile:          true,
		Plugins:           plugins,
	}, nil
}

// Plugins extracts the esbuild plugins carried by the resolved plugin entries.
func Plugins(resolved devconfig.ResolvedConfiguration) ([]api.Plugin, error) {
	entries := resolved.Plugins()
	plugins := make([]api.Plugin, 0, len(entries))
	for _, entry := range entries {
		p, ok := entry.Payload().(api.Plugin)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedPlugin, entry.Name())
		}
		plugins = append(plugins, p)
	}
	return plugins, nil
}

// ServeOptions maps the resolved server settings onto esbuild serve options.
// Unset fields are left zero so esbuild applies its own defaults. esbuild joins
// host and port itself, so a bracketed IPv6 host loses its brackets here.
func ServeOptions(config Config, resolved devconfig.ResolvedConfiguration) api.ServeOptions {
	opts := api.ServeOptions{Servedir: config.Servedir}

	if host, ok := resolved.Server().Host(); ok {
		opts.Host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	}
	if port, ok := resolved.Server().Port(); ok {
		opts.Port = port
	}

	return opts
}

// Build runs a one-shot esbuild build and loads the output metadata
func (p *Pipeline) Build(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, span := telemetry.Tracer().Start(ctx, "engine.Build")
	defer span.End()

	opts, err := BuildOptions(p.config, p.resolved)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	log.Info().Strs("entrypoints", opts.EntryPoints).Strs("plugins", p.resolved.PluginNames()).Msg("Building assets")

	started := time.Now()
	result := api.Build(opts)
	recordBuild(ctx, &result, time.Since(started))

	span.SetAttributes(
		attribute.Int("esbuild.errors", len(result.Errors)),
		attribute.Int("esbuild.output_files", len(result.OutputFiles)),
	)

	if len(result.Errors) > 0 {
		for _, msg := range result.Errors {
			log.Error().Str("error", msg.Text).Msg("Build error")
		}
		span.SetStatus(codes.Error, "esbuild failed")
		return errors.New("esbuild failed with errors")
	}

	for _, file := range result.OutputFiles {
		log.Info().Str("file", file.Path).Msg("Built file")
	}
	telemetry.GetMetrics().OutputFilesTotal.Add(ctx, int64(len(result.OutputFiles)))

	if err := os.MkdirAll(filepath.Dir(p.config.MetafilePath), 0o755); err != nil {
		return err
	}

	// Write metafile
	if err := os.WriteFile(p.config.MetafilePath, []byte(result.Metafile), 0600); err != nil {
		return err
	}

	// Parse and cache metadata
	var metadata BuildMetadata
	if err := json.Unmarshal([]byte(result.Metafile), &metadata); err != nil {
		return err
	}

	p.metadata = &metadata
	return nil
}

// Serve starts esbuild in watch mode with its dev server bound to the resolved
// host and port, and blocks until ctx is cancelled.
func (p *Pipeline) Serve(ctx context.Context) error {
	opts, err := BuildOptions(p.config, p.resolved)
	if err != nil {
		return err
	}

	// served from memory, the metafile is only written by Build
	opts.Write = false
	opts.Plugins = append(opts.Plugins, metricsPlugin(ctx))

	buildCtx, ctxErr := api.Context(opts)
	if ctxErr != nil {
		for _, msg := range ctxErr.Errors {
			log.Error().Str("error", msg.Text).Msg("Build context error")
		}
		return errors.New("failed to create esbuild context")
	}
	defer buildCtx.Dispose()

	if err := buildCtx.Watch(api.WatchOptions{}); err != nil {
		return fmt.Errorf("failed to start watch mode: %w", err)
	}

	serveOpts := ServeOptions(p.config, p.resolved)
	serveOpts.OnRequest = func(args api.ServeOnRequestArgs) {
		log.Debug().
			Str("addr", args.RemoteAddress).
			Str("method", args.Method).
			Str("path", args.Path).
			Int("status", args.Status).
			Int("duration_ms", args.TimeInMS).
			Msg("dev server request")
	}
	result, err := buildCtx.Serve(serveOpts)
	if err != nil {
		return fmt.Errorf("failed to start dev server: %w", err)
	}
	telemetry.GetMetrics().DevServersStarted.Add(ctx, 1)

	log.Info().
		Strs("hosts", result.Hosts).
		Uint16("port", result.Port).
		Strs("plugins", p.resolved.PluginNames()).
		Msg("Dev server listening")

	<-ctx.Done()

	log.Info().Msg("Stopping dev server")
	return nil
}

// metricsPlugin records every watch mode rebuild. It runs after the declared plugins.
func metricsPlugin(ctx context.Context) api.Plugin {
	return api.Plugin{
		Name: metricsPluginName,
		Setup: func(build api.PluginBuild) {
			var (
				mu      sync.Mutex
				started time.Time
			)

			build.OnStart(func() (api.OnStartResult, error) {
				mu.Lock()
				started = time.Now()
				mu.Unlock()
				return api.OnStartResult{}, nil
			})

			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				mu.Lock()
				elapsed := time.Since(started)
				mu.Unlock()

				recordBuild(ctx, result, elapsed)
				return api.OnEndResult{}, nil
			})
		},
	}
}

func recordBuild(ctx context.Context, result *api.BuildResult, elapsed time.Duration) {
	m := telemetry.GetMetrics()
	status := metric.WithAttributes(attribute.Bool("success", len(result.Errors) == 0))

	m.BuildsTotal.Add(ctx, 1, status)
	m.BuildErrorsTotal.Add(ctx, int64(len(result.Errors)))
	m.BuildWarnings.Add(ctx, int64(len(result.Warnings)))
	m.BuildDuration.Record(ctx, float64(elapsed.Milliseconds()), status)
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
