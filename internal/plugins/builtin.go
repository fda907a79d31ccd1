package plugins

import (
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/devconfig/internal/devconfig"
)

const (
	BuildLogName = "build-log"
	ExternalName = "external"
	AliasName    = "alias"
)

// factory wraps an esbuild plugin so every Plugin call hands out the same value.
func factory(p api.Plugin) devconfig.PluginFactory {
	return devconfig.PluginFactoryFunc(func() devconfig.PluginEntry {
		return devconfig.NewPluginEntry(p.Name, p)
	})
}

// BuildLog logs the start and the outcome of every build.
func BuildLog(logger zerolog.Logger) devconfig.PluginFactory {
	return factory(api.Plugin{
		Name: BuildLogName,
		Setup: func(build api.PluginBuild) {
			var (
				mu      sync.Mutex
				started time.Time
			)

			build.OnStart(func() (api.OnStartResult, error) {
				mu.Lock()
				started = time.Now()
				mu.Unlock()

				logger.Debug().Msg("Build started")
				return api.OnStartResult{}, nil
			})

			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				mu.Lock()
				elapsed := time.Since(started)
				mu.Unlock()

				ev := logger.Info()
				if len(result.Errors) > 0 {
					ev = logger.Error()
				}
				ev.Int("errors", len(result.Errors)).
					Int("warnings", len(result.Warnings)).
					Dur("duration", elapsed).
					Msg("Build finished")

				return api.OnEndResult{}, nil
			})
		},
	})
}

// External marks every import matching filter as external so it is left out of the bundle.
func External(filter string) (devconfig.PluginFactory, error) {
	if filter == "" {
		return nil, errors.New("filter option is required")
	}
	if _, err := regexp.Compile(filter); err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}

	return factory(api.Plugin{
		Name: ExternalName,
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: filter},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{Path: args.Path, External: true}, nil
				})
		},
	}), nil
}

// Alias resolves imports of from as if to had been imported instead.
func Alias(from, to string) (devconfig.PluginFactory, error) {
	if from == "" || to == "" {
		return nil, errors.New("from and to options are required")
	}
	if from == to {
		return nil, errors.New("from and to must differ")
	}

	return factory(api.Plugin{
		Name: AliasName,
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: "^" + regexp.QuoteMeta(from) + "$"},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					result := build.Resolve(to, api.ResolveOptions{
						Importer:   args.Importer,
						ResolveDir: args.ResolveDir,
						Kind:       args.Kind,
					})
					if len(result.Errors) > 0 {
						return api.OnResolveResult{}, fmt.Errorf("failed to resolve alias %s: %s", to, result.Errors[0].Text)
					}

					return api.OnResolveResult{
						Path:      result.Path,
						External:  result.External,
						Namespace: result.Namespace,
					}, nil
				})
		},
	}), nil
}
