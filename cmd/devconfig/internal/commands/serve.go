package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/wolfeidau/devconfig/internal/engine"
	"github.com/wolfeidau/devconfig/internal/logger"
	"github.com/wolfeidau/devconfig/internal/telemetry"
)

type ServeCmd struct {
	DeclarationFlags `embed:""`
	Engine           EngineFlags `embed:"" prefix:"engine-"`

	Telemetry bool `help:"export build metrics and traces over OTLP" default:"false" env:"DEVCONFIG_TELEMETRY"`
}

func (c *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting dev server")

	// resolve before anything else so a bad declaration never reaches esbuild
	resolved, err := c.DeclarationFlags.Resolve(log)
	if err != nil {
		return err
	}

	if c.Telemetry {
		shutdown, err := telemetry.Init(ctx, "devconfig", globals.Version)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without it")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("Failed to shutdown telemetry")
				}
			}()
		}
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := engine.New(c.Engine.Config(), resolved).Serve(ctx); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}

	return nil
}
