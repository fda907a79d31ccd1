package commands

import (
	"context"
	"fmt"

	"github.com/wolfeidau/devconfig/internal/engine"
	"github.com/wolfeidau/devconfig/internal/logger"
)

type BuildCmd struct {
	DeclarationFlags `embed:""`
	Engine           EngineFlags `embed:"" prefix:"engine-"`
}

func (c *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	resolved, err := c.DeclarationFlags.Resolve(log)
	if err != nil {
		return err
	}

	pipeline := engine.New(c.Engine.Config(), resolved)
	if err := pipeline.Build(ctx); err != nil {
		return fmt.Errorf("failed to build assets: %w", err)
	}

	outputs, err := pipeline.Outputs()
	if err != nil {
		return err
	}

	entries, err := pipeline.EntryOutputs()
	if err != nil {
		return err
	}
	for entry, files := range entries {
		log.Info().Str("entrypoint", entry).Strs("files", files).Msg("Entry point built")
	}

	log.Info().Int("outputs", len(outputs)).Str("metafile", c.Engine.Metafile).Msg("Build complete")
	return nil
}
