package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/wolfeidau/devconfig/internal/logger"
	"gopkg.in/yaml.v3"
)

type ResolveCmd struct {
	DeclarationFlags `embed:""`

	Format string `help:"output format" default:"json" enum:"json,yaml"`

	Out io.Writer `kong:"-"`
}

func (c *ResolveCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)

	resolved, err := c.DeclarationFlags.Resolve(log)
	if err != nil {
		return err
	}

	log.Debug().Strs("plugins", resolved.PluginNames()).Msg("Declaration resolved")

	out := stdout(c.Out)
	switch c.Format {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(resolved); err != nil {
			return fmt.Errorf("failed to encode configuration: %w", err)
		}
		return enc.Close()
	default:
		data, err := json.MarshalIndent(resolved, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode configuration: %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
}
