package commands

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/devconfig/internal/plugins"
)

type PluginsCmd struct {
	Out io.Writer `kong:"-"`
}

func (c *PluginsCmd) Run(globals *Globals) error {
	out := stdout(c.Out)
	for _, name := range plugins.Default(zerolog.Nop()).Names() {
		if _, err := fmt.Fprintln(out, name); err != nil {
			return err
		}
	}
	return nil
}
