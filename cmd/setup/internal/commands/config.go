package commands

import (
	"context"
	"fmt"
)

// ConfigCmd prints the settings the server would start with.
type ConfigCmd struct{}

func (c *ConfigCmd) Run(ctx context.Context, globals *Globals) error {
	globals.setupLogging()

	settings, err := globals.loadSettings()
	if err != nil {
		return err
	}

	out := globals.stdout()
	for _, e := range settings.Redacted() {
		if _, err := fmt.Fprintf(out, "%s=%s\n", e.Key, e.Value); err != nil {
			return err
		}
	}

	return settings.Validate()
}
