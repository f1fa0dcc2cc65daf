package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/apiscaffold/internal/bootstrap"
	"github.com/wolfeidau/apiscaffold/internal/datastore"
)

// WaitCmd blocks until the configured data store answers a ping.
type WaitCmd struct {
	Timeout time.Duration `help:"how long to keep retrying" default:"60s"`
}

func (c *WaitCmd) Run(ctx context.Context, globals *Globals) error {
	globals.setupLogging()
	r := bootstrap.NewReporter(globals.stdout())

	settings, err := globals.loadSettings()
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	store, err := datastore.New(ctx, settings)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close data store")
		}
	}()

	r.Heading("Waiting for %s", store.Name())
	start := time.Now()
	if err := datastore.WaitReady(ctx, store, datastore.WaitOptions{MaxWait: c.Timeout}); err != nil {
		return fmt.Errorf("data store unavailable: %w", err)
	}
	r.Success("%s is ready after %s", store.Name(), time.Since(start).Round(time.Millisecond))
	return nil
}
