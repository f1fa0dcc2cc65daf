package commands

import (
	"context"
)

// UpCmd starts the stack detached.
type UpCmd struct{}

func (c *UpCmd) Run(ctx context.Context, globals *Globals) error {
	globals.setupLogging()

	rt, err := globals.runtime(ctx)
	if err != nil {
		return err
	}
	return rt.ComposeUp(ctx, globals.stdout())
}

// DownCmd stops and removes the stack's containers.
type DownCmd struct{}

func (c *DownCmd) Run(ctx context.Context, globals *Globals) error {
	globals.setupLogging()

	rt, err := globals.runtime(ctx)
	if err != nil {
		return err
	}
	return rt.ComposeDown(ctx, globals.stdout())
}

// LogsCmd shows service logs.
type LogsCmd struct {
	Follow   bool     `help:"follow log output" short:"f"`
	Services []string `arg:"" optional:"" help:"services to show, all when omitted"`
}

func (c *LogsCmd) Run(ctx context.Context, globals *Globals) error {
	globals.setupLogging()

	rt, err := globals.runtime(ctx)
	if err != nil {
		return err
	}
	return rt.ComposeLogs(ctx, globals.stdout(), c.Follow, c.Services...)
}
