package commands

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/apiscaffold/internal/bootstrap"
)

// BootstrapCmd prepares a fresh checkout for `compose up`.
type BootstrapCmd struct {
	Network     string   `help:"docker network shared by the stack" default:"app-network" env:"SETUP_NETWORK"`
	EnvTemplate string   `help:"template copied to the env file when it is absent" default:".env.example"`
	DataDir     string   `help:"directory holding service volumes" default:"data"`
	Venv        []string `help:"virtual environment directories to look for" default:".venv,venv"`
}

func (c *BootstrapCmd) Run(ctx context.Context, globals *Globals) error {
	globals.setupLogging()

	_, err := bootstrap.Bootstrap(ctx, c.config(globals))
	log.Debug().Str("state", bootstrap.TerminalState(err)).Msg("Bootstrap finished")
	return err
}

func (c *BootstrapCmd) config(globals *Globals) bootstrap.Config {
	out := globals.stdout()
	return bootstrap.Config{
		LookupRuntime: func(ctx context.Context) (bootstrap.Runtime, error) {
			rt, err := globals.runtime(ctx)
			if err != nil {
				return nil, err
			}
			return rt, nil
		},
		Dir:         globals.path("."),
		DataDir:     c.DataDir,
		EnvFile:     globals.EnvFile,
		EnvTemplate: c.EnvTemplate,
		ComposeFile: globals.ComposeFile,
		Network:     c.Network,
		VenvDirs:    c.Venv,
		Reporter:    bootstrap.NewReporter(out),
		BuildOutput: out,
	}
}
