package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/apiscaffold/internal/bootstrap"
	"github.com/wolfeidau/apiscaffold/internal/compose"
	"github.com/wolfeidau/apiscaffold/internal/config"
)

var errChecksFailed = errors.New("environment checks failed")

// DoctorCmd reports on the local environment without changing it.
type DoctorCmd struct {
	Network string `help:"docker network the stack is expected to join" default:"app-network" env:"SETUP_NETWORK"`
}

type check struct {
	name string
	run  func(ctx context.Context) (string, error)
}

func (c *DoctorCmd) Run(ctx context.Context, globals *Globals) error {
	globals.setupLogging()
	r := bootstrap.NewReporter(globals.stdout())

	checks := []check{
		{name: "tools", run: func(ctx context.Context) (string, error) {
			rt, err := globals.runtime(ctx)
			if err != nil {
				return "", err
			}
			return "docker and " + rt.ComposeCommand() + " are available", nil
		}},
		{name: "network", run: func(ctx context.Context) (string, error) {
			rt, err := globals.runtime(ctx)
			if err != nil {
				return "", err
			}
			exists, err := rt.NetworkExists(ctx, c.Network)
			if err != nil {
				return "", err
			}
			if !exists {
				return "", fmt.Errorf("network %s does not exist, run setup to create it", c.Network)
			}
			return "network " + c.Network + " exists", nil
		}},
		{name: "settings", run: func(ctx context.Context) (string, error) {
			return checkSettings(globals)
		}},
		{name: "compose", run: func(ctx context.Context) (string, error) {
			return c.checkCompose(globals)
		}},
	}

	r.Heading("Checking environment")
	failed := 0
	for _, chk := range checks {
		msg, err := chk.run(ctx)
		if err != nil {
			failed++
			for line := range strings.SplitSeq(err.Error(), "\n") {
				r.Error("%s: %s", chk.name, line)
			}
			continue
		}
		r.Success("%s: %s", chk.name, msg)
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errChecksFailed, failed, len(checks))
	}
	return nil
}

func checkSettings(globals *Globals) (string, error) {
	envPath := globals.path(globals.EnvFile)
	if _, err := os.Stat(envPath); err != nil {
		return "", fmt.Errorf("%s not found, run setup to create it", globals.EnvFile)
	}

	settings, err := config.Load(envPath)
	if err != nil {
		return "", err
	}
	if err := settings.Validate(); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s is valid (%s=%s)", globals.EnvFile, config.EnvDatabaseType, settings.DatabaseType), nil
}

func (c *DoctorCmd) checkCompose(globals *Globals) (string, error) {
	vars, err := config.ReadFile(globals.path(globals.EnvFile))
	if err != nil {
		log.Debug().Err(err).Msg("interpolating compose file without env file")
	}

	f, err := compose.Load(globals.path(globals.ComposeFile), vars)
	if err != nil {
		return "", err
	}
	if err := f.Validate(c.Network, "app", "mongodb"); err != nil {
		return "", err
	}
	msg := fmt.Sprintf("%s declares %s", globals.ComposeFile, strings.Join(f.ServiceNames(), ", "))
	if app := f.Services["app"]; app != nil {
		if backend := app.Environment[config.EnvDatabaseType]; backend != "" {
			msg += fmt.Sprintf(" (app runs with %s=%s)", config.EnvDatabaseType, backend)
		}
	}
	return msg, nil
}
