package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/apiscaffold/cmd/setup/internal/commands"
	"github.com/wolfeidau/apiscaffold/internal/bootstrap"
	"github.com/wolfeidau/apiscaffold/internal/docker"
)

var (
	version = "dev"
	cli     struct {
		Bootstrap commands.BootstrapCmd `cmd:"" default:"withargs" help:"Prepare the local environment and build the images (default)"`
		Doctor    commands.DoctorCmd    `cmd:"" help:"Check the local environment without changing it"`
		Config    commands.ConfigCmd    `cmd:"" help:"Print the resolved settings with secrets redacted"`
		Up        commands.UpCmd        `cmd:"" help:"Start the stack in the background"`
		Down      commands.DownCmd      `cmd:"" help:"Stop the stack"`
		Logs      commands.LogsCmd      `cmd:"" help:"Show service logs"`
		Wait      commands.WaitCmd      `cmd:"" help:"Wait for the data store to accept connections"`

		Dir         string `help:"Project root directory." default:"." env:"SETUP_DIR"`
		ComposeFile string `help:"Compose file, relative to the project root." default:"docker-compose.yml"`
		EnvFile     string `help:"Env file, relative to the project root." default:".env"`
		Debug       bool   `help:"Enable debug mode."`
		Version     kong.VersionFlag
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := kong.Parse(&cli,
		kong.Description("Set up and drive the local development environment."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{
		Debug:       cli.Debug,
		Version:     version,
		Dir:         cli.Dir,
		ComposeFile: cli.ComposeFile,
		EnvFile:     cli.EnvFile,
	})
	if err == nil {
		return
	}

	// stage failures have already been reported on stdout
	var stageErr *bootstrap.StageError
	if errors.As(err, &stageErr) {
		stop()
		cmd.Exit(stageErr.Code)
		return
	}

	cmd.Errorf("%s", err)
	stop()
	cmd.Exit(docker.ExitCode(err))
}
