package commands

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/apiscaffold/internal/config"
	"github.com/wolfeidau/apiscaffold/internal/docker"
	"github.com/wolfeidau/apiscaffold/internal/logger"
)

type Globals struct {
	Debug       bool
	Version     string
	Dir         string
	ComposeFile string
	EnvFile     string

	// Stdout receives user facing output. Default: os.Stdout
	Stdout io.Writer
}

func (g *Globals) stdout() io.Writer {
	if g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// path resolves rel against the project root.
func (g *Globals) path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	dir := g.Dir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, rel)
}

func (g *Globals) setupLogging() {
	log.Logger = logger.CLI(os.Stderr, g.Debug)
}

func (g *Globals) loadSettings() (*config.Settings, error) {
	return config.Load(g.path(g.EnvFile))
}

// runtime resolves docker and compose for the project.
func (g *Globals) runtime(ctx context.Context) (*docker.Runtime, error) {
	tools, err := docker.LookupTools(ctx)
	if err != nil {
		return nil, err
	}
	return docker.NewRuntime(tools, g.path("."), g.path(g.ComposeFile)), nil
}
