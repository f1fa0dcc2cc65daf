// Package bootstrap prepares a local development environment before the
// first container build. It runs a fixed, fail-fast sequence of stages:
// tool checks, data directories, env file, docker network, a virtual
// environment advisory and finally the image build.
//
// Every stage checks before it acts, so re-running after a success leaves
// directories, the env file and the network untouched and only repeats the
// build. Nothing is rolled back when a later stage fails; a re-run picks up
// from whatever state is on disk.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/apiscaffold/internal/compose"
	"github.com/wolfeidau/apiscaffold/internal/config"
	"github.com/wolfeidau/apiscaffold/internal/docker"
)

const documentStorePort = 27017

// Bootstrap runs every stage in order and stops at the first fatal failure,
// which is returned as a *StageError. The result reflects the stages that
// completed, including on failure.
func Bootstrap(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.LookupRuntime == nil {
		return nil, fmt.Errorf("LookupRuntime is required")
	}
	cfg.ApplyDefaults()

	r := cfg.Reporter
	res := &Result{}

	log.Debug().Str("dir", cfg.Dir).Str("network", cfg.Network).Msg("Starting bootstrap")

	// Stage 1: nothing on disk may change before the tools are confirmed.
	r.Heading("Checking required tools")
	rt, err := cfg.LookupRuntime(ctx)
	if err != nil {
		r.Info("  Install Docker with the compose plugin: https://docs.docker.com/get-docker/")
		return res, fail(r, StageTools, 1, err)
	}
	r.Success("docker and %s are available", rt.ComposeCommand())

	r.Heading("Preparing data directories")
	if err := ensureDataDirs(&cfg, res); err != nil {
		return res, fail(r, StageDirectories, 1, err)
	}

	r.Heading("Preparing configuration")
	if err := ensureEnvFile(&cfg, res); err != nil {
		return res, fail(r, StageConfiguration, 1, err)
	}

	r.Heading("Preparing docker network")
	if err := ensureNetwork(ctx, &cfg, rt, res); err != nil {
		return res, fail(r, StageNetwork, docker.ExitCode(err), err)
	}

	r.Heading("Checking virtual environment")
	checkVirtualEnv(&cfg, res)

	r.Heading("Building images")
	if err := rt.ComposeBuild(ctx, cfg.BuildOutput); err != nil {
		return res, fail(r, StageBuild, docker.ExitCode(err), err)
	}
	r.Success("Images built")

	res.Endpoints = resolveEndpoints(&cfg)
	printSummary(r, rt.ComposeCommand(), res.Endpoints)

	log.Debug().
		Bool("data_dir_created", res.DataDirCreated).
		Bool("env_file_created", res.EnvFileCreated).
		Bool("network_created", res.NetworkCreated).
		Msg("Bootstrap complete")

	return res, nil
}

func fail(r *Reporter, stage Stage, code int, err error) error {
	r.Error("%s", err)
	log.Debug().Err(err).Int("stage", int(stage)).Int("exit_code", code).Msg("Bootstrap failed")
	return &StageError{Stage: stage, Code: code, Err: err}
}

func ensureDataDirs(cfg *Config, res *Result) error {
	r := cfg.Reporter
	dataDir := cfg.path(cfg.DataDir)
	storeDir := filepath.Join(dataDir, cfg.DocumentStoreDir)
	storeDisplay := filepath.Join(cfg.DataDir, cfg.DocumentStoreDir)

	info, err := os.Stat(dataDir)
	switch {
	case err == nil && !info.IsDir():
		return fmt.Errorf("%w: %s", ErrNotDirectory, cfg.DataDir)
	case err == nil:
		r.Success("Data directory %s already exists", cfg.DataDir)
		// an existing data dir may predate the document store
		if _, err := os.Stat(storeDir); errors.Is(err, fs.ErrNotExist) {
			if err := os.MkdirAll(storeDir, 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", storeDisplay, err)
			}
			r.Success("Created %s", storeDisplay)
		}
		return nil
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("failed to check %s: %w", cfg.DataDir, err)
	}

	if err := os.MkdirAll(storeDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", storeDisplay, err)
	}
	res.DataDirCreated = true
	r.Success("Created %s and %s", cfg.DataDir, storeDisplay)
	return nil
}

func ensureEnvFile(cfg *Config, res *Result) error {
	r := cfg.Reporter
	envPath := cfg.path(cfg.EnvFile)

	if fileExists(envPath) {
		r.Success("%s already exists", cfg.EnvFile)
		return nil
	}

	templatePath := cfg.path(cfg.EnvTemplate)
	if !fileExists(templatePath) {
		return fmt.Errorf("%w: neither %s nor %s exists", ErrTemplateMissing, cfg.EnvFile, cfg.EnvTemplate)
	}

	if err := copyFile(templatePath, envPath); err != nil {
		return fmt.Errorf("failed to create %s from %s: %w", cfg.EnvFile, cfg.EnvTemplate, err)
	}
	res.EnvFileCreated = true
	r.Success("Created %s from %s", cfg.EnvFile, cfg.EnvTemplate)
	r.Warn("Review the values in %s before starting the stack", cfg.EnvFile)
	return nil
}

func ensureNetwork(ctx context.Context, cfg *Config, rt Runtime, res *Result) error {
	r := cfg.Reporter

	exists, err := rt.NetworkExists(ctx, cfg.Network)
	if err != nil {
		return fmt.Errorf("failed to list docker networks: %w", err)
	}

	if exists {
		r.Success("Network %s already exists", cfg.Network)
	} else {
		if err := rt.CreateNetwork(ctx, cfg.Network); err != nil {
			return fmt.Errorf("failed to create network %s: %w", cfg.Network, err)
		}
		res.NetworkCreated = true
		r.Success("Created network %s", cfg.Network)
	}

	// The stack only joins the network if compose declares it external.
	if f, err := compose.Load(cfg.path(cfg.ComposeFile), envVars(cfg)); err == nil {
		if err := f.Validate(cfg.Network, cfg.AppService, cfg.StoreService); err != nil {
			for line := range strings.SplitSeq(err.Error(), "\n") {
				r.Warn("%s: %s", cfg.ComposeFile, line)
			}
		}
	}

	return nil
}

func checkVirtualEnv(cfg *Config, res *Result) {
	r := cfg.Reporter
	for _, dir := range cfg.VenvDirs {
		if dirExists(cfg.path(dir)) {
			res.Venv = dir
			r.Success("Virtual environment %s found", dir)
			return
		}
	}

	r.Warn("No virtual environment found (looked for %s)", strings.Join(cfg.VenvDirs, ", "))
	r.Info("  To create one for local tooling:")
	r.Info("    python3 -m venv %s", cfg.VenvDirs[0])
	r.Info("    source %s/bin/activate", cfg.VenvDirs[0])
}

// resolveEndpoints prefers the ports published in the compose file and
// falls back to APP_PORT and the document store's standard port.
func resolveEndpoints(cfg *Config) []compose.Endpoint {
	vars := envVars(cfg)

	f, err := compose.Load(cfg.path(cfg.ComposeFile), vars)
	if err == nil {
		if endpoints := f.Endpoints(); len(endpoints) > 0 {
			return endpoints
		}
	} else {
		log.Debug().Err(err).Msg("Falling back to default endpoints")
	}

	settings, err := config.FromMap(vars)
	if err != nil {
		settings = config.Defaults()
	}

	return []compose.Endpoint{
		{Service: cfg.AppService, URL: fmt.Sprintf("http://localhost:%d", settings.AppPort)},
		{Service: cfg.StoreService, URL: fmt.Sprintf("mongodb://localhost:%d", documentStorePort)},
	}
}

func envVars(cfg *Config) map[string]string {
	vars, err := config.ReadFile(cfg.path(cfg.EnvFile))
	if err != nil {
		return nil
	}
	return vars
}

func printSummary(r *Reporter, composeCmd string, endpoints []compose.Endpoint) {
	r.Heading("Setup complete")
	r.Info("Next steps:")
	r.Info("  Start the stack:  %s up -d", composeCmd)
	r.Info("  Stop the stack:   %s down", composeCmd)
	r.Info("  Tail the logs:    %s logs -f", composeCmd)
	r.Info("")
	r.Info("Services:")
	for _, e := range endpoints {
		r.Info("  %-10s %s", e.Service+":", e.URL)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// copyFile copies src to a new file at dst. It refuses to overwrite dst and
// removes a partially written dst on failure.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src) // #nosec G304 - template path comes from the project layout
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) // #nosec G304
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	_, err = io.Copy(out, in)
	return err
}
