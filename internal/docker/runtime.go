// Package docker drives the docker CLI for the local development stack:
// network management and the compose lifecycle (build, up, down, logs).
//
// Short query commands run through os/exec and are captured whole. Long
// running compose commands are streamed through console-stream so build
// output reaches the terminal as it is produced.
package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	consolestream "github.com/wolfeidau/console-stream"
)

const (
	// RuntimeBinary is the container runtime CLI.
	RuntimeBinary = "docker"
	// StandaloneComposeBinary is the legacy compose CLI.
	StandaloneComposeBinary = "docker-compose"
)

// Tools holds the resolved container tooling.
type Tools struct {
	// Runtime is the resolved path of the docker binary.
	Runtime string
	// Compose is the command prefix used for compose, either
	// [docker compose] or [docker-compose].
	Compose []string
}

// LookupTools resolves the container runtime and the compose CLI. The
// standalone docker-compose binary is preferred when present, otherwise the
// compose plugin must answer `docker compose version`.
func LookupTools(ctx context.Context) (*Tools, error) {
	runtimePath, err := exec.LookPath(RuntimeBinary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, RuntimeBinary)
	}

	if composePath, err := exec.LookPath(StandaloneComposeBinary); err == nil {
		return &Tools{Runtime: runtimePath, Compose: []string{composePath}}, nil
	}

	// #nosec G204 - fixed arguments against the resolved docker binary
	cmd := exec.CommandContext(ctx, runtimePath, "compose", "version")
	if output, err := cmd.CombinedOutput(); err != nil {
		log.Debug().Err(err).Str("output", string(output)).Msg("compose plugin probe failed")
		return nil, fmt.Errorf("%w: %s (or the docker compose plugin)", ErrToolNotFound, StandaloneComposeBinary)
	}

	return &Tools{Runtime: runtimePath, Compose: []string{runtimePath, "compose"}}, nil
}

// Runtime runs docker and compose commands for a single compose project.
type Runtime struct {
	tools       *Tools
	projectDir  string
	composeFile string
}

// NewRuntime creates a Runtime for the compose project rooted at projectDir.
func NewRuntime(tools *Tools, projectDir, composeFile string) *Runtime {
	return &Runtime{
		tools:       tools,
		projectDir:  projectDir,
		composeFile: composeFile,
	}
}

// NetworkExists reports whether a network with exactly this name exists.
func (r *Runtime) NetworkExists(ctx context.Context, name string) (bool, error) {
	output, err := r.output(ctx, "network", "ls", "--format", "{{.Name}}")
	if err != nil {
		return false, err
	}
	for line := range strings.Lines(output) {
		if strings.TrimSpace(line) == name {
			return true, nil
		}
	}
	return false, nil
}

// CreateNetwork creates a bridge network with the given name.
func (r *Runtime) CreateNetwork(ctx context.Context, name string) error {
	_, err := r.output(ctx, "network", "create", name)
	return err
}

// RemoveNetwork deletes the named network.
func (r *Runtime) RemoveNetwork(ctx context.Context, name string) error {
	_, err := r.output(ctx, "network", "rm", name)
	return err
}

// ComposeBuild builds the images of every declared service.
func (r *Runtime) ComposeBuild(ctx context.Context, w io.Writer) error {
	return r.stream(ctx, w, "build")
}

// ComposeUp starts the stack in the background.
func (r *Runtime) ComposeUp(ctx context.Context, w io.Writer) error {
	return r.stream(ctx, w, "up", "-d")
}

// ComposeDown stops and removes the stack's containers.
func (r *Runtime) ComposeDown(ctx context.Context, w io.Writer) error {
	return r.stream(ctx, w, "down")
}

// ComposeLogs prints service logs, following them when follow is set.
func (r *Runtime) ComposeLogs(ctx context.Context, w io.Writer, follow bool, services ...string) error {
	args := []string{"logs"}
	if follow {
		args = append(args, "-f")
	}
	return r.stream(ctx, w, append(args, services...)...)
}

// ComposeCommand is the compose invocation as a user would type it.
func (r *Runtime) ComposeCommand() string {
	if len(r.tools.Compose) == 1 {
		return StandaloneComposeBinary
	}
	return RuntimeBinary + " compose"
}

func (r *Runtime) composeArgs(args ...string) (string, []string) {
	full := append([]string{}, r.tools.Compose[1:]...)
	if r.composeFile != "" {
		full = append(full, "-f", r.composeFile)
	}
	if r.projectDir != "" {
		full = append(full, "--project-directory", r.projectDir)
	}
	return r.tools.Compose[0], append(full, args...)
}

func (r *Runtime) output(ctx context.Context, args ...string) (string, error) {
	// #nosec G204 - arguments are built by this package, not from user shell input
	cmd := exec.CommandContext(ctx, r.tools.Runtime, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		code := 1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return "", &ExitError{
			Args:   append([]string{RuntimeBinary}, args...),
			Code:   code,
			Output: string(output),
		}
	}
	return string(output), nil
}

func (r *Runtime) stream(ctx context.Context, w io.Writer, args ...string) error {
	name, full := r.composeArgs(args...)
	display := append([]string{name}, full...)

	log.Debug().Strs("args", display).Msg("running compose")

	process := consolestream.NewProcess(name, full,
		consolestream.WithPipeMode(),
		consolestream.WithFlushInterval(100*time.Millisecond),
	)

	for event, err := range process.ExecuteAndStream(ctx) {
		if err != nil {
			return fmt.Errorf("%s failed: %w", strings.Join(display, " "), err)
		}

		switch e := event.Event.(type) {
		case *consolestream.OutputData:
			if _, err := w.Write(e.Data); err != nil {
				log.Warn().Err(err).Msg("failed to write compose output")
			}
		case *consolestream.ProcessEnd:
			if e.ExitCode != 0 {
				return &ExitError{Args: display, Code: e.ExitCode}
			}
			log.Debug().Dur("duration", e.Duration).Strs("args", display).Msg("compose finished")
			return nil
		}
	}

	return nil
}
