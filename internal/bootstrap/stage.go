package bootstrap

import (
	"errors"
	"fmt"
)

var (
	// ErrTemplateMissing indicates neither the env file nor its template exists
	ErrTemplateMissing = errors.New("no configuration file or template found")
	// ErrNotDirectory indicates a path that must be a directory is something else
	ErrNotDirectory = errors.New("path exists but is not a directory")
)

// Stage identifies a step of the bootstrap sequence.
type Stage int

const (
	StageTools Stage = iota + 1
	StageDirectories
	StageConfiguration
	StageNetwork
	StageVirtualEnv
	StageBuild
)

func (s Stage) String() string {
	switch s {
	case StageTools:
		return "tool availability"
	case StageDirectories:
		return "directory provisioning"
	case StageConfiguration:
		return "configuration"
	case StageNetwork:
		return "network provisioning"
	case StageVirtualEnv:
		return "virtual environment"
	case StageBuild:
		return "image build"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// StageError is a fatal failure of one stage. Code is the process exit code
// to report, propagated from the external command where there was one.
type StageError struct {
	Stage Stage
	Code  int
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d (%s) failed: %v", int(e.Stage), e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ExitCode maps the result of Bootstrap to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var stageErr *StageError
	if errors.As(err, &stageErr) && stageErr.Code != 0 {
		return stageErr.Code
	}
	return 1
}

// TerminalState names the final state of a run: SUCCESS or
// FAILED_AT_STAGE_n for the first failing stage.
func TerminalState(err error) string {
	if err == nil {
		return "SUCCESS"
	}
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return fmt.Sprintf("FAILED_AT_STAGE_%d", int(stageErr.Stage))
	}
	return "FAILED"
}
