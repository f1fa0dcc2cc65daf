package docker

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrToolNotFound indicates a required executable could not be resolved on PATH
	ErrToolNotFound = errors.New("required tool not found on PATH")
)

// ExitError is returned when a docker command exits with a non-zero status.
type ExitError struct {
	Args   []string
	Code   int
	Output string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", strings.Join(e.Args, " "), e.Code)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

// ExitCode returns the exit code carried by err, 0 for nil and 1 when no
// code is available.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code != 0 {
		return exitErr.Code
	}
	return 1
}
