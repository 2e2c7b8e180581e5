package sandbox

import (
	"errors"
	"fmt"
)

// SpawnError reports that the host runtime could not be launched.
type SpawnError struct {
	Runtime string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("start runtime %q: %v", e.Runtime, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// ExitError carries a child's non-zero exit code.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("script exited with code %d", e.Code)
}

// ExitCode maps an error returned from a cordon command to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var spawnErr *SpawnError
	if errors.As(err, &spawnErr) {
		return SpawnFailureExitCode
	}
	return 1
}
