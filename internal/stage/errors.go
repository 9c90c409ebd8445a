package stage

import (
	"errors"
	"fmt"
)

var (
	// ErrSpawnFailure reports a process that could not be started.
	ErrSpawnFailure = errors.New("spawn failure")
	// ErrExitFailure reports a process that exited nonzero.
	ErrExitFailure = errors.New("process exited with failure")
	// ErrTimeout reports a process killed after its own timeout elapsed.
	ErrTimeout = errors.New("process timed out")
)

// SpawnError carries the binary that failed to start and install guidance.
type SpawnError struct {
	Binary   string
	Guidance string
	Err      error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("start %s: %v", e.Binary, e.Err)
}

// Unwrap exposes both ErrSpawnFailure and the underlying cause.
func (e *SpawnError) Unwrap() []error { return []error{ErrSpawnFailure, e.Err} }

// ExitError is returned by Check for a nonzero exit.
type ExitError struct {
	Command string
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Command, e.Code)
}

func (e *ExitError) Is(target error) bool { return target == ErrExitFailure }

// Check converts a nonzero exit status into an *ExitError.
func Check(cmd Command, status ExitStatus) error {
	if status.Success() {
		return nil
	}
	name := cmd.Name
	if name == "" {
		name = cmd.Binary
	}
	return &ExitError{Command: name, Code: status.Code}
}
