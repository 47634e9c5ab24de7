package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrRunNotFound indicates a run was not found by the given identifier.
	ErrRunNotFound = errors.New("run not found")

	// ErrRunNodeNotFound indicates a run node was not found by the given identifier.
	ErrRunNodeNotFound = errors.New("run node not found")

	// ErrAgentNotFound indicates an agent was not found by the given identifier.
	ErrAgentNotFound = errors.New("agent not found")

	// ErrFlowGraphNotFound indicates a flow graph was not found by the given identifier.
	ErrFlowGraphNotFound = errors.New("flow graph not found")

	// ErrRunAlreadyExists indicates a run with the same identifier already exists.
	ErrRunAlreadyExists = errors.New("run already exists")
)

// RunError wraps run-related errors with the operation and run involved.
type RunError struct {
	Op    string
	RunID string
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s operation failed for run %s: %v", e.Op, e.RunID, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

func NewRunError(op, runID string, err error) *RunError {
	return &RunError{Op: op, RunID: runID, Err: err}
}

// IsRunNotFound checks if an error indicates a run was not found.
func IsRunNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound)
}

// IsRunNodeNotFound checks if an error indicates a run node was not found.
func IsRunNodeNotFound(err error) bool {
	return errors.Is(err, ErrRunNodeNotFound)
}

// IsAgentNotFound checks if an error indicates an agent was not found.
func IsAgentNotFound(err error) bool {
	return errors.Is(err, ErrAgentNotFound)
}

// IsFlowGraphNotFound checks if an error indicates a flow graph was not found.
func IsFlowGraphNotFound(err error) bool {
	return errors.Is(err, ErrFlowGraphNotFound)
}
