package workflow

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/redact"
	"github.com/dukex/flowrun/pkg/registry"
)

// ErrorKind groups run failures by cause.
type ErrorKind string

const (
	KindNetwork         ErrorKind = "network"
	KindTimeout         ErrorKind = "timeout"
	KindAuth            ErrorKind = "auth"
	KindGeneric         ErrorKind = "generic"
	KindHandlerNotFound ErrorKind = "handler_not_found"
	KindInvalidGraph    ErrorKind = "invalid_graph"
	KindInvalidConfig   ErrorKind = "invalid_config"
)

// RunError is returned by ExecuteRun when a run fails. Message is the
// sanitized text stored on the run.
type RunError struct {
	RunID     string
	Kind      ErrorKind
	Message   string
	Retryable bool
	Err       error
}

func (e *RunError) Error() string {
	return e.Message
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a run failure worth another attempt.
func IsRetryable(err error) bool {
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr.Retryable
	}

	return false
}

// classify turns a run failure into its stored message and retry class.
func classify(runID string, err error) *RunError {
	message := rootMessage(err)

	runErr := &RunError{RunID: runID, Err: err, Retryable: true}

	var netErr net.Error

	switch {
	case errors.Is(err, registry.ErrHandlerNotFound):
		runErr.Kind, runErr.Retryable = KindHandlerNotFound, false
		runErr.Message = "Run failed: " + message
	case errors.Is(err, errInvalidGraph):
		runErr.Kind, runErr.Retryable = KindInvalidGraph, false
		runErr.Message = "Run failed: " + message
	case errors.Is(err, models.ErrInvalidConfig), errors.Is(err, models.ErrInvalidSchedule):
		runErr.Kind, runErr.Retryable = KindInvalidConfig, false
		runErr.Message = "Run failed: " + message
	case strings.Contains(message, "API"), strings.Contains(message, "fetch"),
		errors.As(err, &netErr) && !netErr.Timeout():
		runErr.Kind = KindNetwork
		runErr.Message = "External API call failed: " + message
	case strings.Contains(message, "timeout"), errors.Is(err, context.DeadlineExceeded):
		runErr.Kind = KindTimeout
		runErr.Message = "Operation timed out: " + message
	case strings.Contains(message, "authentication"), strings.Contains(message, "unauthorized"):
		runErr.Kind, runErr.Retryable = KindAuth, false
		runErr.Message = fmt.Sprintf("Authentication failed: %s. Please check your API credentials.", message)
	default:
		runErr.Kind = KindGeneric
		runErr.Message = "Run failed: " + message
	}

	runErr.Message = redact.Message(runErr.Message)

	return runErr
}

// formatNodeError builds the message stored on a failed run node.
func formatNodeError(node *models.Node, err error) string {
	name := node.DisplayName()
	message := rootMessage(err)

	switch {
	case strings.Contains(message, "required"):
		return fmt.Sprintf("%s: Missing required configuration. %s", name, message)
	case strings.Contains(message, "API"), strings.Contains(message, "fetch"):
		return fmt.Sprintf("%s: API call failed. %s", name, message)
	case strings.Contains(message, "timeout"):
		return fmt.Sprintf("%s: Operation timed out. %s", name, message)
	default:
		return fmt.Sprintf("%s: %s", name, message)
	}
}

// nodeFailure marks an error already logged against the node that raised it,
// so ancestors pass it through untouched.
type nodeFailure struct {
	nodeID string
	err    error
}

func (f *nodeFailure) Error() string {
	return f.err.Error()
}

func (f *nodeFailure) Unwrap() error {
	return f.err
}

func rootMessage(err error) string {
	var failure *nodeFailure
	if errors.As(err, &failure) {
		err = failure.err
	}

	if err == nil || err.Error() == "" {
		return "Unknown error"
	}

	return err.Error()
}
