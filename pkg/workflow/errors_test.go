package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/registry"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		kind      ErrorKind
		retryable bool
		message   string
	}{
		{
			name:      "api error",
			err:       errors.New("Gemini API error: 503 Service Unavailable"),
			kind:      KindNetwork,
			retryable: true,
			message:   "External API call failed: Gemini API error: 503 Service Unavailable",
		},
		{
			name:      "fetch error",
			err:       errors.New("fetch failed: connection refused"),
			kind:      KindNetwork,
			retryable: true,
			message:   "External API call failed: fetch failed: connection refused",
		},
		{
			name:      "timeout text",
			err:       errors.New("request timeout after 30s"),
			kind:      KindTimeout,
			retryable: true,
			message:   "Operation timed out: request timeout after 30s",
		},
		{
			name:      "deadline",
			err:       fmt.Errorf("calling tool: %w", context.DeadlineExceeded),
			kind:      KindTimeout,
			retryable: true,
			message:   "Operation timed out: calling tool: context deadline exceeded",
		},
		{
			name:      "unauthorized",
			err:       errors.New("request unauthorized"),
			kind:      KindAuth,
			retryable: false,
			message:   "Authentication failed: request unauthorized. Please check your API credentials.",
		},
		{
			name:      "generic",
			err:       errors.New("Template is required"),
			kind:      KindGeneric,
			retryable: true,
			message:   "Run failed: Template is required",
		},
		{
			name:      "empty message",
			err:       errors.New(""),
			kind:      KindGeneric,
			retryable: true,
			message:   "Run failed: Unknown error",
		},
		{
			name:      "handler not found",
			err:       fmt.Errorf("%w: tool.fax", registry.ErrHandlerNotFound),
			kind:      KindHandlerNotFound,
			retryable: false,
			message:   "Run failed: No handler found for node type: tool.fax",
		},
		{
			name:      "invalid config",
			err:       fmt.Errorf("failed to create handler for node n: %w", models.ErrInvalidConfig),
			kind:      KindInvalidConfig,
			retryable: false,
		},
		{
			name:      "wrapped node failure",
			err:       &nodeFailure{nodeID: "n", err: errors.New("Twilio API error: 400 Bad Request")},
			kind:      KindNetwork,
			retryable: true,
			message:   "External API call failed: Twilio API error: 400 Bad Request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runErr := classify("run-1", tt.err)

			assert.Equal(t, "run-1", runErr.RunID)
			assert.Equal(t, tt.kind, runErr.Kind)
			assert.Equal(t, tt.retryable, runErr.Retryable)
			assert.ErrorIs(t, runErr, tt.err)

			if tt.message != "" {
				assert.Equal(t, tt.message, runErr.Message)
				assert.EqualError(t, runErr, tt.message)
			}
		})
	}
}

func TestFormatNodeError(t *testing.T) {
	labeled := &models.Node{ID: "n1", Type: models.NodeTypeLLM, Label: "Summarize"}
	unlabeled := &models.Node{ID: "n2", Type: models.NodeTypeSMS}

	tests := []struct {
		name     string
		node     *models.Node
		err      error
		expected string
	}{
		{"missing config", labeled, errors.New("Prompt is required"), "Summarize: Missing required configuration. Prompt is required"},
		{"api", labeled, errors.New("OpenAI API error: 429 Too Many Requests"), "Summarize: API call failed. OpenAI API error: 429 Too Many Requests"},
		{"timeout", unlabeled, errors.New("dial timeout"), "n2: Operation timed out. dial timeout"},
		{"other", unlabeled, errors.New("boom"), "n2: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatNodeError(tt.node, tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", &RunError{Retryable: true})))
}
