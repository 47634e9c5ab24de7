package persistence_test

import (
	"errors"
	"testing"

	"github.com/dukex/flowrun/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error checking functions work correctly", func(t *testing.T) {
		runErr := persistence.NewRunError("UpdateRunStatus", "run-123", persistence.ErrRunNotFound)

		assert.True(t, persistence.IsRunNotFound(runErr))
		assert.False(t, persistence.IsAgentNotFound(runErr))
		assert.True(t, errors.Is(runErr, persistence.ErrRunNotFound))
		assert.True(t, persistence.IsFlowGraphNotFound(persistence.ErrFlowGraphNotFound))
		assert.True(t, persistence.IsRunNodeNotFound(persistence.ErrRunNodeNotFound))
	})

	t.Run("run error contains context", func(t *testing.T) {
		err := persistence.NewRunError("UpdateRunStatus", "run-123", persistence.ErrRunNotFound)

		assert.Contains(t, err.Error(), "UpdateRunStatus")
		assert.Contains(t, err.Error(), "run-123")
		assert.Contains(t, err.Error(), "run not found")
	})
}
