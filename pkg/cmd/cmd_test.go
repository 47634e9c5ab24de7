package cmd

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dukex/flowrun/pkg/channels/kafka"
	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/persistence/file"
	"github.com/dukex/flowrun/pkg/persistence/sqlite"
	"github.com/dukex/flowrun/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewPersistence(t *testing.T) {
	t.Run("file url", func(t *testing.T) {
		store, err := NewPersistence(t.Context(), discard(), "file://"+t.TempDir())
		require.NoError(t, err)
		assert.IsType(t, &file.Persistence{}, store)
	})

	t.Run("bare path", func(t *testing.T) {
		store, err := NewPersistence(t.Context(), discard(), t.TempDir())
		require.NoError(t, err)
		assert.IsType(t, &file.Persistence{}, store)
	})

	t.Run("sqlite", func(t *testing.T) {
		store, err := NewPersistence(t.Context(), discard(), "sqlite://"+filepath.Join(t.TempDir(), "flowrun.db"))
		require.NoError(t, err)
		assert.IsType(t, &sqlite.Persistence{}, store)
		require.NoError(t, store.HealthCheck(t.Context()))
		require.NoError(t, store.Close(t.Context()))
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := NewPersistence(t.Context(), discard(), "mongodb://localhost")
		require.ErrorIs(t, err, ErrUnsupportedProvider)
	})
}

func TestNewQueue(t *testing.T) {
	jobs, err := NewQueue(t.Context(), "memory://")
	require.NoError(t, err)
	assert.IsType(t, &queue.Memory{}, jobs)

	jobs, err = NewQueue(t.Context(), "")
	require.NoError(t, err)
	assert.IsType(t, &queue.Memory{}, jobs)

	_, err = NewQueue(t.Context(), "amqp://localhost")
	require.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestNewEventBus(t *testing.T) {
	bus, err := NewEventBus("gochannel", "", "flowrun-test", discard())
	require.NoError(t, err)
	require.NoError(t, bus.Close())

	_, err = NewEventBus("kafka", " , ", "flowrun-test", discard())
	require.ErrorIs(t, err, kafka.ErrNoBrokers)

	_, err = NewEventBus("rabbitmq", "", "flowrun-test", discard())
	require.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestNewRegistry(t *testing.T) {
	reg, err := NewRegistry(t.Context(), discard(), RegistryConfig{})
	require.NoError(t, err)

	assert.ElementsMatch(t, []models.NodeType{
		models.NodeTypeScheduleTrigger,
		models.NodeTypeWebhookTrigger,
		models.NodeTypeLLM,
		models.NodeTypeTransform,
		models.NodeTypeCondition,
		models.NodeTypeHTTP,
		models.NodeTypeWebhook,
		models.NodeTypeEmail,
		models.NodeTypeSMS,
		models.NodeTypeFeed,
		models.NodeTypeMarketData,
		models.NodeTypeMCP,
		models.NodeTypeOutput,
	}, reg.Types())
}

func TestNewRegistry_LoadsMCPServers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "servers.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"search","url":"http://localhost:9000/mcp"}]`), 0o600))

	_, err := NewRegistry(t.Context(), discard(), RegistryConfig{MCPServersFile: path})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"search"}]`), 0o600))

	_, err = NewRegistry(t.Context(), discard(), RegistryConfig{MCPServersFile: path})
	require.Error(t, err)
}
