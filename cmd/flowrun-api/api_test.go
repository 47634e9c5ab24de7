package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dukex/flowrun/pkg/cmd"
	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/persistence/file"
	"github.com/dukex/flowrun/pkg/queue"
	"github.com/dukex/flowrun/pkg/runlog"
	"github.com/dukex/flowrun/pkg/services"
	"github.com/dukex/flowrun/pkg/web"
	"github.com/dukex/flowrun/pkg/worker"
	"github.com/dukex/flowrun/pkg/workflow"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	app    *fiber.App
	store  *file.Persistence
	jobs   *queue.Memory
	worker *worker.Worker
}

func setupTestAPI(t *testing.T) *testAPI {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := file.NewPersistence(t.TempDir())
	jobs := queue.NewMemory()

	registry, err := cmd.NewRegistry(t.Context(), logger, cmd.RegistryConfig{})
	require.NoError(t, err)

	executor := workflow.NewExecutor(logger, registry, store, runlog.New(store))

	return &testAPI{
		app:    NewAPI(logger, store, jobs, registry).App(),
		store:  store,
		jobs:   jobs,
		worker: worker.New(logger, jobs, store, executor, worker.WithConcurrency(2)),
	}
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return body
}

func TestAPI_RootEndpoint(t *testing.T) {
	api := setupTestAPI(t)

	resp, err := api.app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "flowrun API", string(readBody(t, resp)))
}

func TestAPI_Probes(t *testing.T) {
	api := setupTestAPI(t)

	for _, path := range []string{"/livez", "/readyz"} {
		resp, err := api.app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, "OK", string(readBody(t, resp)), path)
	}
}

func TestAPI_NodeTypesListsBuiltins(t *testing.T) {
	api := setupTestAPI(t)

	resp, err := api.app.Test(httptest.NewRequest(http.MethodGet, "/node-types", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var types []web.NodeTypeResponse
	require.NoError(t, json.Unmarshal(readBody(t, resp), &types))

	ids := make([]models.NodeType, 0, len(types))
	for _, nodeType := range types {
		ids = append(ids, nodeType.ID)
	}

	assert.Contains(t, ids, models.NodeTypeWebhookTrigger)
	assert.Contains(t, ids, models.NodeTypeLLM)
	assert.Contains(t, ids, models.NodeTypeMCP)
}

func TestAPI_WebhookRunEndToEnd(t *testing.T) {
	api := setupTestAPI(t)

	require.NoError(t, api.store.SaveFlowGraph(t.Context(), &models.FlowGraph{
		ID: "graph-1",
		Nodes: []*models.Node{
			{ID: "hook", Type: models.NodeTypeWebhookTrigger, Config: map[string]any{}},
			{ID: "pick", Type: models.NodeTypeTransform, Config: map[string]any{"type": "jsonpath", "path": "$.payload.body.ticker"}},
			{ID: "out", Type: models.NodeTypeOutput, Config: map[string]any{}},
		},
		Edges: []*models.Edge{
			{ID: "e1", From: "hook", To: "pick"},
			{ID: "e2", From: "pick", To: "out"},
		},
	}))
	require.NoError(t, api.store.SaveAgent(t.Context(), &models.Agent{
		ID:              "agent-1",
		WorkspaceID:     "ws-1",
		Name:            "Squeeze watcher",
		ActiveVersionID: "v1",
		FlowGraphID:     "graph-1",
	}))

	req := httptest.NewRequest(http.MethodPost, "/webhooks/agent-1", strings.NewReader(`{"ticker":"AMC"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := api.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var accepted web.WebhookResponse
	require.NoError(t, json.Unmarshal(readBody(t, resp), &accepted))

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)

	go func() {
		done <- api.worker.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		run, err := api.store.RunByID(t.Context(), accepted.RunID)

		return err == nil && run.Status == models.RunStatusSuccess
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	resp, err = api.app.Test(httptest.NewRequest(http.MethodGet, "/runs/"+accepted.RunID, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var run services.RunWithTrace
	require.NoError(t, json.Unmarshal(readBody(t, resp), &run))

	assert.Equal(t, models.RunStatusSuccess, run.Status)
	assert.Equal(t, models.TriggerTypeWebhook, run.TriggerType)
	require.Len(t, run.Nodes, 3)

	outputs := make(map[string]map[string]any, len(run.Nodes))
	for _, node := range run.Nodes {
		assert.Equal(t, models.RunNodeStatusSuccess, node.Status, node.NodeID)
		outputs[node.NodeID] = node.Output
	}

	assert.Equal(t, map[string]any{"value": "AMC"}, outputs["pick"])
	assert.Equal(t, map[string]any{"value": "AMC"}, outputs["out"]["result"])
}
