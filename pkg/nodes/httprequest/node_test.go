package httprequest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNode_Execute_JSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/quotes/GME", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "abc", r.Header.Get("X-Request-Id"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.JSONEq(t, `{"symbol":"GME"}`, string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"price": 21.5}`))
	}))
	defer server.Close()

	node := NewNode(server.Client(), &models.HTTPConfig{
		URL:     server.URL + "/quotes/{{ticker}}",
		Method:  "post",
		Headers: map[string]string{"X-Request-Id": "{{requestId}}"},
		Body:    map[string]any{"symbol": "GME"},
	})

	output, err := node.Execute(context.Background(), map[string]any{"ticker": "GME", "requestId": "abc"}, nil)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, output["status"])
	assert.Equal(t, "OK", output["statusText"])
	assert.Equal(t, map[string]any{"price": 21.5}, output["data"])
}

func TestNode_Execute_TextAndErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("not here"))
	}))
	defer server.Close()

	output, err := NewNode(server.Client(), &models.HTTPConfig{URL: server.URL}).
		Execute(context.Background(), map[string]any{}, nil)
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, output["status"])
	assert.Equal(t, "Not Found", output["statusText"])
	assert.Equal(t, "not here", output["data"])
}

func TestNode_Execute_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewNode(http.DefaultClient, &models.HTTPConfig{URL: url}).
		Execute(context.Background(), map[string]any{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch failed")
}

func TestWebhookNode_Execute(t *testing.T) {
	var received map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	node := NewWebhookNode(server.Client(), &models.WebhookConfig{URL: server.URL})

	output, err := node.Execute(context.Background(), map[string]any{"payload": map[string]any{"ticker": "GME"}, "other": 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, output["status"])
	assert.Equal(t, true, output["sent"])
	assert.Equal(t, map[string]any{"ticker": "GME"}, received)

	received = nil

	_, err = node.Execute(context.Background(), map[string]any{"score": float64(63)}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"score": float64(63)}, received)
}

func TestFactory_RequiresURL(t *testing.T) {
	_, err := NewFactory(nil).Create(context.Background(), &models.Node{ID: "h", Type: models.NodeTypeHTTP})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "required")

	_, err = NewWebhookFactory(nil).Create(context.Background(), &models.Node{
		ID:     "w",
		Type:   models.NodeTypeWebhook,
		Config: map[string]any{"url": "http://example.com"},
	})
	assert.NoError(t, err)
}
