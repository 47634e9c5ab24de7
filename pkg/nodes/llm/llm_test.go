package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Complete(ctx context.Context, req Request) (string, error) {
	args := m.Called(ctx, req)

	return args.String(0), args.Error(1)
}

func TestGateway_Routing(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		model         string
		expectOpenAI  string
		expectGemini  string
		withoutOpenAI bool
		expectedErr   error
	}{
		{name: "gpt", model: "gpt-4o-mini", expectOpenAI: "gpt-4o-mini"},
		{name: "openai prefix", model: "openai/latest", expectOpenAI: DefaultModel},
		{name: "gemini", model: "gemini-1.5-pro", expectGemini: "gemini-1.5-pro"},
		{name: "google prefix", model: "google-best", expectGemini: DefaultGeminiModel},
		{name: "unknown falls back to openai", model: "claude-x", expectOpenAI: DefaultModel},
		{name: "unknown without openai", model: "claude-x", withoutOpenAI: true, expectedErr: ErrNoProvider},
		{name: "gpt without openai", model: "gpt-4", withoutOpenAI: true, expectedErr: ErrOpenAINotConfigured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			openAI := &mockProvider{}
			gemini := &mockProvider{}

			if tt.expectOpenAI != "" {
				openAI.On("Complete", ctx, mock.MatchedBy(func(req Request) bool {
					return req.Model == tt.expectOpenAI
				})).Return("from openai", nil)
			}

			if tt.expectGemini != "" {
				gemini.On("Complete", ctx, mock.MatchedBy(func(req Request) bool {
					return req.Model == tt.expectGemini
				})).Return("from gemini", nil)
			}

			var gateway *Gateway
			if tt.withoutOpenAI {
				gateway = NewGateway(nil, gemini)
			} else {
				gateway = NewGateway(openAI, gemini)
			}

			response, err := gateway.Complete(ctx, Request{Model: tt.model, UserPrompt: "hi"})

			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)

				return
			}

			require.NoError(t, err)

			if tt.expectOpenAI != "" {
				assert.Equal(t, "from openai", response)
			} else {
				assert.Equal(t, "from gemini", response)
			}

			openAI.AssertExpectations(t)
			gemini.AssertExpectations(t)
		})
	}
}

func TestGateway_NoProviderMessage(t *testing.T) {
	_, err := NewGateway(nil, nil).Complete(context.Background(), Request{Model: "mistral"})

	require.Error(t, err)
	assert.Equal(t, "No LLM provider available for model: mistral", err.Error())
}

func TestNode_Execute(t *testing.T) {
	provider := &mockProvider{}
	provider.On("Complete", mock.Anything, Request{
		Model:        "gpt-4o-mini",
		SystemPrompt: "You rate GME",
		UserPrompt:   "Posts: 3 new",
		Temperature:  0,
	}).Return("bullish", nil)

	zero := 0.0
	node := NewNode(NewGateway(provider, nil), &models.LLMConfig{
		SystemPrompt: "You rate {{ticker}}",
		UserPrompt:   "Posts: {{count}} new",
		Model:        "gpt-4o-mini",
		Temperature:  &zero,
	})

	output, err := node.Execute(context.Background(), map[string]any{"ticker": "GME", "count": float64(3)}, nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"response": "bullish", "model": "gpt-4o-mini"}, output)
	provider.AssertExpectations(t)
}

func TestNode_Defaults(t *testing.T) {
	node := NewNode(nil, &models.LLMConfig{})

	assert.Equal(t, DefaultModel, node.model)
	assert.InDelta(t, DefaultTemperature, node.temperature, 1e-9)
}

func TestOpenAIProvider_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body["model"])
		assert.Len(t, body["messages"], 2)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "hello"}}]
		}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider("test-key", server.URL)

	response, err := provider.Complete(context.Background(), Request{
		Model:        "gpt-4o-mini",
		SystemPrompt: "be brief",
		UserPrompt:   "hi",
		Temperature:  0.7,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", response)
}

func TestOpenAIProvider_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider("test-key", server.URL, option.WithMaxRetries(0))

	_, err := provider.Complete(context.Background(), Request{Model: "gpt-4", UserPrompt: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OpenAI API request failed")
}
