package httprequest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/nodes"
	"github.com/dukex/flowrun/pkg/runctx"
)

// WebhookNode POSTs the input payload to a fixed url.
type WebhookNode struct {
	client *http.Client
	url    string
}

func NewWebhookNode(client *http.Client, config *models.WebhookConfig) *WebhookNode {
	return &WebhookNode{client: client, url: config.URL}
}

// Execute sends input.payload when present and the whole input otherwise.
func (n *WebhookNode) Execute(ctx context.Context, input map[string]any, _ *runctx.RunContext) (map[string]any, error) {
	var payload any = input
	if value, ok := input["payload"]; ok && nodes.Truthy(value) {
		payload = value
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	return map[string]any{
		"status": resp.StatusCode,
		"sent":   resp.StatusCode >= 200 && resp.StatusCode < 300,
	}, nil
}
