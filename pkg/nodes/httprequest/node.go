// Package httprequest provides the generic HTTP call and outgoing webhook nodes.
package httprequest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/nodes"
	"github.com/dukex/flowrun/pkg/runctx"
	"github.com/dukex/flowrun/pkg/template"
)

// Node performs one HTTP request. Non-2xx responses are returned as output,
// only transport failures are errors.
type Node struct {
	client *http.Client
	config models.HTTPConfig
}

func NewNode(client *http.Client, config *models.HTTPConfig) *Node {
	httpConfig := *config
	if httpConfig.Method == "" {
		httpConfig.Method = http.MethodGet
	}

	return &Node{client: client, config: httpConfig}
}

// Execute resolves {{key}} placeholders in the url, headers and string body
// against the input before sending.
func (n *Node) Execute(ctx context.Context, input map[string]any, _ *runctx.RunContext) (map[string]any, error) {
	url := template.Resolve(n.config.URL, input)

	var body io.Reader

	if nodes.Truthy(n.config.Body) {
		payload := n.config.Body
		if text, ok := payload.(string); ok {
			payload = template.Resolve(text, input)
		}

		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}

		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(n.config.Method), url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	for key, value := range n.config.Headers {
		req.Header.Set(key, template.Resolve(value, input))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: reading response: %w", err)
	}

	return map[string]any{
		"status":     resp.StatusCode,
		"statusText": http.StatusText(resp.StatusCode),
		"data":       decodeBody(respBody),
	}, nil
}

// decodeBody returns the JSON value of body, or its text when it is not JSON.
func decodeBody(body []byte) any {
	var data any
	if err := json.Unmarshal(body, &data); err == nil {
		return data
	}

	return string(body)
}
