package httprequest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/protocol"
)

// DefaultTimeout bounds requests made with the default client.
const DefaultTimeout = 30 * time.Second

// Factory creates tool.http nodes.
type Factory struct {
	client *http.Client
}

// NewFactory returns a factory using client, or a client with DefaultTimeout
// when client is nil.
func NewFactory(client *http.Client) protocol.NodeFactory {
	return &Factory{client: defaultClient(client)}
}

func defaultClient(client *http.Client) *http.Client {
	if client != nil {
		return client
	}

	return &http.Client{Timeout: DefaultTimeout}
}

func (f *Factory) Create(_ context.Context, node *models.Node) (protocol.Node, error) {
	config, err := models.DecodeConfig(node)
	if err != nil {
		return nil, err
	}

	httpConfig, ok := config.(*models.HTTPConfig)
	if !ok {
		return nil, fmt.Errorf("unexpected config %T for %s", config, node.Type)
	}

	return NewNode(f.client, httpConfig), nil
}

func (f *Factory) ID() models.NodeType {
	return models.NodeTypeHTTP
}

func (f *Factory) Name() string {
	return "HTTP Request"
}

func (f *Factory) Description() string {
	return "Calls an HTTP endpoint and returns its status and decoded body"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "Target url. {{key}} placeholders are resolved from the input",
			},
			"method": map[string]any{
				"type":    "string",
				"enum":    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
				"default": "GET",
			},
			"headers": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "string"},
			},
			"body": map[string]any{
				"description": "Request body, sent as JSON",
			},
		},
		"required": []string{"url"},
	}
}

// WebhookFactory creates tool.webhook nodes.
type WebhookFactory struct {
	client *http.Client
}

func NewWebhookFactory(client *http.Client) protocol.NodeFactory {
	return &WebhookFactory{client: defaultClient(client)}
}

func (f *WebhookFactory) Create(_ context.Context, node *models.Node) (protocol.Node, error) {
	config, err := models.DecodeConfig(node)
	if err != nil {
		return nil, err
	}

	webhookConfig, ok := config.(*models.WebhookConfig)
	if !ok {
		return nil, fmt.Errorf("unexpected config %T for %s", config, node.Type)
	}

	return NewWebhookNode(f.client, webhookConfig), nil
}

func (f *WebhookFactory) ID() models.NodeType {
	return models.NodeTypeWebhook
}

func (f *WebhookFactory) Name() string {
	return "Webhook"
}

func (f *WebhookFactory) Description() string {
	return "POSTs its input payload as JSON to a url"
}

func (f *WebhookFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{"type": "string"},
		},
		"required": []string{"url"},
	}
}
