package sms

import (
	"context"
	"fmt"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/protocol"
)

type Factory struct {
	client *Client
}

func NewFactory(client *Client) protocol.NodeFactory {
	return &Factory{client: client}
}

func (f *Factory) Create(_ context.Context, node *models.Node) (protocol.Node, error) {
	config, err := models.DecodeConfig(node)
	if err != nil {
		return nil, err
	}

	smsConfig, ok := config.(*models.SMSConfig)
	if !ok {
		return nil, fmt.Errorf("unexpected config %T for %s", config, node.Type)
	}

	return NewNode(f.client, smsConfig), nil
}

func (f *Factory) ID() models.NodeType {
	return models.NodeTypeSMS
}

func (f *Factory) Name() string {
	return "SMS"
}

func (f *Factory) Description() string {
	return "Sends a text message through Twilio or a custom gateway"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"to":               map[string]any{"type": "string"},
			"message":          map[string]any{"type": "string"},
			"from":             map[string]any{"type": "string"},
			"provider":         map[string]any{"type": "string", "enum": []string{ProviderTwilio, ProviderCustom}, "default": ProviderTwilio},
			"twilioAccountSid": map[string]any{"type": "string"},
			"twilioAuthToken":  map[string]any{"type": "string"},
			"twilioFromNumber": map[string]any{"type": "string"},
			"customEndpoint":   map[string]any{"type": "string"},
			"customApiKey":     map[string]any{"type": "string"},
		},
	}
}
