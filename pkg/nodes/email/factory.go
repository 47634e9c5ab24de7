package email

import (
	"context"
	"fmt"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/protocol"
)

type Factory struct {
	sender   Sender
	defaults SMTPSettings
}

// NewFactory returns a factory whose nodes fall back to defaults for any SMTP
// setting missing from their configuration.
func NewFactory(sender Sender, defaults SMTPSettings) protocol.NodeFactory {
	return &Factory{sender: sender, defaults: defaults}
}

func (f *Factory) Create(_ context.Context, node *models.Node) (protocol.Node, error) {
	config, err := models.DecodeConfig(node)
	if err != nil {
		return nil, err
	}

	emailConfig, ok := config.(*models.EmailConfig)
	if !ok {
		return nil, fmt.Errorf("unexpected config %T for %s", config, node.Type)
	}

	return NewNode(f.sender, emailConfig, f.defaults), nil
}

func (f *Factory) ID() models.NodeType {
	return models.NodeTypeEmail
}

func (f *Factory) Name() string {
	return "Email"
}

func (f *Factory) Description() string {
	return "Sends an email over SMTP"
}

func (f *Factory) Schema() map[string]any {
	stringList := map[string]any{"type": "array", "items": map[string]any{"type": "string"}}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"to":           map[string]any{"type": "string", "description": "Comma separated recipients"},
			"subject":      map[string]any{"type": "string"},
			"body":         map[string]any{"type": "string"},
			"html":         map[string]any{"type": "boolean", "default": false},
			"from":         map[string]any{"type": "string"},
			"fromName":     map[string]any{"type": "string"},
			"cc":           stringList,
			"bcc":          stringList,
			"provider":     map[string]any{"type": "string", "enum": []string{"smtp"}, "default": "smtp"},
			"smtpHost":     map[string]any{"type": "string"},
			"smtpPort":     map[string]any{"type": "integer", "minimum": 1, "maximum": 65535},
			"smtpUser":     map[string]any{"type": "string"},
			"smtpPassword": map[string]any{"type": "string"},
		},
	}
}
