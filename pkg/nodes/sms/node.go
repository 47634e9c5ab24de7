package sms

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/nodes"
	"github.com/dukex/flowrun/pkg/runctx"
)

const (
	ProviderTwilio = "twilio"
	ProviderCustom = "custom"
)

var ErrMissingFields = errors.New("SMS requires: to and message")

// Node sends one SMS. to, message and from may come from the configuration
// or the input; configuration wins.
type Node struct {
	client *Client
	config models.SMSConfig
}

func NewNode(client *Client, config *models.SMSConfig) *Node {
	smsConfig := *config
	if smsConfig.Provider == "" {
		smsConfig.Provider = ProviderTwilio
	}

	return &Node{client: client, config: smsConfig}
}

func (n *Node) Execute(ctx context.Context, input map[string]any, _ *runctx.RunContext) (map[string]any, error) {
	to := nodes.FirstString(n.config.To, nodes.String(input, "to"))
	message := nodes.FirstString(n.config.Message, nodes.String(input, "message"))
	from := nodes.FirstString(n.config.From, nodes.String(input, "from"))

	if to == "" || message == "" {
		return nil, ErrMissingFields
	}

	switch n.config.Provider {
	case ProviderTwilio:
		sid, err := n.client.SendTwilio(ctx, n.config.TwilioAccountSID, n.config.TwilioAuthToken, Message{
			To:   to,
			Body: message,
			From: nodes.FirstString(from, n.config.TwilioFromNumber),
		})
		if err != nil {
			return nil, err
		}

		return map[string]any{"success": true, "sid": sid, "messageId": sid}, nil
	case ProviderCustom:
		id, err := n.client.SendCustom(ctx, n.config.CustomEndpoint, n.config.CustomAPIKey, Message{
			To:   to,
			Body: message,
			From: from,
		})
		if err != nil {
			return nil, err
		}

		return map[string]any{"success": true, "messageId": id}, nil
	default:
		return nil, fmt.Errorf("Unsupported SMS provider: %s", n.config.Provider)
	}
}
