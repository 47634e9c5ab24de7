package email

import (
	"context"
	"errors"
	"strings"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/nodes"
	"github.com/dukex/flowrun/pkg/runctx"
)

var ErrMissingFields = errors.New("Email requires: to, subject, and body")

// Node sends one email. Recipient, subject, body and sender may come from
// the node configuration or from the input; configuration wins.
type Node struct {
	sender   Sender
	config   models.EmailConfig
	defaults SMTPSettings
}

func NewNode(sender Sender, config *models.EmailConfig, defaults SMTPSettings) *Node {
	return &Node{sender: sender, config: *config, defaults: defaults}
}

func (n *Node) Execute(ctx context.Context, input map[string]any, _ *runctx.RunContext) (map[string]any, error) {
	to := nodes.FirstString(n.config.To, nodes.String(input, "to"))
	subject := nodes.FirstString(n.config.Subject, nodes.String(input, "subject"))
	body := nodes.FirstString(n.config.Body, nodes.String(input, "body"))

	if to == "" || subject == "" || body == "" {
		return nil, ErrMissingFields
	}

	settings := SMTPSettings{
		Host:     n.config.SMTPHost,
		Port:     n.config.SMTPPort,
		User:     n.config.SMTPUser,
		Password: n.config.SMTPPassword,
		From:     nodes.FirstString(n.config.From, nodes.String(input, "from")),
		FromName: n.config.FromName,
	}.Merge(n.defaults)

	messageID, err := n.sender.Send(ctx, settings, Message{
		To:      splitAddresses(to),
		Cc:      n.config.Cc,
		Bcc:     n.config.Bcc,
		Subject: subject,
		Body:    body,
		HTML:    n.config.HTML,
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"success":   true,
		"messageId": messageID,
	}, nil
}

func splitAddresses(value string) []string {
	var addresses []string

	for _, part := range strings.Split(value, ",") {
		if address := strings.TrimSpace(part); address != "" {
			addresses = append(addresses, address)
		}
	}

	return addresses
}
