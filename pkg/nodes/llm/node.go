package llm

import (
	"context"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/runctx"
	"github.com/dukex/flowrun/pkg/template"
)

// Completer is the part of the gateway the node needs.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Node renders its prompts from the input and asks the gateway for a
// completion.
type Node struct {
	completer    Completer
	systemPrompt string
	userPrompt   string
	model        string
	temperature  float64
}

func NewNode(completer Completer, config *models.LLMConfig) *Node {
	model := config.Model
	if model == "" {
		model = DefaultModel
	}

	temperature := DefaultTemperature
	if config.Temperature != nil {
		temperature = *config.Temperature
	}

	return &Node{
		completer:    completer,
		systemPrompt: config.SystemPrompt,
		userPrompt:   config.UserPrompt,
		model:        model,
		temperature:  temperature,
	}
}

func (n *Node) Execute(ctx context.Context, input map[string]any, _ *runctx.RunContext) (map[string]any, error) {
	response, err := n.completer.Complete(ctx, Request{
		Model:        n.model,
		SystemPrompt: template.Resolve(n.systemPrompt, input),
		UserPrompt:   template.Resolve(n.userPrompt, input),
		Temperature:  n.temperature,
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"response": response,
		"model":    n.model,
	}, nil
}
