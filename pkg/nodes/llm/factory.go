package llm

import (
	"context"
	"fmt"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/protocol"
)

type Factory struct {
	completer Completer
}

func NewFactory(completer Completer) protocol.NodeFactory {
	return &Factory{completer: completer}
}

func (f *Factory) Create(_ context.Context, node *models.Node) (protocol.Node, error) {
	config, err := models.DecodeConfig(node)
	if err != nil {
		return nil, err
	}

	llmConfig, ok := config.(*models.LLMConfig)
	if !ok {
		return nil, fmt.Errorf("unexpected config %T for %s", config, node.Type)
	}

	return NewNode(f.completer, llmConfig), nil
}

func (f *Factory) ID() models.NodeType {
	return models.NodeTypeLLM
}

func (f *Factory) Name() string {
	return "LLM"
}

func (f *Factory) Description() string {
	return "Sends templated prompts to an OpenAI or Gemini model"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"systemPrompt": map[string]any{"type": "string"},
			"userPrompt": map[string]any{
				"type":        "string",
				"description": "{{key}} placeholders are resolved from the input",
				"examples":    []string{"Summarize the following in one sentence: {{input}}"},
			},
			"model": map[string]any{
				"type":     "string",
				"default":  DefaultModel,
				"examples": []string{"gpt-4o-mini", "gemini-2.0-flash"},
			},
			"temperature": map[string]any{
				"type":    "number",
				"minimum": 0,
				"maximum": 2,
				"default": DefaultTemperature,
			},
		},
	}
}
