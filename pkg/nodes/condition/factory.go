package condition

import (
	"context"
	"fmt"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/protocol"
)

type Factory struct{}

func NewFactory() protocol.NodeFactory {
	return &Factory{}
}

func (f *Factory) Create(_ context.Context, node *models.Node) (protocol.Node, error) {
	config, err := models.DecodeConfig(node)
	if err != nil {
		return nil, err
	}

	conditionConfig, ok := config.(*models.ConditionConfig)
	if !ok {
		return nil, fmt.Errorf("unexpected config %T for %s", config, node.Type)
	}

	return NewNode(conditionConfig), nil
}

func (f *Factory) ID() models.NodeType {
	return models.NodeTypeCondition
}

func (f *Factory) Name() string {
	return "Condition"
}

func (f *Factory) Description() string {
	return "Compares an input field against a value and reports the result"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"field": map[string]any{
				"type":        "string",
				"description": "Input field to test",
			},
			"operator": map[string]any{
				"type":    "string",
				"enum":    []string{OpEqual, OpNotEqual, OpGreater, OpLess, OpGreaterOrEqual, OpLessOrEqual, OpContains, OpRegex, "truthy"},
				"default": OpEqual,
			},
			"value": map[string]any{
				"description": "Value compared against the field",
			},
		},
	}
}
