package transform

import (
	"context"
	"fmt"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/protocol"
)

// Factory creates transform nodes.
type Factory struct{}

func NewFactory() protocol.NodeFactory {
	return &Factory{}
}

func (f *Factory) Create(_ context.Context, node *models.Node) (protocol.Node, error) {
	config, err := models.DecodeConfig(node)
	if err != nil {
		return nil, err
	}

	transformConfig, ok := config.(*models.TransformConfig)
	if !ok {
		return nil, fmt.Errorf("unexpected config %T for %s", config, node.Type)
	}

	return NewNode(transformConfig), nil
}

func (f *Factory) ID() models.NodeType {
	return models.NodeTypeTransform
}

func (f *Factory) Name() string {
	return "Transform"
}

func (f *Factory) Description() string {
	return "Maps fields, selects a path or computes the squeeze score of its input"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type": map[string]any{
				"type": "string",
				"enum": []string{
					models.TransformPassThrough,
					models.TransformMapFields,
					models.TransformJSONPath,
					models.TransformSqueezeScore,
				},
				"default": models.TransformPassThrough,
			},
			"mapping": map[string]any{
				"type":                 "object",
				"description":          "Output field to input field",
				"additionalProperties": map[string]any{"type": "string"},
			},
			"path": map[string]any{
				"type":        "string",
				"description": "Dotted path such as $.data.price",
			},
		},
	}
}
