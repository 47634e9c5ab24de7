// Package transform reshapes node input: field mapping, path selection and
// squeeze scoring.
package transform

import (
	"context"
	"maps"
	"strings"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/runctx"
)

// Node applies one transform kind to its input.
type Node struct {
	kind    string
	mapping map[string]string
	path    string
}

func NewNode(config *models.TransformConfig) *Node {
	kind := config.Type
	if kind == "" {
		kind = models.TransformPassThrough
	}

	return &Node{kind: kind, mapping: config.Mapping, path: config.Path}
}

// Execute returns the input unchanged for pass-through and unknown kinds.
func (n *Node) Execute(_ context.Context, input map[string]any, _ *runctx.RunContext) (map[string]any, error) {
	switch n.kind {
	case models.TransformMapFields:
		output := make(map[string]any, len(n.mapping))
		for outputKey, inputKey := range n.mapping {
			output[outputKey] = input[inputKey]
		}

		return output, nil
	case models.TransformJSONPath:
		return n.selectPath(input), nil
	case models.TransformSqueezeScore:
		return CalculateSqueezeScore(SqueezeInputsFrom(input)).Output(), nil
	default:
		return maps.Clone(input), nil
	}
}

// selectPath supports the dotted "$.a.b" subset of JSONPath. A missing
// segment yields an empty output; a path without "$." returns the input.
func (n *Node) selectPath(input map[string]any) map[string]any {
	if !strings.HasPrefix(n.path, "$.") {
		return maps.Clone(input)
	}

	var value any = input

	for _, key := range strings.Split(n.path[2:], ".") {
		object, ok := value.(map[string]any)
		if !ok {
			return map[string]any{}
		}

		value, ok = object[key]
		if !ok {
			return map[string]any{}
		}
	}

	return map[string]any{"value": value}
}
