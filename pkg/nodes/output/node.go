// Package output provides the terminal node that records the flow result.
package output

import (
	"context"
	"maps"
	"time"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/nodes"
	"github.com/dukex/flowrun/pkg/protocol"
	"github.com/dukex/flowrun/pkg/runctx"
)

type Node struct {
	now nodes.Clock
}

func NewNode(now nodes.Clock) *Node {
	return &Node{now: now}
}

func (n *Node) Execute(_ context.Context, input map[string]any, _ *runctx.RunContext) (map[string]any, error) {
	return map[string]any{
		"result":    maps.Clone(input),
		"completed": true,
		"timestamp": nodes.Timestamp(n.now()),
	}, nil
}

type Factory struct {
	now nodes.Clock
}

func NewFactory() protocol.NodeFactory {
	return &Factory{now: time.Now}
}

func (f *Factory) Create(_ context.Context, node *models.Node) (protocol.Node, error) {
	if _, err := models.DecodeConfig(node); err != nil {
		return nil, err
	}

	return NewNode(f.now), nil
}

func (f *Factory) ID() models.NodeType {
	return models.NodeTypeOutput
}

func (f *Factory) Name() string {
	return "Output"
}

func (f *Factory) Description() string {
	return "Records its input as the final result of the run"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{"type": "object"}
}
