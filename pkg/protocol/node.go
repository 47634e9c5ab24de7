// Package protocol defines the contracts between the executor and pluggable node handlers.
package protocol

import (
	"context"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/runctx"
)

// Node is a handler bound to one configured graph node.
type Node interface {
	// Execute runs the node against its merged input. Handlers must return an
	// error for missing configuration or failed upstream calls.
	Execute(ctx context.Context, input map[string]any, rc *runctx.RunContext) (map[string]any, error)
}

// NodeFactory builds handlers for one node type and describes that type.
type NodeFactory interface {
	// Create binds a handler to node. It must not modify node.
	Create(ctx context.Context, node *models.Node) (Node, error)

	// ID returns the node type this factory handles.
	ID() models.NodeType

	// Name returns the human-readable name for this node type.
	Name() string

	// Description returns a description of what this node does.
	Description() string

	// Schema returns the JSON schema of the node configuration.
	Schema() map[string]any
}

// NodeFunc adapts a function to Node.
type NodeFunc func(ctx context.Context, input map[string]any, rc *runctx.RunContext) (map[string]any, error)

func (f NodeFunc) Execute(ctx context.Context, input map[string]any, rc *runctx.RunContext) (map[string]any, error) {
	return f(ctx, input, rc)
}
