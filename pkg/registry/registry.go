// Package registry maps node types to the factories that build their handlers.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/protocol"
	"github.com/xeipuuv/gojsonschema"
)

var (
	// ErrHandlerNotFound is returned for node types without a registered factory.
	ErrHandlerNotFound = errors.New("No handler found for node type")

	// ErrInvalidNodeConfig is returned when a node configuration fails its schema.
	ErrInvalidNodeConfig = errors.New("invalid node configuration")
)

// Registry holds the node factories available to one process. It is built at
// startup and handed to the executor; it is not safe to register factories
// while handlers are being resolved.
type Registry struct {
	logger    *slog.Logger
	factories map[models.NodeType]protocol.NodeFactory
}

func New(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger.With("module", "registry"),
		factories: make(map[models.NodeType]protocol.NodeFactory),
	}
}

// Register adds factory, replacing any factory registered for the same type.
func (r *Registry) Register(factory protocol.NodeFactory) {
	if _, exists := r.factories[factory.ID()]; exists {
		r.logger.Warn("Replacing node factory", "node_type", factory.ID())
	}

	r.factories[factory.ID()] = factory
}

// Factory returns the factory registered for nodeType.
func (r *Registry) Factory(nodeType models.NodeType) (protocol.NodeFactory, bool) {
	factory, ok := r.factories[nodeType]

	return factory, ok
}

// Handler binds a handler to node.
func (r *Registry) Handler(ctx context.Context, node *models.Node) (protocol.Node, error) {
	factory, ok := r.factories[node.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, node.Type)
	}

	handler, err := factory.Create(ctx, node)
	if err != nil {
		return nil, fmt.Errorf("failed to create handler for node %s: %w", node.ID, err)
	}

	return handler, nil
}

// Types returns the registered node types in lexical order.
func (r *Registry) Types() []models.NodeType {
	types := make([]models.NodeType, 0, len(r.factories))
	for nodeType := range r.factories {
		types = append(types, nodeType)
	}

	slices.Sort(types)

	return types
}

// Factories returns the registered factories ordered by type.
func (r *Registry) Factories() []protocol.NodeFactory {
	factories := make([]protocol.NodeFactory, 0, len(r.factories))
	for _, nodeType := range r.Types() {
		factories = append(factories, r.factories[nodeType])
	}

	return factories
}

// ValidateConfig checks node.Config against the JSON schema of its factory.
func (r *Registry) ValidateConfig(node *models.Node) error {
	factory, ok := r.factories[node.Type]
	if !ok {
		return fmt.Errorf("%w: %s", ErrHandlerNotFound, node.Type)
	}

	schema := factory.Schema()
	if len(schema) == 0 {
		return nil
	}

	config := node.Config
	if config == nil {
		config = map[string]any{}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(config))
	if err != nil {
		return fmt.Errorf("failed to validate config of node %s: %w", node.ID, err)
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, resultError := range result.Errors() {
			problems = append(problems, resultError.String())
		}

		return fmt.Errorf("%w: node %s: %s", ErrInvalidNodeConfig, node.ID, strings.Join(problems, "; "))
	}

	return nil
}

// ValidateGraph checks the graph structure and that every node has a
// registered handler with a valid configuration.
func (r *Registry) ValidateGraph(graph *models.FlowGraph) error {
	if err := graph.Validate(); err != nil {
		return err
	}

	for _, node := range graph.Nodes {
		if err := r.ValidateConfig(node); err != nil {
			return err
		}

		if _, err := models.DecodeConfig(node); err != nil {
			return fmt.Errorf("node %s: %w", node.ID, err)
		}
	}

	return nil
}
