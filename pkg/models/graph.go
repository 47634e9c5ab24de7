// Package models defines the flow graph, run and agent models shared by the engine.
package models

import (
	"errors"
	"fmt"
)

// NodeType identifies the handler bound to a node.
type NodeType string

// Built-in node types.
const (
	NodeTypeScheduleTrigger NodeType = "trigger.schedule"
	NodeTypeWebhookTrigger  NodeType = "trigger.webhook"
	NodeTypeLLM             NodeType = "llm"
	NodeTypeTransform       NodeType = "transform"
	NodeTypeCondition       NodeType = "condition"
	NodeTypeHTTP            NodeType = "tool.http"
	NodeTypeWebhook         NodeType = "tool.webhook"
	NodeTypeEmail           NodeType = "tool.email"
	NodeTypeSMS             NodeType = "tool.sms"
	NodeTypeFeed            NodeType = "tool.reddit"
	NodeTypeMarketData      NodeType = "tool.stock"
	NodeTypeMCP             NodeType = "tool.mcp"
	NodeTypeOutput          NodeType = "output"
)

// Graph validation errors.
var (
	ErrEmptyNodeID        = errors.New("node id cannot be empty")
	ErrDuplicateNode      = errors.New("duplicate node id")
	ErrDuplicateEdge      = errors.New("duplicate edge id")
	ErrSourceNodeNotFound = errors.New("edge source node not found")
	ErrTargetNodeNotFound = errors.New("edge target node not found")
	ErrSelfLoop           = errors.New("edge connects a node to itself")
	ErrCyclicGraph        = errors.New("flow graph contains a cycle")
)

// Node is a typed unit of work inside a flow graph.
type Node struct {
	ID     string         `json:"id"               validate:"required"`
	Type   NodeType       `json:"type"             validate:"required"`
	Label  string         `json:"label,omitempty"`
	Config map[string]any `json:"config,omitempty"`
}

// DisplayName returns the label when set, the id otherwise.
func (n *Node) DisplayName() string {
	if n.Label != "" {
		return n.Label
	}

	return n.ID
}

// Edge connects the output of one node to the input of another.
type Edge struct {
	ID        string `json:"id"`
	From      string `json:"from"                validate:"required"`
	To        string `json:"to"                  validate:"required"`
	Condition string `json:"condition,omitempty"`
}

// FlowGraph describes one automation as a DAG of nodes and edges.
type FlowGraph struct {
	ID    string  `json:"id"`
	Nodes []*Node `json:"nodes" validate:"dive"`
	Edges []*Edge `json:"edges" validate:"dive"`
}

// Node returns the node with the given id.
func (g *FlowGraph) Node(id string) (*Node, bool) {
	for _, node := range g.Nodes {
		if node.ID == id {
			return node, true
		}
	}

	return nil, false
}

// EntryNodes returns the nodes without incoming edges, in node-list order.
func (g *FlowGraph) EntryNodes() []*Node {
	targets := make(map[string]struct{}, len(g.Edges))
	for _, edge := range g.Edges {
		targets[edge.To] = struct{}{}
	}

	entries := make([]*Node, 0, len(g.Nodes))

	for _, node := range g.Nodes {
		if _, ok := targets[node.ID]; !ok {
			entries = append(entries, node)
		}
	}

	return entries
}

// Incoming returns the edges terminating at nodeID, in edge-list order.
func (g *FlowGraph) Incoming(nodeID string) []*Edge {
	var edges []*Edge

	for _, edge := range g.Edges {
		if edge.To == nodeID {
			edges = append(edges, edge)
		}
	}

	return edges
}

// Outgoing returns the edges starting at nodeID, in edge-list order.
func (g *FlowGraph) Outgoing(nodeID string) []*Edge {
	var edges []*Edge

	for _, edge := range g.Edges {
		if edge.From == nodeID {
			edges = append(edges, edge)
		}
	}

	return edges
}

// Predecessors returns the distinct source node ids of edges into nodeID.
func (g *FlowGraph) Predecessors(nodeID string) []string {
	seen := make(map[string]struct{})

	var ids []string

	for _, edge := range g.Incoming(nodeID) {
		if _, ok := seen[edge.From]; ok {
			continue
		}

		seen[edge.From] = struct{}{}
		ids = append(ids, edge.From)
	}

	return ids
}

// InDegree returns the number of distinct predecessors of nodeID.
func (g *FlowGraph) InDegree(nodeID string) int {
	return len(g.Predecessors(nodeID))
}

// NodesOfType returns the nodes with the given type, in node-list order.
func (g *FlowGraph) NodesOfType(nodeType NodeType) []*Node {
	var nodes []*Node

	for _, node := range g.Nodes {
		if node.Type == nodeType {
			nodes = append(nodes, node)
		}
	}

	return nodes
}

// Validate checks node uniqueness, edge references and acyclicity.
func (g *FlowGraph) Validate() error {
	nodes := make(map[string]struct{}, len(g.Nodes))

	for _, node := range g.Nodes {
		if node.ID == "" {
			return ErrEmptyNodeID
		}

		if _, ok := nodes[node.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateNode, node.ID)
		}

		nodes[node.ID] = struct{}{}
	}

	edges := make(map[string]struct{}, len(g.Edges))

	for _, edge := range g.Edges {
		if edge.ID != "" {
			if _, ok := edges[edge.ID]; ok {
				return fmt.Errorf("%w: %s", ErrDuplicateEdge, edge.ID)
			}

			edges[edge.ID] = struct{}{}
		}

		if _, ok := nodes[edge.From]; !ok {
			return fmt.Errorf("%w: %s", ErrSourceNodeNotFound, edge.From)
		}

		if _, ok := nodes[edge.To]; !ok {
			return fmt.Errorf("%w: %s", ErrTargetNodeNotFound, edge.To)
		}

		if edge.From == edge.To {
			return fmt.Errorf("%w: %s", ErrSelfLoop, edge.From)
		}
	}

	if cycle := g.findCycle(); cycle != "" {
		return fmt.Errorf("%w: reached %s again", ErrCyclicGraph, cycle)
	}

	return nil
}

const (
	white = iota
	gray
	black
)

// findCycle returns the id of a node closing a cycle, or "" when the graph is acyclic.
func (g *FlowGraph) findCycle() string {
	adjacency := make(map[string][]string, len(g.Nodes))
	for _, edge := range g.Edges {
		adjacency[edge.From] = append(adjacency[edge.From], edge.To)
	}

	color := make(map[string]int, len(g.Nodes))

	var visit func(id string) string

	visit = func(id string) string {
		color[id] = gray

		for _, next := range adjacency[id] {
			switch color[next] {
			case gray:
				return next
			case white:
				if found := visit(next); found != "" {
					return found
				}
			}
		}

		color[id] = black

		return ""
	}

	for _, node := range g.Nodes {
		if color[node.ID] == white {
			if found := visit(node.ID); found != "" {
				return found
			}
		}
	}

	return ""
}
