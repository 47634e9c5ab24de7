package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id string, nodeType NodeType) *Node {
	return &Node{ID: id, Type: nodeType}
}

func edge(id, from, to string) *Edge {
	return &Edge{ID: id, From: from, To: to}
}

func nodeIDs(nodes []*Node) []string {
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}

	return ids
}

func TestFlowGraph_EntryNodes(t *testing.T) {
	tests := []struct {
		name     string
		graph    *FlowGraph
		expected []string
	}{
		{
			name:     "empty graph",
			graph:    &FlowGraph{},
			expected: []string{},
		},
		{
			name: "single chain",
			graph: &FlowGraph{
				Nodes: []*Node{node("a", NodeTypeScheduleTrigger), node("b", NodeTypeTransform), node("c", NodeTypeOutput)},
				Edges: []*Edge{edge("e1", "a", "b"), edge("e2", "b", "c")},
			},
			expected: []string{"a"},
		},
		{
			name: "entries keep node-list order",
			graph: &FlowGraph{
				Nodes: []*Node{node("out", NodeTypeOutput), node("z", NodeTypeWebhookTrigger), node("a", NodeTypeScheduleTrigger)},
				Edges: []*Edge{edge("e1", "a", "out"), edge("e2", "z", "out")},
			},
			expected: []string{"z", "a"},
		},
		{
			name: "isolated nodes are entries",
			graph: &FlowGraph{
				Nodes: []*Node{node("a", NodeTypeTransform), node("b", NodeTypeTransform)},
			},
			expected: []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, nodeIDs(tt.graph.EntryNodes()))
		})
	}
}

func TestFlowGraph_EntryNodes_NoneWhenEveryNodeHasParent(t *testing.T) {
	graph := &FlowGraph{
		Nodes: []*Node{node("a", NodeTypeTransform), node("b", NodeTypeTransform)},
		Edges: []*Edge{edge("e1", "a", "b"), edge("e2", "b", "a")},
	}

	assert.Empty(t, graph.EntryNodes())
}

func TestFlowGraph_IncomingOutgoingPreserveEdgeOrder(t *testing.T) {
	graph := &FlowGraph{
		Nodes: []*Node{node("a", NodeTypeTransform), node("b", NodeTypeTransform), node("c", NodeTypeOutput)},
		Edges: []*Edge{edge("e2", "b", "c"), edge("e1", "a", "c"), edge("e3", "a", "b"), edge("e4", "a", "c")},
	}

	incoming := graph.Incoming("c")
	require.Len(t, incoming, 3)
	assert.Equal(t, "e2", incoming[0].ID)
	assert.Equal(t, "e1", incoming[1].ID)
	assert.Equal(t, "e4", incoming[2].ID)

	outgoing := graph.Outgoing("a")
	require.Len(t, outgoing, 3)
	assert.Equal(t, "e1", outgoing[0].ID)
	assert.Equal(t, "e3", outgoing[1].ID)

	assert.Equal(t, []string{"b", "a"}, graph.Predecessors("c"))
}

func TestFlowGraph_Validate(t *testing.T) {
	tests := []struct {
		name    string
		graph   *FlowGraph
		wantErr error
	}{
		{
			name: "valid diamond",
			graph: &FlowGraph{
				Nodes: []*Node{node("a", NodeTypeScheduleTrigger), node("b", NodeTypeLLM), node("c", NodeTypeTransform), node("d", NodeTypeOutput)},
				Edges: []*Edge{edge("e1", "a", "b"), edge("e2", "a", "c"), edge("e3", "b", "d"), edge("e4", "c", "d")},
			},
		},
		{
			name:    "empty node id",
			graph:   &FlowGraph{Nodes: []*Node{node("", NodeTypeOutput)}},
			wantErr: ErrEmptyNodeID,
		},
		{
			name:    "duplicate node",
			graph:   &FlowGraph{Nodes: []*Node{node("a", NodeTypeOutput), node("a", NodeTypeLLM)}},
			wantErr: ErrDuplicateNode,
		},
		{
			name: "duplicate edge",
			graph: &FlowGraph{
				Nodes: []*Node{node("a", NodeTypeTransform), node("b", NodeTypeOutput)},
				Edges: []*Edge{edge("e1", "a", "b"), edge("e1", "a", "b")},
			},
			wantErr: ErrDuplicateEdge,
		},
		{
			name: "missing source",
			graph: &FlowGraph{
				Nodes: []*Node{node("b", NodeTypeOutput)},
				Edges: []*Edge{edge("e1", "ghost", "b")},
			},
			wantErr: ErrSourceNodeNotFound,
		},
		{
			name: "missing target",
			graph: &FlowGraph{
				Nodes: []*Node{node("a", NodeTypeTransform)},
				Edges: []*Edge{edge("e1", "a", "ghost")},
			},
			wantErr: ErrTargetNodeNotFound,
		},
		{
			name: "self loop",
			graph: &FlowGraph{
				Nodes: []*Node{node("a", NodeTypeTransform)},
				Edges: []*Edge{edge("e1", "a", "a")},
			},
			wantErr: ErrSelfLoop,
		},
		{
			name: "cycle",
			graph: &FlowGraph{
				Nodes: []*Node{node("t", NodeTypeScheduleTrigger), node("a", NodeTypeTransform), node("b", NodeTypeTransform), node("c", NodeTypeTransform)},
				Edges: []*Edge{edge("e0", "t", "a"), edge("e1", "a", "b"), edge("e2", "b", "c"), edge("e3", "c", "a")},
			},
			wantErr: ErrCyclicGraph,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.graph.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)

				return
			}

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNode_DisplayName(t *testing.T) {
	assert.Equal(t, "Fetch posts", (&Node{ID: "n1", Label: "Fetch posts"}).DisplayName())
	assert.Equal(t, "n1", (&Node{ID: "n1"}).DisplayName())
}
