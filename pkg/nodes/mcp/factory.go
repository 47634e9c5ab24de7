package mcp

import (
	"context"
	"fmt"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/protocol"
)

type Factory struct {
	caller  ToolCaller
	servers *Servers
}

func NewFactory(caller ToolCaller, servers *Servers) protocol.NodeFactory {
	return &Factory{caller: caller, servers: servers}
}

func (f *Factory) Create(_ context.Context, node *models.Node) (protocol.Node, error) {
	config, err := models.DecodeConfig(node)
	if err != nil {
		return nil, err
	}

	mcpConfig, ok := config.(*models.MCPConfig)
	if !ok {
		return nil, fmt.Errorf("unexpected config %T for %s", config, node.Type)
	}

	return NewNode(f.caller, f.servers, mcpConfig), nil
}

func (f *Factory) ID() models.NodeType {
	return models.NodeTypeMCP
}

func (f *Factory) Name() string {
	return "MCP tool"
}

func (f *Factory) Description() string {
	return "Calls a tool on a configured MCP server"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"serverId": map[string]any{"type": "string"},
			"toolName": map[string]any{"type": "string"},
			"argumentsTemplate": map[string]any{
				"type":        "object",
				"description": "Tool arguments; string values may use {{key}} placeholders",
			},
		},
	}
}
