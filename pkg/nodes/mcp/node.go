package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukex/flowrun/pkg/models"
	"github.com/dukex/flowrun/pkg/runctx"
	"github.com/dukex/flowrun/pkg/template"
)

var ErrMissingTool = errors.New("MCP node requires serverId and toolName")

type Node struct {
	caller  ToolCaller
	servers *Servers
	config  models.MCPConfig
}

func NewNode(caller ToolCaller, servers *Servers, config *models.MCPConfig) *Node {
	return &Node{caller: caller, servers: servers, config: *config}
}

// Execute resolves {{key}} placeholders of the arguments template against the
// input and calls the tool.
func (n *Node) Execute(ctx context.Context, input map[string]any, _ *runctx.RunContext) (map[string]any, error) {
	if n.config.ServerID == "" || n.config.ToolName == "" {
		return nil, ErrMissingTool
	}

	server, ok := n.servers.Enabled(n.config.ServerID)
	if !ok {
		return nil, fmt.Errorf("MCP server not found or disabled: %s", n.config.ServerID)
	}

	if !server.Allows(n.config.ToolName) {
		return nil, fmt.Errorf("Tool not allowed: %s", n.config.ToolName)
	}

	arguments := template.ResolveMap(n.config.ArgumentsTemplate, input)
	if arguments == nil {
		arguments = map[string]any{}
	}

	result, err := n.caller.CallTool(ctx, server, n.config.ToolName, arguments)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"result":   result,
		"serverId": n.config.ServerID,
		"toolName": n.config.ToolName,
	}, nil
}
