package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	mcp "trpc.group/trpc-go/trpc-mcp-go"
)

const DefaultTimeout = 30 * time.Second

var clientInfo = mcp.Implementation{
	Name:    "flowrun-worker",
	Version: "0.1.0",
}

// ToolCaller invokes one tool on a server.
type ToolCaller interface {
	CallTool(ctx context.Context, server *Server, toolName string, arguments map[string]any) (any, error)
}

// Client opens a session per call and closes it once the tool returns.
type Client struct {
	timeout time.Duration
	logger  *slog.Logger
}

func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{timeout: timeout, logger: logger.With("module", "mcp")}
}

func (c *Client) CallTool(ctx context.Context, server *Server, toolName string, arguments map[string]any) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	client, err := c.connect(server)
	if err != nil {
		return nil, fmt.Errorf("MCP connection to %s failed: %w", server.ID, err)
	}

	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			c.logger.Warn("Failed to close MCP client", "server_id", server.ID, "error", closeErr)
		}
	}()

	if _, err := client.Initialize(ctx, &mcp.InitializeRequest{}); err != nil {
		return nil, fmt.Errorf("MCP initialize on %s failed: %w", server.ID, err)
	}

	req := &mcp.CallToolRequest{}
	req.Params.Name = toolName
	req.Params.Arguments = arguments

	resp, err := client.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("MCP tool %s failed: %w", toolName, err)
	}

	c.logger.DebugContext(ctx, "MCP tool call completed", "server_id", server.ID, "tool", toolName, "content_count", len(resp.Content))

	return extractContent(resp.Content), nil
}

func (c *Client) connect(server *Server) (mcp.Connector, error) {
	var options []mcp.ClientOption

	if len(server.Headers) > 0 {
		headers := http.Header{}
		for k, v := range server.Headers {
			headers.Set(k, v)
		}

		options = append(options, mcp.WithHTTPHeaders(headers))
	}

	if server.Transport == TransportSSE {
		return mcp.NewSSEClient(server.URL, clientInfo, options...)
	}

	return mcp.NewClient(server.URL, clientInfo, options...)
}

// extractContent returns the text of a single-item result directly and a
// list otherwise.
func extractContent(contents []mcp.Content) any {
	if len(contents) == 0 {
		return nil
	}

	texts := make([]string, 0, len(contents))

	for _, content := range contents {
		if text, ok := content.(mcp.TextContent); ok {
			texts = append(texts, text.Text)
		} else {
			texts = append(texts, fmt.Sprintf("[Unsupported content type: %T]", content))
		}
	}

	if len(texts) == 1 {
		return texts[0]
	}

	return texts
}
