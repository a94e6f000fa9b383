package tools

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Registry holds the MCP tool registrations for the restaurant finder.
type Registry struct {
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// NewRegistry creates a new MCP tool registry backed by d.
func NewRegistry(d *Dispatcher, logger *slog.Logger) *Registry {
	return &Registry{
		dispatcher: d,
		logger:     logger,
	}
}

// Handler returns the MCP handler for the named tool. Every outcome,
// including failures, is returned as an envelope in the tool result.
func (r *Registry) Handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		env := r.dispatcher.Call(ctx, Request{Tool: name, Args: req.Params.Arguments})
		return ToolResult(env), nil
	}
}

// RegisterTools registers all tools with the MCP server.
func (r *Registry) RegisterTools(mcpServer *server.MCPServer) {
	for _, def := range r.dispatcher.Tools() {
		r.logger.Info("registering tool", "name", def.Name)
		mcpServer.AddTool(def.Tool, r.Handler(def.Name))
	}
}
