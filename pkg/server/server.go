// Package server provides the MCP server for the restaurant finder.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/NERVsystems/restaurantmcp/pkg/tools"
	"github.com/NERVsystems/restaurantmcp/pkg/tools/prompts"
	"github.com/NERVsystems/restaurantmcp/pkg/version"
	"github.com/mark3labs/mcp-go/server"
)

// ServerName is the name of the MCP server
const ServerName = "restaurant-finder"

// Server encapsulates the MCP server with the restaurant tools.
type Server struct {
	srv    *server.MCPServer
	logger *slog.Logger
}

// NewServer creates a new MCP server with all tools and prompts registered.
func NewServer(d *tools.Dispatcher, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("server: nil dispatcher")
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "mcp")
	logger.Info("initializing restaurant finder MCP server",
		"name", ServerName,
		"version", version.BuildVersion)

	srv := server.NewMCPServer(
		ServerName,
		version.BuildVersion,
		server.WithToolCapabilities(false),
		server.WithPromptCapabilities(false),
		server.WithRecovery(),
	)

	tools.NewRegistry(d, logger).RegisterTools(srv)
	prompts.RegisterRestaurantPrompts(srv)

	return &Server{srv: srv, logger: logger}, nil
}

// MCP returns the underlying mcp-go server.
func (s *Server) MCP() *server.MCPServer {
	return s.srv
}

// Run serves MCP over stdin/stdout until ctx is cancelled or stdin closes.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve serves MCP over the given streams. Cancellation of ctx is a clean
// shutdown and returns nil.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.srv)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))

	s.logger.Info("serving MCP over stdio")
	err := stdio.Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	s.logger.Info("MCP server stopped")
	return nil
}
