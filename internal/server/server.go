// Package server provides the MCP server wrapper with lifecycle management.
package server

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/raphaelgruber/boardroom/internal/tools"
)

// Name is the implementation name reported to MCP clients.
const Name = "boardroom"

// Server wraps the MCP server with the board tools and request logging.
type Server struct {
	mcp    *mcp.Server
	logger *slog.Logger
}

// New creates an MCP server exposing the board tools.
func New(version string, deps *tools.Dependencies, logger *slog.Logger) *Server {
	impl := &mcp.Implementation{
		Name:    Name,
		Version: version,
	}

	mcpServer := mcp.NewServer(impl, &mcp.ServerOptions{
		Instructions: "Run conversations with an AI executive board. " +
			"Open one with start_conversation, post founder messages with send_message, " +
			"and close it with end_conversation to record a summary.",
	})
	mcpServer.AddReceivingMiddleware(LoggingMiddleware(logger))
	tools.RegisterAll(mcpServer, deps)

	return &Server{
		mcp:    mcpServer,
		logger: logger,
	}
}

// Run serves on stdio and blocks until disconnect or context cancellation.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting MCP server", "transport", "stdio")
	return s.Serve(ctx, &mcp.StdioTransport{})
}

// Serve runs the server on the given transport.
func (s *Server) Serve(ctx context.Context, t mcp.Transport) error {
	return s.mcp.Run(ctx, t)
}
