package tools

import (
	"context"
	"io"

	"jsoncache/core/cache"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// ServerName is reported to MCP clients.
const ServerName = "jsoncache"

// NewServer creates an MCP server exposing the cache tools.
func NewServer(coord *cache.Coordinator, version string, opts ...Option) *server.MCPServer {
	srv := server.NewMCPServer(ServerName, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	NewService(coord, opts...).Register(srv)
	return srv
}

// ServeStdio serves srv over in and out until ctx is cancelled or in is closed.
func ServeStdio(ctx context.Context, srv *server.MCPServer, in io.Reader, out io.Writer, logger *zap.Logger) error {
	stdio := server.NewStdioServer(srv)
	stdio.SetErrorLogger(zap.NewStdLog(logger))
	logger.Info("MCP server listening on stdio")
	return stdio.Listen(ctx, in, out)
}
