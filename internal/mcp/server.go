package mcp

import (
	"context"
	"io"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/dshills/packcheck/internal/app"
	"github.com/dshills/packcheck/internal/config"
)

const (
	// ServerName is the MCP server name
	ServerName = "packcheck"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp     *server.MCPServer
	backend app.Backend
	logger  *zap.Logger

	defaultTop int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDefaultTop sets the result count used when search_pack omits top.
func WithDefaultTop(top int) Option {
	return func(s *Server) {
		if top > 0 {
			s.defaultTop = top
		}
	}
}

// NewServer creates a new MCP server instance backed by backend
func NewServer(backend app.Backend, opts ...Option) *Server {
	s := &Server{
		mcp:        server.NewMCPServer(ServerName, ServerVersion, server.WithToolCapabilities(false)),
		backend:    backend,
		logger:     zap.NewNop(),
		defaultTop: config.DefaultTop,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerTools()
	return s
}

// Serve runs the MCP server on stdio and blocks until stdin closes or ctx is
// cancelled.
func (s *Server) Serve(ctx context.Context) error {
	return s.Listen(ctx, os.Stdin, os.Stdout)
}

// Listen runs the MCP server over the given streams.
func (s *Server) Listen(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("MCP server listening on stdio", zap.String("pack", s.backend.PackPath()))
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(packInfoTool(), s.handlePackInfo)
	s.mcp.AddTool(searchPackTool(s.defaultTop), s.handleSearchPack)
	s.mcp.AddTool(verifyPackTool(), s.handleVerifyPack)
}
