package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/devmind/semindex/internal/pipeline"
)

const (
	// ServerName is the MCP server name
	ServerName = "semindex"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with the pipeline it fronts.
type Server struct {
	mcp     *server.MCPServer
	service *pipeline.Service
	log     *slog.Logger
}

// NewServer creates the MCP server and registers its tools.
func NewServer(service *pipeline.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		mcp:     server.NewMCPServer(ServerName, ServerVersion),
		service: service,
		log:     logger,
	}
	s.registerTools()
	return s
}

// Serve runs the server on stdio and blocks until the host disconnects.
func (s *Server) Serve(ctx context.Context) error {
	s.log.Info("mcp server starting", "name", ServerName, "version", ServerVersion)
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(indexRepositoryTool(), s.handleIndexRepository)
	s.mcp.AddTool(searchCodeTool(), s.handleSearchCode)
	s.mcp.AddTool(deleteRepositoryTool(), s.handleDeleteRepository)
	s.mcp.AddTool(getStatsTool(), s.handleGetStats)
}
