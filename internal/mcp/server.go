package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ziadkadry99/diagramdive/internal/api"
	"github.com/ziadkadry99/diagramdive/internal/render"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes the diagram service as tools.
type Server struct {
	svc     api.Service
	engines *render.Loader
	log     *zap.Logger
	mcp     *server.MCPServer
}

// NewServer creates a new MCP server backed by svc. When engines is non-nil
// generated diagrams are rendered so the tool result can list the elements
// a follow-up question may refer to.
func NewServer(svc api.Service, engines *render.Loader, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		svc:     svc,
		engines: engines,
		log:     log,
	}

	s.mcp = server.NewMCPServer(
		"diagramdive",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(describeDiagramTool, s.handleDescribeDiagram)
	s.mcp.AddTool(deepDiveTool, s.handleDeepDive)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
