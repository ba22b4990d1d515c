package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/jsflow/pkg/config"
)

// Server wraps the MCP server and registers the jsflow tools.
type Server struct {
	server *mcp.Server
	config *config.Config
}

// NewServer creates a new MCP server with all jsflow tools registered. A nil
// config uses the defaults.
func NewServer(version string, cfg *config.Config) *Server {
	if version == "" {
		version = "dev"
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "jsflow",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server, config: cfg}
	s.registerTools()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "lint",
		Description: describeLint(),
	}, s.handleLint)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "lint_source",
		Description: describeLintSource(),
	}, s.handleLintSource)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "code_paths",
		Description: describeCodePaths(),
	}, s.handleCodePaths)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_rules",
		Description: describeListRules(),
	}, s.handleListRules)
}
