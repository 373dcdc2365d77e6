package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type healthResult struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	AIEnabled bool   `json:"ai_hints_enabled"`
}

// RegisterHealthTool adds a health check tool to the MCP server.
// The tool reports the server version and whether AI hints are in use.
func RegisterHealthTool(s *server.MCPServer, version string, aiEnabled bool) {
	tool := mcp.NewTool(
		"health",
		mcp.WithDescription("Returns server health status and version"),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(healthResult{Status: "ok", Version: version, AIEnabled: aiEnabled})
	})
}
