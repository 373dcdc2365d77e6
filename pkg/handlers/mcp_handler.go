package handlers

import (
	"net/http"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-counsel/pkg/config"
	"github.com/ekaya-inc/ekaya-counsel/pkg/mcp"
	mcpauth "github.com/ekaya-inc/ekaya-counsel/pkg/mcp/auth"
	"github.com/ekaya-inc/ekaya-counsel/pkg/middleware"
)

// MCPHandler handles MCP protocol requests over HTTP.
type MCPHandler struct {
	httpServer *server.StreamableHTTPServer
	logger     *zap.Logger
	mcpConfig  config.MCPConfig
}

// NewMCPHandler creates a new MCP handler from an MCP server.
func NewMCPHandler(mcpServer *mcp.Server, logger *zap.Logger, mcpConfig config.MCPConfig) *MCPHandler {
	return &MCPHandler{
		httpServer: mcpServer.NewStreamableHTTPServer(),
		logger:     logger,
		mcpConfig:  mcpConfig,
	}
}

// RegisterRoutes registers the MCP endpoint with firm-scoped authentication.
// Route: /mcp/{fid} where {fid} must match the firm ID in the JWT token.
func (h *MCPHandler) RegisterRoutes(mux *http.ServeMux, mcpAuthMiddleware *mcpauth.Middleware) {
	// Layers, innermost first: JSON-RPC logging, authentication, method check.
	var requestLogger *zap.Logger
	if h.mcpConfig.LogRequests {
		requestLogger = h.logger
	}
	loggedHandler := middleware.MCPRequestLogger(requestLogger)(h.httpServer)
	authHandler := mcpAuthMiddleware.RequireAuth("fid")(loggedHandler)
	mux.Handle("/mcp/{fid}", h.requirePOST(authHandler))
}

// requirePOST returns 405 Method Not Allowed for non-POST requests.
// MCP over HTTP Streaming requires POST for JSON-RPC requests.
func (h *MCPHandler) requirePOST(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST")
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}
