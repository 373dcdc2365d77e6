package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewServer(t *testing.T) {
	logger := zap.NewNop()
	s := NewServer("test-server", "1.0.0", nil, logger)

	require.NotNil(t, s)
	require.NotNil(t, s.MCP())
	assert.Same(t, logger, s.logger)
	assert.NotNil(t, s.NewStreamableHTTPServer())
}

func TestServer_RegisterToolWithAudit(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewServer("test-server", "1.0.0", NewAuditLogger(zap.New(core)), zap.NewNop())

	s.RegisterTool(mcp.NewTool("echo", mcp.WithDescription("Echo")), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(`{"case":{"case_id":"CASE-000001"}}`), nil
	})

	result := s.MCP().HandleMessage(context.Background(),
		[]byte(`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"echo","arguments":{"prompt":"hello","api_key":"s3cret"}},"id":1}`))
	raw, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "CASE-000001")

	entries := logs.FilterMessage("MCP audit event").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, EventToolCall, fields["event_type"])
	assert.Equal(t, "echo", fields["tool"])

	params := fields["params"].(map[string]any)
	assert.Equal(t, "hello", params["prompt"])
	assert.Contains(t, params["api_key"], "sha256:")

	summary := fields["result"].(map[string]any)
	assert.Equal(t, "CASE-000001", summary["case_id"])
}
