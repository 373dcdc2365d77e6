package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func serveMCP(t *testing.T, reqBody, respBody string) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(respBody))
	})

	req := httptest.NewRequest(http.MethodPost, "/mcp/firm-1", bytes.NewBufferString(reqBody))
	MCPRequestLogger(zap.New(core))(handler).ServeHTTP(httptest.NewRecorder(), req)
	return logs
}

func TestMCPRequestLogger(t *testing.T) {
	tests := []struct {
		name      string
		request   string
		response  string
		outcome   string
		errorCode any
		errorMsg  any
	}{
		{
			name:     "successful tool call",
			request:  `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"create_case","arguments":{"prompt":"for client Acme Corp"}}}`,
			response: `{"jsonrpc":"2.0","id":1,"result":{"content":[{"type":"text","text":"{\"case_id\":\"CASE-000001\"}"}]}}`,
			outcome:  "ok",
		},
		{
			name:      "protocol error",
			request:   `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"create_case","arguments":{}}}`,
			response:  `{"jsonrpc":"2.0","id":1,"error":{"code":-32603,"message":"database unavailable"}}`,
			outcome:   "rpc_error",
			errorCode: int64(-32603),
			errorMsg:  "database unavailable",
		},
		{
			name:     "tool error result",
			request:  `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"create_case","arguments":{"prompt":"x"}}}`,
			response: `{"jsonrpc":"2.0","id":1,"result":{"isError":true,"content":[{"type":"text","text":"Client is required."}]}}`,
			outcome:  "tool_error",
			errorMsg: "Client is required.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := serveMCP(t, tt.request, tt.response)

			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, "MCP call", entry.Message)

			fields := entry.ContextMap()
			assert.Equal(t, "tools/call", fields["method"])
			assert.Equal(t, "create_case", fields["tool"])
			assert.Equal(t, tt.outcome, fields["outcome"])
			assert.Equal(t, tt.errorCode, fields["error_code"])
			assert.Equal(t, tt.errorMsg, fields["error_message"])
			assert.Contains(t, fields, "duration")
		})
	}
}

func TestMCPRequestLogger_RedactsSecrets(t *testing.T) {
	logs := serveMCP(t,
		`{"method":"tools/call","params":{"name":"create_case","arguments":{"prompt":"p","api_key":"sk-abc"}}}`,
		`{"result":{}}`)

	require.Equal(t, 1, logs.Len())
	args, ok := logs.All()[0].ContextMap()["arguments"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "[REDACTED]", args["api_key"])
	assert.Equal(t, "p", args["prompt"])
}

func TestMCPRequestLogger_UnparsedBodies(t *testing.T) {
	logs := serveMCP(t, `not json`, ``)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, true, fields["unparsed_request"])
	assert.Equal(t, "unparsed", fields["outcome"])
}

func TestMCPRequestLogger_PreservesBody(t *testing.T) {
	body := `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`

	for name, logger := range map[string]*zap.Logger{"enabled": zap.NewNop(), "disabled": nil} {
		t.Run(name, func(t *testing.T) {
			var got string
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				b, _ := io.ReadAll(r.Body)
				got = string(b)
			})

			req := httptest.NewRequest(http.MethodPost, "/mcp/firm-1", strings.NewReader(body))
			MCPRequestLogger(logger)(handler).ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, body, got)
		})
	}
}
