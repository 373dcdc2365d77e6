package mcp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-counsel/pkg/auth"
	"github.com/ekaya-inc/ekaya-counsel/pkg/logging"
)

// Tool audit event types.
const (
	EventToolCall    = "tool_call"
	EventToolError   = "tool_error"
	EventAuthFailure = "auth_failure"
)

// Security levels attached to audit events.
const (
	SecurityNormal   = "normal"
	SecurityWarning  = "warning"
	SecurityCritical = "critical"
)

// ToolAuditEvent is one audited MCP tool invocation.
type ToolAuditEvent struct {
	EventType     string         `json:"event_type"`
	FirmID        string         `json:"firm_id,omitempty"`
	UserID        string         `json:"user_id,omitempty"`
	ToolName      string         `json:"tool_name,omitempty"`
	RequestParams map[string]any `json:"request_params,omitempty"`
	WasSuccessful bool           `json:"was_successful"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	ResultSummary map[string]any `json:"result_summary,omitempty"`
	DurationMs    int            `json:"duration_ms"`
	SecurityLevel string         `json:"security_level"`
	SecurityFlags []string       `json:"security_flags,omitempty"`
}

// AuditLogger writes MCP tool audit events under the "mcp-audit" logger.
type AuditLogger struct {
	logger *zap.Logger

	// startTimes tracks when tool calls begin, keyed by request ID.
	startTimes sync.Map
}

// NewAuditLogger creates an AuditLogger that records MCP events.
func NewAuditLogger(logger *zap.Logger) *AuditLogger {
	return &AuditLogger{logger: logger.Named("mcp-audit")}
}

// Hooks returns mcp-go Hooks configured to capture tool call events.
func (a *AuditLogger) Hooks() *server.Hooks {
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(a.beforeCallTool)
	hooks.AddAfterCallTool(a.afterCallTool)
	hooks.AddOnError(a.onError)
	return hooks
}

func (a *AuditLogger) beforeCallTool(_ context.Context, id any, _ *mcplib.CallToolRequest) {
	a.startTimes.Store(id, time.Now())
}

func (a *AuditLogger) afterCallTool(ctx context.Context, id any, req *mcplib.CallToolRequest, result *mcplib.CallToolResult) {
	event := a.buildEvent(ctx, id, req)
	event.EventType = EventToolCall
	event.WasSuccessful = true
	event.ResultSummary = summarizeResult(result)
	classifyToolCallSecurity(event, result)

	a.record(event)
}

func (a *AuditLogger) onError(ctx context.Context, id any, method mcplib.MCPMethod, message any, err error) {
	if method != mcplib.MethodToolsCall {
		return
	}
	req, ok := message.(*mcplib.CallToolRequest)
	if !ok {
		return
	}

	event := a.buildEvent(ctx, id, req)
	event.EventType = EventToolError
	event.ErrorMessage = logging.SanitizeError(err)
	classifyErrorSecurity(event, event.ErrorMessage)

	a.record(event)
}

// RecordAuthFailure logs a rejected MCP request. Called from the MCP auth
// middleware.
func (a *AuditLogger) RecordAuthFailure(firmID, userID, reason, clientIP string) {
	a.logger.Warn("MCP audit event",
		zap.String("event_type", EventAuthFailure),
		zap.String("firm_id", firmID),
		zap.String("user_id", userID),
		zap.String("reason", reason),
		zap.String("client_ip", clientIP),
		zap.String("security_level", SecurityWarning),
	)
}

func (a *AuditLogger) loadAndDeleteStart(id any) time.Time {
	if v, ok := a.startTimes.LoadAndDelete(id); ok {
		return v.(time.Time)
	}
	return time.Now()
}

func (a *AuditLogger) buildEvent(ctx context.Context, id any, req *mcplib.CallToolRequest) *ToolAuditEvent {
	event := &ToolAuditEvent{
		ToolName:      req.Params.Name,
		RequestParams: sanitizeParams(req.Params.Arguments),
		DurationMs:    int(time.Since(a.loadAndDeleteStart(id)).Milliseconds()),
		SecurityLevel: SecurityNormal,
	}
	if claims, ok := auth.GetClaims(ctx); ok {
		event.UserID = claims.Subject
		event.FirmID = claims.FirmID
	}
	return event
}

func (a *AuditLogger) record(event *ToolAuditEvent) {
	fields := []zap.Field{
		zap.String("event_type", event.EventType),
		zap.String("firm_id", event.FirmID),
		zap.String("user_id", event.UserID),
		zap.String("tool", event.ToolName),
		zap.Bool("success", event.WasSuccessful),
		zap.Int("duration_ms", event.DurationMs),
		zap.String("security_level", event.SecurityLevel),
		zap.Any("params", event.RequestParams),
	}
	if event.ResultSummary != nil {
		fields = append(fields, zap.Any("result", event.ResultSummary))
	}
	if event.ErrorMessage != "" {
		fields = append(fields, zap.String("error", event.ErrorMessage))
	}
	if len(event.SecurityFlags) > 0 {
		fields = append(fields, zap.Strings("security_flags", event.SecurityFlags))
	}

	if event.SecurityLevel == SecurityNormal {
		a.logger.Info("MCP audit event", fields...)
		return
	}
	a.logger.Warn("MCP audit event", fields...)
}

// sanitizeParams prepares tool arguments for the audit log. Sensitive values
// are hashed and long strings (prompts) truncated.
func sanitizeParams(args any) map[string]any {
	params, _ := args.(map[string]any)
	return logging.SanitizeArgs(params, hashSensitiveValue)
}

// hashSensitiveValue returns a SHA-256 prefix so entries can be correlated
// without storing the value.
func hashSensitiveValue(value any) any {
	str, ok := value.(string)
	if !ok {
		str = fmt.Sprintf("%v", value)
	}
	hash := sha256.Sum256([]byte(str))
	return "sha256:" + hex.EncodeToString(hash[:8])
}

// summarizeResult creates a compact summary of the tool result.
func summarizeResult(result *mcplib.CallToolResult) map[string]any {
	if result == nil {
		return nil
	}

	summary := map[string]any{
		"is_error": result.IsError,
	}

	for _, c := range result.Content {
		tc, ok := c.(mcplib.TextContent)
		if !ok {
			continue
		}
		summary["content_count"] = len(result.Content)
		extractOutcome(tc.Text, summary)
		summary["preview"] = logging.TruncateForLog(tc.Text)
		break
	}

	return summary
}

// extractOutcome copies the created case id or the error code from a JSON
// tool response into the summary.
func extractOutcome(text string, summary map[string]any) {
	var partial struct {
		Case *struct {
			CaseID string `json:"case_id"`
		} `json:"case"`
		Code string `json:"code"`
	}
	if err := json.Unmarshal([]byte(text), &partial); err != nil {
		return
	}
	if partial.Case != nil && partial.Case.CaseID != "" {
		summary["case_id"] = partial.Case.CaseID
	}
	if partial.Code != "" {
		summary["code"] = partial.Code
	}
}

// classifyToolCallSecurity flags error results that point at access problems.
func classifyToolCallSecurity(event *ToolAuditEvent, result *mcplib.CallToolResult) {
	if result == nil || !result.IsError {
		return
	}
	for _, c := range result.Content {
		tc, ok := c.(mcplib.TextContent)
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(tc.Text), "authentication_required") {
			event.SecurityLevel = SecurityWarning
			event.SecurityFlags = append(event.SecurityFlags, "unauthorized_access")
			return
		}
	}
}

// classifyErrorSecurity upgrades the event's classification from the error text.
func classifyErrorSecurity(event *ToolAuditEvent, errMsg string) {
	lower := strings.ToLower(errMsg)

	switch {
	case strings.Contains(lower, "injection"):
		event.SecurityLevel = SecurityCritical
		event.SecurityFlags = append(event.SecurityFlags, "sql_injection_attempt")
	case strings.Contains(lower, "authentication") || strings.Contains(lower, "unauthorized"):
		event.SecurityLevel = SecurityWarning
		event.SecurityFlags = append(event.SecurityFlags, "auth_failure")
	}
}
