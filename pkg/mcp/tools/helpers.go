package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ekaya-inc/ekaya-counsel/pkg/auth"
	"github.com/ekaya-inc/ekaya-counsel/pkg/jsonutil"
	"github.com/ekaya-inc/ekaya-counsel/pkg/services"
)

// trimString removes leading and trailing whitespace from a string.
func trimString(s string) string {
	return strings.TrimSpace(s)
}

// acquireFirmContext reads the firm from the caller's token and returns a
// context holding a firm-scoped connection. cleanup MUST be called.
func acquireFirmContext(ctx context.Context, getTenantCtx services.TenantContextFunc) (uuid.UUID, context.Context, func(), error) {
	firmID, err := auth.RequireFirmIDFromContext(ctx)
	if err != nil {
		return uuid.Nil, nil, nil, fmt.Errorf("authentication required")
	}

	tenantCtx, cleanup, err := getTenantCtx(ctx, firmID)
	if err != nil {
		return uuid.Nil, nil, nil, fmt.Errorf("failed to acquire database connection: %w", err)
	}
	return firmID, tenantCtx, cleanup, nil
}

// optionalIDArg reads an entity id that may arrive as a number or a numeric
// string. Missing and null values yield nil; any other non-id value is an
// error naming the argument.
func optionalIDArg(req mcp.CallToolRequest, name string) (*int64, error) {
	value, ok := req.GetArguments()[name]
	if !ok || value == nil {
		return nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%s is not a valid id: %w", name, err)
	}
	id, err := jsonutil.OptionalID(raw)
	if err != nil {
		return nil, fmt.Errorf("%s %w", name, err)
	}
	return id, nil
}

// jsonResult marshals v as the text content of a tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
