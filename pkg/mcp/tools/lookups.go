package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-counsel/pkg/models"
	"github.com/ekaya-inc/ekaya-counsel/pkg/services"
)

const defaultLookupToolLimit = 50

// LookupToolDeps contains dependencies for lookup tools.
type LookupToolDeps struct {
	LookupService    services.LookupService
	GetTenantContext services.TenantContextFunc
	Logger           *zap.Logger
}

type listLookupsResponse struct {
	Type  models.EntityType `json:"type"`
	Names []string          `json:"names"`
	Count int               `json:"count"`
}

// RegisterLookupTools registers list_case_lookups.
func RegisterLookupTools(s *server.MCPServer, deps *LookupToolDeps) {
	tool := mcp.NewTool(
		"list_case_lookups",
		mcp.WithDescription(
			"List the active names the firm uses for one lookup type: clients, courts, case-types or case-statuses. "+
				"Use these exact names in create_case prompts.",
		),
		mcp.WithString(
			"type",
			mcp.Required(),
			mcp.Description("Lookup type"),
			mcp.Enum("clients", "courts", "case-types", "case-statuses"),
		),
		mcp.WithNumber("limit", mcp.Description("Maximum names to return (default 50)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		typeName, err := req.RequireString("type")
		if err != nil {
			return NewErrorResult("invalid_parameters", "type is required"), nil
		}
		entityType, err := models.ParseEntityType(trimString(typeName))
		if err != nil {
			return NewIntakeErrorResult(err), nil
		}

		limit := req.GetInt("limit", defaultLookupToolLimit)
		if limit <= 0 {
			limit = defaultLookupToolLimit
		}

		firmID, tenantCtx, cleanup, err := acquireFirmContext(ctx, deps.GetTenantContext)
		if err != nil {
			return nil, err
		}
		defer cleanup()

		names, err := deps.LookupService.Candidates(tenantCtx, firmID, entityType, limit)
		if err != nil {
			deps.Logger.Error("list_case_lookups failed",
				zap.String("firm_id", firmID.String()),
				zap.String("type", string(entityType)),
				zap.Error(err))
			return nil, fmt.Errorf("failed to list %s: %w", entityType.URLName(), err)
		}
		if names == nil {
			names = []string{}
		}

		return jsonResult(listLookupsResponse{Type: entityType, Names: names, Count: len(names)})
	})
}
