// Package tools provides MCP tool implementations for ekaya-counsel.
package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-counsel/pkg/auth"
	"github.com/ekaya-inc/ekaya-counsel/pkg/logging"
	"github.com/ekaya-inc/ekaya-counsel/pkg/models"
	"github.com/ekaya-inc/ekaya-counsel/pkg/services"
)

// CaseIntakeToolDeps contains dependencies for case intake tools.
type CaseIntakeToolDeps struct {
	IntakeService    services.CaseIntakeService
	GetTenantContext services.TenantContextFunc
	Logger           *zap.Logger
}

// RegisterCaseIntakeTools registers create_case and resolve_case_intake.
func RegisterCaseIntakeTools(s *server.MCPServer, deps *CaseIntakeToolDeps) {
	registerCreateCaseTool(s, deps)
	registerResolveCaseIntakeTool(s, deps)
}

func intakeToolOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString(
			"prompt",
			mcp.Required(),
			mcp.Description("Free-text case description, e.g. 'Create a contract dispute case for client Acme Corp, file in Riyadh Commercial Court'"),
		),
		mcp.WithNumber("client_id", mcp.Description("Optional client id. Takes precedence over the client named in the prompt.")),
		mcp.WithNumber("court_id", mcp.Description("Optional court id. Takes precedence over the court named in the prompt.")),
		mcp.WithNumber("case_type_id", mcp.Description("Optional case type id. Takes precedence over the case type named in the prompt.")),
		mcp.WithNumber("case_status_id", mcp.Description("Optional case status id. Defaults to the firm's first status.")),
		mcp.WithString("user_id", mcp.Description("Optional requesting user id. Defaults to the authenticated user.")),
	}
}

// intakeArgs reads the prompt and options shared by both intake tools.
func intakeArgs(ctx context.Context, req mcp.CallToolRequest) (string, models.IntakeOptions, error) {
	var opts models.IntakeOptions
	for _, f := range []struct {
		name string
		dst  **int64
	}{
		{"client_id", &opts.ClientID},
		{"court_id", &opts.CourtID},
		{"case_type_id", &opts.CaseTypeID},
		{"case_status_id", &opts.CaseStatusID},
	} {
		id, err := optionalIDArg(req, f.name)
		if err != nil {
			return "", models.IntakeOptions{}, err
		}
		*f.dst = id
	}

	opts.UserID = trimString(req.GetString("user_id", ""))
	if opts.UserID == "" {
		opts.UserID = auth.GetUserIDFromContext(ctx)
	}
	return req.GetString("prompt", ""), opts, nil
}

func registerCreateCaseTool(s *server.MCPServer, deps *CaseIntakeToolDeps) {
	options := append([]mcp.ToolOption{
		mcp.WithDescription(
			"Create a case from a natural-language description. " +
				"The client, court and case type are matched against the firm's records; " +
				"the case status defaults to the firm's first status. " +
				"If a field cannot be matched, the error lists the available names so the request can be retried. " +
				"Use list_case_lookups to see the firm's clients, courts, case types and statuses.",
		),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	}, intakeToolOptions()...)

	s.AddTool(mcp.NewTool("create_case", options...), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		firmID, tenantCtx, cleanup, err := acquireFirmContext(ctx, deps.GetTenantContext)
		if err != nil {
			return nil, err
		}
		defer cleanup()

		prompt, opts, err := intakeArgs(ctx, req)
		if err != nil {
			deps.Logger.Debug("Rejected intake override",
				zap.String("firm_id", firmID.String()),
				zap.Error(err))
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}

		result, err := deps.IntakeService.ResolveAndCreate(tenantCtx, firmID, prompt, opts)
		if err != nil {
			if errResult := NewIntakeErrorResult(err); errResult != nil {
				deps.Logger.Debug("create_case rejected",
					zap.String("firm_id", firmID.String()),
					zap.String("error", err.Error()))
				return errResult, nil
			}
			deps.Logger.Error("create_case failed",
				zap.String("firm_id", firmID.String()),
				zap.String("prompt", logging.TruncateForLog(prompt)),
				zap.String("error", logging.SanitizeError(err)))
			return nil, fmt.Errorf("failed to create case: %w", err)
		}

		return jsonResult(result)
	})
}

func registerResolveCaseIntakeTool(s *server.MCPServer, deps *CaseIntakeToolDeps) {
	options := append([]mcp.ToolOption{
		mcp.WithDescription(
			"Preview how a case description would be resolved without creating anything. " +
				"Returns, per field, the candidate name, how it was found, the matched record and the match tier.",
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	}, intakeToolOptions()...)

	s.AddTool(mcp.NewTool("resolve_case_intake", options...), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		firmID, tenantCtx, cleanup, err := acquireFirmContext(ctx, deps.GetTenantContext)
		if err != nil {
			return nil, err
		}
		defer cleanup()

		prompt, opts, err := intakeArgs(ctx, req)
		if err != nil {
			deps.Logger.Debug("Rejected intake override",
				zap.String("firm_id", firmID.String()),
				zap.Error(err))
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}

		resolution, err := deps.IntakeService.Resolve(tenantCtx, firmID, prompt, opts)
		if err != nil {
			if errResult := NewIntakeErrorResult(err); errResult != nil {
				return errResult, nil
			}
			logFn := deps.Logger.Error
			if IsInputError(err) {
				logFn = deps.Logger.Debug
			}
			logFn("resolve_case_intake failed",
				zap.String("firm_id", firmID.String()),
				zap.String("error", logging.SanitizeError(err)))
			return nil, fmt.Errorf("failed to resolve case intake: %w", err)
		}

		return jsonResult(resolution)
	})
}
