package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-counsel/pkg/auth"
	"github.com/ekaya-inc/ekaya-counsel/pkg/models"
	"github.com/ekaya-inc/ekaya-counsel/pkg/services"
)

// mockIntakeService records the last call and returns canned results.
type mockIntakeService struct {
	result     *models.CaseIntakeResult
	resolution *models.Resolution
	err        error

	calls      int
	lastFirmID uuid.UUID
	lastPrompt string
	lastOpts   models.IntakeOptions
}

func (m *mockIntakeService) ResolveAndCreate(ctx context.Context, firmID uuid.UUID, prompt string, opts models.IntakeOptions) (*models.CaseIntakeResult, error) {
	m.calls++
	m.lastFirmID, m.lastPrompt, m.lastOpts = firmID, prompt, opts
	return m.result, m.err
}

func (m *mockIntakeService) Resolve(ctx context.Context, firmID uuid.UUID, prompt string, opts models.IntakeOptions) (*models.Resolution, error) {
	m.calls++
	m.lastFirmID, m.lastPrompt, m.lastOpts = firmID, prompt, opts
	return m.resolution, m.err
}

// mockLookupService implements the Candidates call used by list_case_lookups.
type mockLookupService struct {
	services.LookupService
	names     map[models.EntityType][]string
	err       error
	lastLimit int
}

func (m *mockLookupService) Candidates(ctx context.Context, firmID uuid.UUID, entityType models.EntityType, limit int) ([]string, error) {
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	names := m.names[entityType]
	if len(names) > limit {
		names = names[:limit]
	}
	return names, nil
}

// noopTenantContext stands in for a database-backed TenantContextFunc.
type noopTenantContext struct {
	acquired, released int
	err                error
}

func (n *noopTenantContext) fn() services.TenantContextFunc {
	return func(ctx context.Context, firmID uuid.UUID) (context.Context, func(), error) {
		if n.err != nil {
			return nil, nil, n.err
		}
		n.acquired++
		return ctx, func() { n.released++ }, nil
	}
}

// firmContext returns a context authenticated as userID in firmID.
func firmContext(firmID uuid.UUID, userID string) context.Context {
	claims := &auth.Claims{FirmID: firmID.String()}
	claims.Subject = userID
	return auth.WithClaims(context.Background(), claims, "test-token")
}

type toolResponse struct {
	Result struct {
		Content []mcp.TextContent `json:"content"`
		IsError bool              `json:"isError"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// callTool sends a tools/call message through the server.
func callTool(t *testing.T, ctx context.Context, s *server.MCPServer, name string, args map[string]any) toolResponse {
	t.Helper()
	params, err := json.Marshal(map[string]any{"name": name, "arguments": args})
	require.NoError(t, err)
	msg := fmt.Sprintf(`{"jsonrpc":"2.0","method":"tools/call","params":%s,"id":1}`, params)

	raw, err := json.Marshal(s.HandleMessage(ctx, []byte(msg)))
	require.NoError(t, err)

	var resp toolResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	return resp
}

// toolNames lists the registered tools via tools/list.
func toolNames(t *testing.T, s *server.MCPServer) map[string]bool {
	t.Helper()
	raw, err := json.Marshal(s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"tools/list","id":1}`)))
	require.NoError(t, err)

	var response struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &response))

	names := make(map[string]bool)
	for _, tool := range response.Result.Tools {
		names[tool.Name] = true
	}
	return names
}
