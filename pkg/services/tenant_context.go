package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/ekaya-inc/ekaya-counsel/pkg/database"
)

// TenantContextFunc acquires a firm-scoped database connection for callers
// that run outside the HTTP tenant middleware (MCP tools).
// Returns the scoped context, a cleanup function (MUST be called), and any error.
type TenantContextFunc func(ctx context.Context, firmID uuid.UUID) (context.Context, func(), error)

// NewTenantContextFunc creates a TenantContextFunc that uses the given database.
func NewTenantContextFunc(db *database.DB) TenantContextFunc {
	return db.FirmContext
}
