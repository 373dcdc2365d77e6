package database

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	// TenantScopeKey is the context key for storing the firm-scoped database connection.
	TenantScopeKey contextKey = "tenantScope"
)

// GetTenantScope retrieves the firm-scoped database connection from context.
// Returns nil and false if not present.
func GetTenantScope(ctx context.Context) (*TenantScope, bool) {
	scope, ok := ctx.Value(TenantScopeKey).(*TenantScope)
	return scope, ok && scope != nil
}

// SetTenantScope stores the firm-scoped database connection in context.
func SetTenantScope(ctx context.Context, scope *TenantScope) context.Context {
	return context.WithValue(ctx, TenantScopeKey, scope)
}

// FirmContext returns ctx carrying a connection scoped to firmID and the
// function that releases it. A ctx already scoped to the same firm is reused
// with a no-op release.
func (db *DB) FirmContext(ctx context.Context, firmID uuid.UUID) (context.Context, func(), error) {
	if scope, ok := GetTenantScope(ctx); ok && scope.FirmID == firmID {
		return ctx, func() {}, nil
	}
	scope, err := db.WithTenant(ctx, firmID)
	if err != nil {
		return nil, nil, err
	}
	return SetTenantScope(ctx, scope), scope.Close, nil
}
