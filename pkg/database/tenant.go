package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TenantScope wraps a connection with firm context and ensures cleanup.
// The connection has app.current_firm_id set for RLS policy evaluation.
type TenantScope struct {
	Conn   *pgxpool.Conn
	FirmID uuid.UUID
}

// Close resets firm context and releases connection to pool.
// This MUST be called to prevent firm context from leaking to the next request.
func (s *TenantScope) Close() {
	if s.Conn == nil {
		return
	}
	_, _ = s.Conn.Exec(context.Background(), "RESET app.current_firm_id")
	s.Conn.Release()
}

// InTx runs fn inside a transaction on the scoped connection. The transaction
// is committed when fn returns nil and rolled back otherwise.
func (s *TenantScope) InTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// WithTenant acquires a connection and sets the firm context for RLS.
// The returned TenantScope MUST be closed with defer scope.Close().
func (db *DB) WithTenant(ctx context.Context, firmID uuid.UUID) (*TenantScope, error) {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	_, err = conn.Exec(ctx, "SELECT set_config('app.current_firm_id', $1, false)", firmID.String())
	if err != nil {
		conn.Release()
		return nil, err
	}

	return &TenantScope{Conn: conn, FirmID: firmID}, nil
}
