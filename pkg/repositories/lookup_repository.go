package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/ekaya-counsel/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-counsel/pkg/database"
	"github.com/ekaya-inc/ekaya-counsel/pkg/models"
)

// LookupRepository provides data access for the firm-scoped lookup tables
// (clients, courts, case types, case statuses). All reads are ordered by id so
// callers see a stable database order.
type LookupRepository interface {
	// ListActive returns active entities of the type. limit <= 0 returns all.
	ListActive(ctx context.Context, firmID uuid.UUID, entityType models.EntityType, limit int) ([]*models.NamedEntity, error)
	// List returns entities of the type, optionally including inactive ones.
	List(ctx context.Context, firmID uuid.UUID, entityType models.EntityType, includeInactive bool) ([]*models.NamedEntity, error)
	// GetByID returns apperrors.ErrNotFound when the id does not exist in the firm.
	GetByID(ctx context.Context, firmID uuid.UUID, entityType models.EntityType, id int64) (*models.NamedEntity, error)
	// GetDefaultStatus returns the oldest active case status, or nil when the firm has none.
	GetDefaultStatus(ctx context.Context, firmID uuid.UUID) (*models.NamedEntity, error)
	Create(ctx context.Context, entity *models.NamedEntity) error
	UpdateName(ctx context.Context, firmID uuid.UUID, entityType models.EntityType, id int64, name models.LocalizedName) (*models.NamedEntity, error)
	SetStatus(ctx context.Context, firmID uuid.UUID, entityType models.EntityType, id int64, status models.EntityStatus) error
}

type lookupRepository struct{}

// NewLookupRepository creates a new LookupRepository.
func NewLookupRepository() LookupRepository {
	return &lookupRepository{}
}

var _ LookupRepository = (*lookupRepository)(nil)

const lookupColumns = `id, firm_id, name, status, created_by, created_at, updated_at`

func (r *lookupRepository) ListActive(ctx context.Context, firmID uuid.UUID, entityType models.EntityType, limit int) ([]*models.NamedEntity, error) {
	scope, table, err := lookupScope(ctx, entityType)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE firm_id = $1 AND status = 'active'
		ORDER BY id`, lookupColumns, table)
	args := []any{firmID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := scope.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query active %s: %w", table, err)
	}
	return scanNamedEntities(rows, entityType)
}

func (r *lookupRepository) List(ctx context.Context, firmID uuid.UUID, entityType models.EntityType, includeInactive bool) ([]*models.NamedEntity, error) {
	scope, table, err := lookupScope(ctx, entityType)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE firm_id = $1 AND ($2 OR status = 'active')
		ORDER BY id`, lookupColumns, table)

	rows, err := scope.Conn.Query(ctx, query, firmID, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	return scanNamedEntities(rows, entityType)
}

func (r *lookupRepository) GetByID(ctx context.Context, firmID uuid.UUID, entityType models.EntityType, id int64) (*models.NamedEntity, error) {
	scope, table, err := lookupScope(ctx, entityType)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE firm_id = $1 AND id = $2`, lookupColumns, table)

	entity, err := scanNamedEntity(scope.Conn.QueryRow(ctx, query, firmID, id), entityType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return entity, nil
}

func (r *lookupRepository) GetDefaultStatus(ctx context.Context, firmID uuid.UUID) (*models.NamedEntity, error) {
	scope, table, err := lookupScope(ctx, models.EntityCaseStatus)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE firm_id = $1 AND status = 'active'
		ORDER BY created_at ASC, id ASC
		LIMIT 1`, lookupColumns, table)

	entity, err := scanNamedEntity(scope.Conn.QueryRow(ctx, query, firmID), models.EntityCaseStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return entity, nil
}

func (r *lookupRepository) Create(ctx context.Context, entity *models.NamedEntity) error {
	scope, table, err := lookupScope(ctx, entity.Type)
	if err != nil {
		return err
	}

	name, err := json.Marshal(entity.Name)
	if err != nil {
		return fmt.Errorf("failed to marshal name: %w", err)
	}
	if entity.Status == "" {
		entity.Status = models.StatusActive
	}

	now := time.Now()
	query := fmt.Sprintf(`
		INSERT INTO %s (firm_id, name, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`, table)

	err = scope.Conn.QueryRow(ctx, query,
		entity.FirmID,
		name,
		entity.Status,
		entity.CreatedBy,
		now,
		now,
	).Scan(&entity.ID, &entity.CreatedAt, &entity.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", entity.Type.Label(), err)
	}

	return nil
}

func (r *lookupRepository) UpdateName(ctx context.Context, firmID uuid.UUID, entityType models.EntityType, id int64, name models.LocalizedName) (*models.NamedEntity, error) {
	scope, table, err := lookupScope(ctx, entityType)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(name)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal name: %w", err)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $3, updated_at = now()
		WHERE firm_id = $1 AND id = $2
		RETURNING %s`, table, lookupColumns)

	entity, err := scanNamedEntity(scope.Conn.QueryRow(ctx, query, firmID, id, data), entityType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return entity, nil
}

func (r *lookupRepository) SetStatus(ctx context.Context, firmID uuid.UUID, entityType models.EntityType, id int64, status models.EntityStatus) error {
	if !status.Valid() {
		return apperrors.ErrInvalidStatus
	}
	scope, table, err := lookupScope(ctx, entityType)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE %s SET status = $3, updated_at = now() WHERE firm_id = $1 AND id = $2`, table)

	result, err := scope.Conn.Exec(ctx, query, firmID, id, status)
	if err != nil {
		return fmt.Errorf("failed to update %s status: %w", entityType.Label(), err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ============================================================================
// Helper Functions
// ============================================================================

// lookupScope returns the tenant scope and the table for entityType. The table
// name comes from a fixed allowlist, never from caller input.
func lookupScope(ctx context.Context, entityType models.EntityType) (*database.TenantScope, string, error) {
	if !entityType.Valid() {
		return nil, "", apperrors.ErrInvalidEntityType
	}
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, "", fmt.Errorf("no tenant scope in context")
	}
	return scope, entityType.Table(), nil
}

func scanNamedEntities(rows pgx.Rows, entityType models.EntityType) ([]*models.NamedEntity, error) {
	defer rows.Close()

	var entities []*models.NamedEntity
	for rows.Next() {
		entity, err := scanNamedEntity(rows, entityType)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", entityType.Table(), err)
	}
	return entities, nil
}

func scanNamedEntity(row pgx.Row, entityType models.EntityType) (*models.NamedEntity, error) {
	e := models.NamedEntity{Type: entityType}
	var name []byte

	err := row.Scan(
		&e.ID,
		&e.FirmID,
		&name,
		&e.Status,
		&e.CreatedBy,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan %s: %w", entityType.Label(), err)
	}

	if err := decodeName(name, &e.Name); err != nil {
		return nil, fmt.Errorf("failed to decode %s %d name: %w", entityType.Label(), e.ID, err)
	}
	return &e, nil
}

// decodeName parses a JSONB name column. NULL leaves the zero name.
func decodeName(data []byte, name *models.LocalizedName) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, name)
}
