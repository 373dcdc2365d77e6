package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/ekaya-counsel/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-counsel/pkg/database"
	"github.com/ekaya-inc/ekaya-counsel/pkg/models"
)

// CaseRepository provides data access for cases.
type CaseRepository interface {
	// Create allocates the next firm counter value, fills CaseID and CaseNumber,
	// and inserts the case in one transaction.
	Create(ctx context.Context, c *models.Case) error
	// GetByID returns the case with its lookup references, or apperrors.ErrNotFound.
	GetByID(ctx context.Context, firmID uuid.UUID, id int64) (*models.Case, error)
	// List returns cases newest first.
	List(ctx context.Context, firmID uuid.UUID, limit, offset int) ([]*models.Case, error)
}

type caseRepository struct {
	now func() time.Time
}

// NewCaseRepository creates a new CaseRepository.
func NewCaseRepository() CaseRepository {
	return &caseRepository{now: time.Now}
}

var _ CaseRepository = (*caseRepository)(nil)

func (r *caseRepository) Create(ctx context.Context, c *models.Case) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	now := r.now().UTC()

	return scope.InTx(ctx, func(tx pgx.Tx) error {
		var seq int64
		err := tx.QueryRow(ctx, `
			INSERT INTO case_counters (firm_id, last_value)
			VALUES ($1, 1)
			ON CONFLICT (firm_id) DO UPDATE SET last_value = case_counters.last_value + 1
			RETURNING last_value`, c.FirmID).Scan(&seq)
		if err != nil {
			return fmt.Errorf("failed to allocate case number: %w", err)
		}

		c.CaseID = models.FormatCaseID(seq)
		c.CaseNumber = models.FormatCaseNumber(now.Year(), seq)

		query := `
			INSERT INTO cases (
				firm_id, case_id, case_number, title, description,
				client_id, court_id, case_type_id, case_status_id,
				priority, created_by, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING id, created_at, updated_at`

		err = tx.QueryRow(ctx, query,
			c.FirmID,
			c.CaseID,
			c.CaseNumber,
			c.Title,
			c.Description,
			c.ClientID,
			c.CourtID,
			c.CaseTypeID,
			c.CaseStatusID,
			c.Priority,
			c.CreatedBy,
			now,
			now,
		).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create case: %w", err)
		}
		return nil
	})
}

const caseSelect = `
	SELECT c.id, c.firm_id, c.case_id, c.case_number, c.title, c.description,
	       c.client_id, c.court_id, c.case_type_id, c.case_status_id,
	       c.priority, c.created_by, c.created_at, c.updated_at,
	       cl.name, co.name, ct.name, cs.name
	FROM cases c
	LEFT JOIN clients cl ON cl.id = c.client_id
	LEFT JOIN courts co ON co.id = c.court_id
	LEFT JOIN case_types ct ON ct.id = c.case_type_id
	LEFT JOIN case_statuses cs ON cs.id = c.case_status_id`

func (r *caseRepository) GetByID(ctx context.Context, firmID uuid.UUID, id int64) (*models.Case, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	row := scope.Conn.QueryRow(ctx, caseSelect+` WHERE c.firm_id = $1 AND c.id = $2`, firmID, id)
	c, err := scanCase(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *caseRepository) List(ctx context.Context, firmID uuid.UUID, limit, offset int) ([]*models.Case, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := scope.Conn.Query(ctx,
		caseSelect+` WHERE c.firm_id = $1 ORDER BY c.created_at DESC, c.id DESC LIMIT $2 OFFSET $3`,
		firmID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query cases: %w", err)
	}
	defer rows.Close()

	var cases []*models.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cases: %w", err)
	}
	return cases, nil
}

func scanCase(row pgx.Row) (*models.Case, error) {
	var c models.Case
	var clientName, courtName, caseTypeName, caseStatusName []byte

	err := row.Scan(
		&c.ID,
		&c.FirmID,
		&c.CaseID,
		&c.CaseNumber,
		&c.Title,
		&c.Description,
		&c.ClientID,
		&c.CourtID,
		&c.CaseTypeID,
		&c.CaseStatusID,
		&c.Priority,
		&c.CreatedBy,
		&c.CreatedAt,
		&c.UpdatedAt,
		&clientName,
		&courtName,
		&caseTypeName,
		&caseStatusName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan case: %w", err)
	}

	if c.Client, err = entityRef(c.ClientID, clientName); err != nil {
		return nil, err
	}
	if c.Court, err = entityRef(c.CourtID, courtName); err != nil {
		return nil, err
	}
	if c.CaseType, err = entityRef(c.CaseTypeID, caseTypeName); err != nil {
		return nil, err
	}
	if c.CaseStatus, err = entityRef(c.CaseStatusID, caseStatusName); err != nil {
		return nil, err
	}

	return &c, nil
}

// entityRef builds the {id, name} reference for a joined lookup row. A missing
// row (NULL name) yields nil.
func entityRef(id int64, name []byte) (*models.EntityRef, error) {
	if name == nil {
		return nil, nil
	}
	var n models.LocalizedName
	if err := decodeName(name, &n); err != nil {
		return nil, fmt.Errorf("failed to decode name of lookup %d: %w", id, err)
	}
	return models.RefOf(&models.NamedEntity{ID: id, Name: n}), nil
}
