package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-counsel/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-counsel/pkg/models"
	"github.com/ekaya-inc/ekaya-counsel/pkg/repositories"
	"github.com/ekaya-inc/ekaya-counsel/pkg/seed"
)

// LookupService manages the firm's clients, courts, case types and case statuses.
type LookupService interface {
	List(ctx context.Context, firmID uuid.UUID, entityType models.EntityType, includeInactive bool) ([]*models.NamedEntity, error)
	Get(ctx context.Context, firmID uuid.UUID, entityType models.EntityType, id int64) (*models.NamedEntity, error)
	Create(ctx context.Context, firmID uuid.UUID, entityType models.EntityType, name models.LocalizedName, createdBy *uuid.UUID) (*models.NamedEntity, error)
	Rename(ctx context.Context, firmID uuid.UUID, entityType models.EntityType, id int64, name models.LocalizedName) (*models.NamedEntity, error)
	SetStatus(ctx context.Context, firmID uuid.UUID, entityType models.EntityType, id int64, status models.EntityStatus) error

	// Candidates returns up to limit active display names in database order.
	// It is used for diagnostics only.
	Candidates(ctx context.Context, firmID uuid.UUID, entityType models.EntityType, limit int) ([]string, error)

	// SeedDefaults creates the default case statuses and case types that the
	// firm does not already have, matching by display name. Safe to repeat.
	SeedDefaults(ctx context.Context, firmID uuid.UUID, createdBy *uuid.UUID) (*SeedResult, error)
}

// SeedResult counts what SeedDefaults created and skipped per lookup type.
type SeedResult struct {
	Created map[models.EntityType]int `json:"created"`
	Skipped map[models.EntityType]int `json:"skipped"`
}

type lookupService struct {
	repo     repositories.LookupRepository
	defaults *seed.Defaults
	logger   *zap.Logger
}

// NewLookupService creates a LookupService. defaults may be nil, in which
// case SeedDefaults loads the embedded defaults.
func NewLookupService(repo repositories.LookupRepository, defaults *seed.Defaults, logger *zap.Logger) LookupService {
	return &lookupService{
		repo:     repo,
		defaults: defaults,
		logger:   logger.Named("lookups"),
	}
}

var _ LookupService = (*lookupService)(nil)

func (s *lookupService) List(ctx context.Context, firmID uuid.UUID, entityType models.EntityType, includeInactive bool) ([]*models.NamedEntity, error) {
	entities, err := s.repo.List(ctx, firmID, entityType, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", entityType.Table(), err)
	}
	return entities, nil
}

func (s *lookupService) Get(ctx context.Context, firmID uuid.UUID, entityType models.EntityType, id int64) (*models.NamedEntity, error) {
	return s.repo.GetByID(ctx, firmID, entityType, id)
}

func (s *lookupService) Create(ctx context.Context, firmID uuid.UUID, entityType models.EntityType, name models.LocalizedName, createdBy *uuid.UUID) (*models.NamedEntity, error) {
	if !entityType.Valid() {
		return nil, apperrors.ErrInvalidEntityType
	}
	if name.IsEmpty() {
		return nil, apperrors.ErrInvalidName
	}

	entity := &models.NamedEntity{
		FirmID:    firmID,
		Type:      entityType,
		Name:      name,
		Status:    models.StatusActive,
		CreatedBy: createdBy,
	}
	if err := s.repo.Create(ctx, entity); err != nil {
		return nil, err
	}

	s.logger.Info("Created lookup entity",
		zap.String("firm_id", firmID.String()),
		zap.String("type", string(entityType)),
		zap.Int64("id", entity.ID),
		zap.String("name", entity.DisplayName()))
	return entity, nil
}

func (s *lookupService) Rename(ctx context.Context, firmID uuid.UUID, entityType models.EntityType, id int64, name models.LocalizedName) (*models.NamedEntity, error) {
	if name.IsEmpty() {
		return nil, apperrors.ErrInvalidName
	}
	return s.repo.UpdateName(ctx, firmID, entityType, id, name)
}

func (s *lookupService) SetStatus(ctx context.Context, firmID uuid.UUID, entityType models.EntityType, id int64, status models.EntityStatus) error {
	if err := s.repo.SetStatus(ctx, firmID, entityType, id, status); err != nil {
		return err
	}
	s.logger.Info("Changed lookup entity status",
		zap.String("firm_id", firmID.String()),
		zap.String("type", string(entityType)),
		zap.Int64("id", id),
		zap.String("status", string(status)))
	return nil
}

func (s *lookupService) Candidates(ctx context.Context, firmID uuid.UUID, entityType models.EntityType, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	entities, err := s.repo.ListActive(ctx, firmID, entityType, limit)
	if err != nil {
		return nil, fmt.Errorf("list %s candidates: %w", entityType.Label(), err)
	}

	names := make([]string, 0, len(entities))
	for _, e := range entities {
		names = append(names, e.DisplayName())
	}
	return names, nil
}

func (s *lookupService) SeedDefaults(ctx context.Context, firmID uuid.UUID, createdBy *uuid.UUID) (*SeedResult, error) {
	defaults := s.defaults
	if defaults == nil {
		var err error
		if defaults, err = seed.Load(); err != nil {
			return nil, err
		}
	}

	result := &SeedResult{
		Created: make(map[models.EntityType]int),
		Skipped: make(map[models.EntityType]int),
	}

	for _, entityType := range []models.EntityType{models.EntityCaseStatus, models.EntityCaseType} {
		existing, err := s.repo.List(ctx, firmID, entityType, true)
		if err != nil {
			return nil, fmt.Errorf("list existing %s: %w", entityType.Table(), err)
		}
		have := make(map[string]bool, len(existing))
		for _, e := range existing {
			have[strings.ToLower(e.DisplayName())] = true
		}

		for _, entry := range defaults.For(entityType) {
			name := entry.Name()
			key := strings.ToLower(name.Resolve(""))
			if have[key] {
				result.Skipped[entityType]++
				continue
			}
			if _, err := s.Create(ctx, firmID, entityType, name, createdBy); err != nil {
				return nil, fmt.Errorf("seed %s %q: %w", entityType.Label(), name.Resolve(""), err)
			}
			have[key] = true
			result.Created[entityType]++
		}
	}

	s.logger.Info("Seeded default lookups",
		zap.String("firm_id", firmID.String()),
		zap.Int("case_statuses_created", result.Created[models.EntityCaseStatus]),
		zap.Int("case_types_created", result.Created[models.EntityCaseType]))
	return result, nil
}
