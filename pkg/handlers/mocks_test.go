package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/ekaya-inc/ekaya-counsel/pkg/auth"
	"github.com/ekaya-inc/ekaya-counsel/pkg/models"
	"github.com/ekaya-inc/ekaya-counsel/pkg/services"
)

// mockCaseIntakeService records the last call and returns canned results.
type mockCaseIntakeService struct {
	result     *models.CaseIntakeResult
	resolution *models.Resolution
	err        error

	lastFirmID uuid.UUID
	lastPrompt string
	lastOpts   models.IntakeOptions
}

func (m *mockCaseIntakeService) ResolveAndCreate(ctx context.Context, firmID uuid.UUID, prompt string, opts models.IntakeOptions) (*models.CaseIntakeResult, error) {
	m.lastFirmID, m.lastPrompt, m.lastOpts = firmID, prompt, opts
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockCaseIntakeService) Resolve(ctx context.Context, firmID uuid.UUID, prompt string, opts models.IntakeOptions) (*models.Resolution, error) {
	m.lastFirmID, m.lastPrompt, m.lastOpts = firmID, prompt, opts
	if m.err != nil {
		return nil, m.err
	}
	return m.resolution, nil
}

// mockCaseService serves cases from a slice.
type mockCaseService struct {
	cases []*models.Case
	err   error

	lastLimit, lastOffset int
}

func (m *mockCaseService) CreateCase(ctx context.Context, req *services.CreateCaseRequest) (*models.Case, error) {
	return nil, errors.New("not implemented")
}

func (m *mockCaseService) GetCase(ctx context.Context, firmID uuid.UUID, id int64) (*models.Case, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, c := range m.cases {
		if c.FirmID == firmID && c.ID == id {
			return c, nil
		}
	}
	return nil, errNotFound
}

func (m *mockCaseService) ListCases(ctx context.Context, firmID uuid.UUID, limit, offset int) ([]*models.Case, error) {
	m.lastLimit, m.lastOffset = limit, offset
	if m.err != nil {
		return nil, m.err
	}
	var out []*models.Case
	for _, c := range m.cases {
		if c.FirmID == firmID {
			out = append(out, c)
		}
	}
	return out, nil
}

// mockLookupService returns canned entities and errors.
type mockLookupService struct {
	entities []*models.NamedEntity
	seed     *services.SeedResult
	err      error

	lastName            models.LocalizedName
	lastStatus          models.EntityStatus
	lastIncludeInactive bool
	lastCreatedBy       *uuid.UUID
}

func (m *mockLookupService) List(ctx context.Context, firmID uuid.UUID, entityType models.EntityType, includeInactive bool) ([]*models.NamedEntity, error) {
	m.lastIncludeInactive = includeInactive
	if m.err != nil {
		return nil, m.err
	}
	return m.entities, nil
}

func (m *mockLookupService) Get(ctx context.Context, firmID uuid.UUID, entityType models.EntityType, id int64) (*models.NamedEntity, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, e := range m.entities {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, errNotFound
}

func (m *mockLookupService) Create(ctx context.Context, firmID uuid.UUID, entityType models.EntityType, name models.LocalizedName, createdBy *uuid.UUID) (*models.NamedEntity, error) {
	m.lastName, m.lastCreatedBy = name, createdBy
	if m.err != nil {
		return nil, m.err
	}
	return &models.NamedEntity{ID: 7, FirmID: firmID, Type: entityType, Name: name, Status: models.StatusActive, CreatedBy: createdBy}, nil
}

func (m *mockLookupService) Rename(ctx context.Context, firmID uuid.UUID, entityType models.EntityType, id int64, name models.LocalizedName) (*models.NamedEntity, error) {
	m.lastName = name
	if m.err != nil {
		return nil, m.err
	}
	return &models.NamedEntity{ID: id, FirmID: firmID, Type: entityType, Name: name, Status: models.StatusActive}, nil
}

func (m *mockLookupService) SetStatus(ctx context.Context, firmID uuid.UUID, entityType models.EntityType, id int64, status models.EntityStatus) error {
	m.lastStatus = status
	return m.err
}

func (m *mockLookupService) Candidates(ctx context.Context, firmID uuid.UUID, entityType models.EntityType, limit int) ([]string, error) {
	return nil, m.err
}

func (m *mockLookupService) SeedDefaults(ctx context.Context, firmID uuid.UUID, createdBy *uuid.UUID) (*services.SeedResult, error) {
	m.lastCreatedBy = createdBy
	if m.err != nil {
		return nil, m.err
	}
	return m.seed, nil
}

// mockAuthService accepts every request with fixed claims.
type mockAuthService struct {
	claims *auth.Claims
	token  string
}

func (m *mockAuthService) ValidateRequest(r *http.Request) (*auth.Claims, string, error) {
	return m.claims, m.token, nil
}

func (m *mockAuthService) RequireFirmID(claims *auth.Claims) error {
	if claims.FirmID == "" {
		return errors.New("missing firm ID")
	}
	return nil
}

func (m *mockAuthService) ValidateFirmIDMatch(claims *auth.Claims, urlFirmID string) error {
	if urlFirmID != "" && urlFirmID != claims.FirmID {
		return errors.New("firm ID mismatch")
	}
	return nil
}

// passthroughTenant stands in for database.WithTenantContext.
func passthroughTenant(next http.HandlerFunc) http.HandlerFunc {
	return next
}

// withUser returns ctx carrying claims for userID in firmID.
func withUser(ctx context.Context, firmID uuid.UUID, userID string) context.Context {
	claims := &auth.Claims{FirmID: firmID.String()}
	claims.Subject = userID
	return auth.WithClaims(ctx, claims, "test-token")
}
