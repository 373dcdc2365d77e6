package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ekaya-inc/ekaya-counsel/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-counsel/pkg/audit"
	"github.com/ekaya-inc/ekaya-counsel/pkg/models"
)

var baseTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// memLookupRepo is an in-memory LookupRepository. Entities are kept in id
// order and every read is filtered by firm, like the SQL implementation.
type memLookupRepo struct {
	entities []*models.NamedEntity
	nextID   int64
	err      error
}

func (m *memLookupRepo) add(firmID uuid.UUID, t models.EntityType, name string) *models.NamedEntity {
	return m.addName(firmID, t, models.PlainName(name), models.StatusActive)
}

func (m *memLookupRepo) addName(firmID uuid.UUID, t models.EntityType, name models.LocalizedName, status models.EntityStatus) *models.NamedEntity {
	m.nextID++
	e := &models.NamedEntity{
		ID:        m.nextID,
		FirmID:    firmID,
		Type:      t,
		Name:      name,
		Status:    status,
		CreatedAt: baseTime.Add(time.Duration(m.nextID) * time.Minute),
	}
	m.entities = append(m.entities, e)
	return e
}

func (m *memLookupRepo) ListActive(_ context.Context, firmID uuid.UUID, t models.EntityType, limit int) ([]*models.NamedEntity, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*models.NamedEntity
	for _, e := range m.entities {
		if e.FirmID == firmID && e.Type == t && e.Status == models.StatusActive {
			out = append(out, e)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memLookupRepo) List(_ context.Context, firmID uuid.UUID, t models.EntityType, includeInactive bool) ([]*models.NamedEntity, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*models.NamedEntity
	for _, e := range m.entities {
		if e.FirmID == firmID && e.Type == t && (includeInactive || e.Status == models.StatusActive) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memLookupRepo) GetByID(_ context.Context, firmID uuid.UUID, t models.EntityType, id int64) (*models.NamedEntity, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, e := range m.entities {
		if e.FirmID == firmID && e.Type == t && e.ID == id {
			return e, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *memLookupRepo) GetDefaultStatus(ctx context.Context, firmID uuid.UUID) (*models.NamedEntity, error) {
	statuses, err := m.ListActive(ctx, firmID, models.EntityCaseStatus, 0)
	if err != nil || len(statuses) == 0 {
		return nil, err
	}
	sort.SliceStable(statuses, func(i, j int) bool {
		if statuses[i].CreatedAt.Equal(statuses[j].CreatedAt) {
			return statuses[i].ID < statuses[j].ID
		}
		return statuses[i].CreatedAt.Before(statuses[j].CreatedAt)
	})
	return statuses[0], nil
}

func (m *memLookupRepo) Create(_ context.Context, e *models.NamedEntity) error {
	if m.err != nil {
		return m.err
	}
	created := m.addName(e.FirmID, e.Type, e.Name, e.Status)
	created.CreatedBy = e.CreatedBy
	*e = *created
	return nil
}

func (m *memLookupRepo) UpdateName(ctx context.Context, firmID uuid.UUID, t models.EntityType, id int64, name models.LocalizedName) (*models.NamedEntity, error) {
	e, err := m.GetByID(ctx, firmID, t, id)
	if err != nil {
		return nil, err
	}
	e.Name = name
	return e, nil
}

func (m *memLookupRepo) SetStatus(ctx context.Context, firmID uuid.UUID, t models.EntityType, id int64, status models.EntityStatus) error {
	if !status.Valid() {
		return apperrors.ErrInvalidStatus
	}
	e, err := m.GetByID(ctx, firmID, t, id)
	if err != nil {
		return err
	}
	e.Status = status
	return nil
}

// memCaseRepo is an in-memory CaseRepository that joins names from lookups.
type memCaseRepo struct {
	lookups   *memLookupRepo
	cases     []*models.Case
	counters  map[uuid.UUID]int64
	createErr error
}

func newMemCaseRepo(lookups *memLookupRepo) *memCaseRepo {
	return &memCaseRepo{lookups: lookups, counters: make(map[uuid.UUID]int64)}
}

func (m *memCaseRepo) Create(_ context.Context, c *models.Case) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.counters[c.FirmID]++
	seq := m.counters[c.FirmID]
	c.ID = int64(len(m.cases) + 1)
	c.CaseID = models.FormatCaseID(seq)
	c.CaseNumber = models.FormatCaseNumber(2026, seq)
	c.CreatedAt = baseTime
	c.UpdatedAt = baseTime
	stored := *c
	m.cases = append(m.cases, &stored)
	return nil
}

func (m *memCaseRepo) GetByID(ctx context.Context, firmID uuid.UUID, id int64) (*models.Case, error) {
	for _, c := range m.cases {
		if c.FirmID == firmID && c.ID == id {
			out := *c
			out.Client = m.ref(ctx, firmID, models.EntityClient, c.ClientID)
			out.Court = m.ref(ctx, firmID, models.EntityCourt, c.CourtID)
			out.CaseType = m.ref(ctx, firmID, models.EntityCaseType, c.CaseTypeID)
			out.CaseStatus = m.ref(ctx, firmID, models.EntityCaseStatus, c.CaseStatusID)
			return &out, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *memCaseRepo) List(_ context.Context, firmID uuid.UUID, limit, offset int) ([]*models.Case, error) {
	var out []*models.Case
	for i := len(m.cases) - 1; i >= 0; i-- {
		if m.cases[i].FirmID == firmID {
			out = append(out, m.cases[i])
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memCaseRepo) ref(ctx context.Context, firmID uuid.UUID, t models.EntityType, id int64) *models.EntityRef {
	e, err := m.lookups.GetByID(ctx, firmID, t, id)
	if err != nil {
		return nil
	}
	return models.RefOf(e)
}

// fakeHintService returns fixed hints.
type fakeHintService struct {
	hints *models.CaseHints
	err   error
	calls int
}

func (f *fakeHintService) ExtractHints(_ context.Context, _ uuid.UUID, _ string) (*models.CaseHints, error) {
	f.calls++
	return f.hints, f.err
}

// fakeAuditor records audit calls.
type fakeAuditor struct {
	screened []string
	resolved []audit.IntakeResolvedDetails
	failed   []audit.IntakeFailedDetails
}

func (f *fakeAuditor) ScreenPrompt(_ context.Context, _ uuid.UUID, prompt string) bool {
	f.screened = append(f.screened, prompt)
	return false
}

func (f *fakeAuditor) LogIntakeResolved(_ context.Context, _ uuid.UUID, details audit.IntakeResolvedDetails) {
	f.resolved = append(f.resolved, details)
}

func (f *fakeAuditor) LogIntakeFailed(_ context.Context, _ uuid.UUID, details audit.IntakeFailedDetails) {
	f.failed = append(f.failed, details)
}
