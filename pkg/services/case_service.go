package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-counsel/pkg/models"
	"github.com/ekaya-inc/ekaya-counsel/pkg/repositories"
)

// maxTitleLength bounds generated and model-supplied case titles (in runes).
const maxTitleLength = 200

// CreateCaseRequest is everything case creation needs from a resolved intake.
type CreateCaseRequest struct {
	FirmID     uuid.UUID
	Prompt     string
	Hints      *models.CaseHints
	Resolution *models.Resolution
	CreatedBy  *uuid.UUID
}

// CaseService creates and reads cases.
type CaseService interface {
	// CreateCase persists a case for a fully resolved intake and returns it
	// with its lookup references filled in.
	CreateCase(ctx context.Context, req *CreateCaseRequest) (*models.Case, error)
	GetCase(ctx context.Context, firmID uuid.UUID, id int64) (*models.Case, error)
	ListCases(ctx context.Context, firmID uuid.UUID, limit, offset int) ([]*models.Case, error)
}

type caseService struct {
	caseRepo repositories.CaseRepository
	logger   *zap.Logger
}

// NewCaseService creates a new CaseService.
func NewCaseService(caseRepo repositories.CaseRepository, logger *zap.Logger) CaseService {
	return &caseService{
		caseRepo: caseRepo,
		logger:   logger.Named("cases"),
	}
}

var _ CaseService = (*caseService)(nil)

func (s *caseService) CreateCase(ctx context.Context, req *CreateCaseRequest) (*models.Case, error) {
	if req.Resolution == nil || !req.Resolution.Resolved() {
		return nil, fmt.Errorf("case entities are not fully resolved")
	}

	ids := req.Resolution.Entities()
	c := &models.Case{
		FirmID:       req.FirmID,
		Title:        caseTitle(req.Hints, req.Resolution),
		Description:  caseDescription(req.Hints, req.Prompt),
		ClientID:     ids.ClientID,
		CourtID:      ids.CourtID,
		CaseTypeID:   ids.CaseTypeID,
		CaseStatusID: ids.CaseStatusID,
		Priority:     models.NormalizePriority(hintPriority(req.Hints)),
		CreatedBy:    req.CreatedBy,
	}

	if err := s.caseRepo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("Created case",
		zap.String("firm_id", req.FirmID.String()),
		zap.Int64("id", c.ID),
		zap.String("case_id", c.CaseID))

	stored, err := s.caseRepo.GetByID(ctx, req.FirmID, c.ID)
	if err != nil {
		return nil, fmt.Errorf("reload created case %d: %w", c.ID, err)
	}
	return stored, nil
}

func (s *caseService) GetCase(ctx context.Context, firmID uuid.UUID, id int64) (*models.Case, error) {
	return s.caseRepo.GetByID(ctx, firmID, id)
}

func (s *caseService) ListCases(ctx context.Context, firmID uuid.UUID, limit, offset int) ([]*models.Case, error) {
	return s.caseRepo.List(ctx, firmID, limit, offset)
}

// caseTitle uses the hint title, else "<case type> - <client>".
func caseTitle(hints *models.CaseHints, res *models.Resolution) string {
	if hints != nil && strings.TrimSpace(hints.Title) != "" {
		return truncateRunes(strings.TrimSpace(hints.Title), maxTitleLength)
	}

	caseType := matchedName(res, models.EntityCaseType)
	client := matchedName(res, models.EntityClient)
	return truncateRunes(caseType+" - "+client, maxTitleLength)
}

func caseDescription(hints *models.CaseHints, prompt string) string {
	if hints != nil && strings.TrimSpace(hints.Description) != "" {
		return strings.TrimSpace(hints.Description)
	}
	return strings.TrimSpace(prompt)
}

func hintPriority(hints *models.CaseHints) string {
	if hints == nil {
		return ""
	}
	return hints.Priority
}

func matchedName(res *models.Resolution, t models.EntityType) string {
	if name := res.Field(t).Match.MatchedName; name != nil {
		return *name
	}
	return models.UnknownName
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n]))
}
