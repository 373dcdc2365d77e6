package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-counsel/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-counsel/pkg/audit"
	"github.com/ekaya-inc/ekaya-counsel/pkg/intake"
	"github.com/ekaya-inc/ekaya-counsel/pkg/llm"
	"github.com/ekaya-inc/ekaya-counsel/pkg/logging"
	"github.com/ekaya-inc/ekaya-counsel/pkg/models"
	"github.com/ekaya-inc/ekaya-counsel/pkg/repositories"
)

// Candidate sources recorded on each FieldResolution.
const (
	SourceHint     = "hint"
	SourcePattern  = "pattern:"
	SourceFallback = "fallback"
	SourceMention  = "mention"
	SourceOverride = "override"
	SourceDefault  = "default"
)

// IntakeConfig tunes the case intake resolver.
type IntakeConfig struct {
	// CandidateLimits caps the names listed per field in diagnostics.
	CandidateLimits map[models.EntityType]int
	// AIHintsEnabled turns the model hint call on. Without it, resolution
	// relies on pattern extraction alone.
	AIHintsEnabled bool
}

// DefaultIntakeConfig lists 10 clients, 10 courts, 5 case types and 5 statuses.
func DefaultIntakeConfig() IntakeConfig {
	return IntakeConfig{
		CandidateLimits: map[models.EntityType]int{
			models.EntityClient:     10,
			models.EntityCourt:      10,
			models.EntityCaseType:   5,
			models.EntityCaseStatus: 5,
		},
		AIHintsEnabled: true,
	}
}

// CaseIntakeService turns a free-text case description into a case.
//
// Client, court and case type are resolved from an override id, else from a
// candidate name (AI hint, then prompt patterns) matched against the firm's
// active entities. The case status is the override or the firm's oldest active
// status. Fields are validated in the order client, case type, case status,
// court; the first unresolved one is reported and nothing is created.
type CaseIntakeService interface {
	// ResolveAndCreate resolves the prompt and creates the case. Errors are
	// *PreconditionError, *UnresolvedFieldError, *PersistenceError, or a
	// lookup failure.
	ResolveAndCreate(ctx context.Context, firmID uuid.UUID, prompt string, opts models.IntakeOptions) (*models.CaseIntakeResult, error)

	// Resolve runs resolution only. Unresolved fields are reported in the
	// Resolution rather than as an error.
	Resolve(ctx context.Context, firmID uuid.UUID, prompt string, opts models.IntakeOptions) (*models.Resolution, error)
}

type caseIntakeService struct {
	lookupRepo repositories.LookupRepository
	lookups    LookupService
	cases      CaseService
	hints      CaseHintService
	auditor    audit.IntakeAuditor
	config     IntakeConfig
	logger     *zap.Logger
}

// NewCaseIntakeService creates a CaseIntakeService. hints may be nil when no
// AI provider is configured.
func NewCaseIntakeService(
	lookupRepo repositories.LookupRepository,
	lookups LookupService,
	cases CaseService,
	hints CaseHintService,
	auditor audit.IntakeAuditor,
	config IntakeConfig,
	logger *zap.Logger,
) CaseIntakeService {
	return &caseIntakeService{
		lookupRepo: lookupRepo,
		lookups:    lookups,
		cases:      cases,
		hints:      hints,
		auditor:    auditor,
		config:     config,
		logger:     logger.Named("case-intake"),
	}
}

var _ CaseIntakeService = (*caseIntakeService)(nil)

func (s *caseIntakeService) ResolveAndCreate(ctx context.Context, firmID uuid.UUID, prompt string, opts models.IntakeOptions) (*models.CaseIntakeResult, error) {
	createdBy, err := requesterID(opts.UserID)
	if err != nil {
		s.auditFailure(ctx, firmID, prompt, err)
		return nil, err
	}

	s.auditor.ScreenPrompt(ctx, firmID, prompt)

	res, err := s.Resolve(ctx, firmID, prompt, opts)
	if err != nil {
		s.auditFailure(ctx, firmID, prompt, err)
		return nil, err
	}

	if res.Missing != "" {
		field := res.Field(res.Missing)
		unresolved := &UnresolvedFieldError{
			Field:      res.Missing,
			Candidates: field.Available,
			Extracted:  field.Unmatched(),
		}
		s.logger.Warn("Case intake unresolved",
			zap.String("firm_id", firmID.String()),
			zap.String("field", string(res.Missing)),
			zap.String("candidate", field.Candidate),
			zap.String("source", field.Source),
			zap.Strings("available", field.Available),
			zap.String("prompt", logging.TruncateForLog(res.Prompt)))
		s.auditFailure(ctx, firmID, prompt, unresolved)
		return nil, unresolved
	}

	c, err := s.cases.CreateCase(ctx, &CreateCaseRequest{
		FirmID:     firmID,
		Prompt:     res.Prompt,
		Hints:      res.Hints,
		Resolution: res,
		CreatedBy:  &createdBy,
	})
	if err != nil {
		s.logger.Error("Case creation failed after resolution",
			zap.String("firm_id", firmID.String()),
			zap.Any("entities", res.Entities()),
			zap.String("prompt", logging.TruncateForLog(res.Prompt)),
			zap.String("error", logging.SanitizeError(err)))
		persistErr := &PersistenceError{Prompt: res.Prompt, Options: opts, Err: err}
		s.auditFailure(ctx, firmID, prompt, persistErr)
		return nil, persistErr
	}

	ids := res.Entities()
	s.auditor.LogIntakeResolved(ctx, firmID, audit.IntakeResolvedDetails{
		CaseID:       c.CaseID,
		ClientID:     ids.ClientID,
		CourtID:      ids.CourtID,
		CaseTypeID:   ids.CaseTypeID,
		CaseStatusID: ids.CaseStatusID,
	})

	return &models.CaseIntakeResult{
		Success:       true,
		Case:          c.View(),
		ExtractedInfo: extractedInfo(res),
		Resolution:    res,
		Message:       fmt.Sprintf("Case %s created: %s", c.CaseID, c.Title),
	}, nil
}

func (s *caseIntakeService) Resolve(ctx context.Context, firmID uuid.UUID, prompt string, opts models.IntakeOptions) (*models.Resolution, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, &PreconditionError{Reason: "prompt is required"}
	}
	if firmID == uuid.Nil {
		return nil, &PreconditionError{Reason: "firm id is required"}
	}

	res := &models.Resolution{
		FirmID: firmID,
		Prompt: prompt,
		Hints:  s.extractHints(ctx, firmID, prompt),
	}

	s.logger.Info("Resolving case intake",
		zap.String("firm_id", firmID.String()),
		zap.String("prompt", logging.TruncateForLog(prompt)),
		zap.String("hint_client", res.Hints.SuggestedClient),
		zap.String("hint_court", res.Hints.SuggestedCourt),
		zap.String("hint_case_type", res.Hints.SuggestedCaseType))

	for _, t := range []models.EntityType{models.EntityClient, models.EntityCourt, models.EntityCaseType} {
		if err := s.resolveNamed(ctx, res, t, opts.For(t)); err != nil {
			return nil, err
		}
	}
	if err := s.resolveStatus(ctx, res, opts.CaseStatusID); err != nil {
		return nil, err
	}

	for _, t := range models.AllEntityTypes {
		field := res.Field(t)
		if field.Match.Matched() {
			continue
		}
		if res.Missing == "" {
			res.Missing = t
		}
		available, err := s.lookups.Candidates(ctx, firmID, t, s.config.CandidateLimits[t])
		if err != nil {
			return nil, err
		}
		field.Available = available
	}

	s.logger.Info("Case intake resolution finished",
		zap.String("firm_id", firmID.String()),
		zap.Bool("resolved", res.Missing == ""),
		zap.String("missing", string(res.Missing)),
		zap.Any("entities", res.Entities()))
	return res, nil
}

// extractHints calls the hint service when enabled. Failures are logged and
// resolution continues with empty hints.
func (s *caseIntakeService) extractHints(ctx context.Context, firmID uuid.UUID, prompt string) *models.CaseHints {
	if s.hints == nil || !s.config.AIHintsEnabled {
		return &models.CaseHints{}
	}

	hints, err := s.hints.ExtractHints(ctx, firmID, prompt)
	if err != nil {
		s.logger.Warn("AI hint extraction failed, continuing with prompt patterns",
			zap.String("firm_id", firmID.String()),
			zap.String("error_type", string(llm.GetErrorType(err))),
			zap.String("error", logging.SanitizeError(err)))
		return &models.CaseHints{}
	}
	if hints == nil {
		return &models.CaseHints{}
	}
	return hints
}

// resolveNamed resolves client, court or case type: override first, then the
// candidate name matched against the firm's active entities.
func (s *caseIntakeService) resolveNamed(ctx context.Context, res *models.Resolution, t models.EntityType, overrideID *int64) error {
	field := res.Field(t)

	if overrideID != nil {
		entity, err := s.overrideEntity(ctx, res.FirmID, t, *overrideID)
		if err != nil {
			return err
		}
		if entity != nil {
			field.Source = SourceOverride
			field.Match = models.MatchOf(entity, models.TierOverride)
			s.logMatch(res, field)
			return nil
		}
	}

	entities, err := s.lookupRepo.ListActive(ctx, res.FirmID, t, 0)
	if err != nil {
		return fmt.Errorf("load active %s: %w", t.Table(), err)
	}

	field.Candidate, field.Source = candidateFor(res, t, entities)
	if field.Candidate == "" {
		s.logger.Debug("No candidate name for field",
			zap.String("firm_id", res.FirmID.String()),
			zap.String("field", string(t)))
		return nil
	}

	field.Match = intake.Match(field.Candidate, entities)
	s.logMatch(res, field)
	return nil
}

// candidateFor picks the name to match: the hint, else the first prompt
// pattern for the field, else a field-specific probe of the prompt.
func candidateFor(res *models.Resolution, t models.EntityType, entities []*models.NamedEntity) (string, string) {
	if hint := strings.TrimSpace(res.Hints.Hint(t)); hint != "" {
		return hint, SourceHint
	}

	switch t {
	case models.EntityClient, models.EntityCourt:
		if ext, ok := intake.Extract(res.Prompt, t); ok {
			return ext.Candidate, SourcePattern + ext.Rule
		}
		if t == models.EntityClient {
			names := make([]string, 0, len(entities))
			for _, e := range entities {
				if e.IsActive() {
					names = append(names, e.DisplayName())
				}
			}
			if phrase, ok := intake.ProbeClientPhrase(res.Prompt, names); ok {
				return phrase, SourceFallback
			}
		}
	case models.EntityCaseType:
		if e := intake.FindMentioned(res.Prompt, entities); e != nil {
			return e.DisplayName(), SourceMention
		}
	}
	return "", ""
}

// resolveStatus uses the override, else the firm's oldest active case status.
func (s *caseIntakeService) resolveStatus(ctx context.Context, res *models.Resolution, overrideID *int64) error {
	field := res.Field(models.EntityCaseStatus)

	if overrideID != nil {
		entity, err := s.overrideEntity(ctx, res.FirmID, models.EntityCaseStatus, *overrideID)
		if err != nil {
			return err
		}
		if entity != nil {
			field.Source = SourceOverride
			field.Match = models.MatchOf(entity, models.TierOverride)
			s.logMatch(res, field)
			return nil
		}
	}

	status, err := s.lookupRepo.GetDefaultStatus(ctx, res.FirmID)
	if err != nil {
		return fmt.Errorf("load default case status: %w", err)
	}
	if status == nil {
		s.logger.Warn("Firm has no active case status",
			zap.String("firm_id", res.FirmID.String()))
		return nil
	}

	field.Source = SourceDefault
	field.Candidate = status.DisplayName()
	field.Match = models.MatchOf(status, models.TierExact)
	s.logMatch(res, field)
	return nil
}

// overrideEntity loads an override id. Ids that are missing from the firm or
// inactive return (nil, nil) so resolution falls through to name matching.
func (s *caseIntakeService) overrideEntity(ctx context.Context, firmID uuid.UUID, t models.EntityType, id int64) (*models.NamedEntity, error) {
	entity, err := s.lookupRepo.GetByID(ctx, firmID, t, id)
	if errors.Is(err, apperrors.ErrNotFound) {
		s.logger.Warn("Ignoring override id not found in firm",
			zap.String("firm_id", firmID.String()),
			zap.String("field", string(t)),
			zap.Int64("id", id))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s override %d: %w", t.Label(), id, err)
	}
	if !entity.IsActive() {
		s.logger.Warn("Ignoring inactive override id",
			zap.String("firm_id", firmID.String()),
			zap.String("field", string(t)),
			zap.Int64("id", id))
		return nil, nil
	}
	return entity, nil
}

func (s *caseIntakeService) logMatch(res *models.Resolution, field *models.FieldResolution) {
	fields := []zap.Field{
		zap.String("firm_id", res.FirmID.String()),
		zap.String("field", string(field.Field)),
		zap.String("source", field.Source),
		zap.String("candidate", field.Candidate),
		zap.String("tier", string(field.Match.Tier)),
	}
	if field.Match.Matched() {
		fields = append(fields,
			zap.Int64("entity_id", field.Match.ID()),
			zap.String("matched_name", *field.Match.MatchedName))
	}
	s.logger.Info("Field resolved", fields...)
}

func (s *caseIntakeService) auditFailure(ctx context.Context, firmID uuid.UUID, prompt string, err error) {
	details := audit.IntakeFailedDetails{Prompt: prompt}

	var (
		precondition *PreconditionError
		unresolved   *UnresolvedFieldError
		persistence  *PersistenceError
	)
	switch {
	case errors.As(err, &precondition):
		details.Reason = "precondition_failed"
	case errors.As(err, &unresolved):
		details.Reason = "unresolved_field"
		details.Field = string(unresolved.Field)
		details.Extracted = unresolved.Extracted
	case errors.As(err, &persistence):
		details.Reason = "persistence_failed"
	default:
		details.Reason = "lookup_failed"
	}
	s.auditor.LogIntakeFailed(ctx, firmID, details)
}

// requesterID validates the user id the case is created by.
func requesterID(userID string) (uuid.UUID, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return uuid.Nil, &PreconditionError{Reason: "user id is required"}
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, &PreconditionError{Reason: fmt.Sprintf("user id %q is not a valid UUID", userID)}
	}
	return id, nil
}

// extractedInfo passes the model's fields through unchanged and adds the
// candidate names found in the prompt for fields the model left out.
func extractedInfo(res *models.Resolution) map[string]any {
	info := make(map[string]any)
	if res.Hints != nil {
		for k, v := range res.Hints.Raw {
			info[k] = v
		}
	}

	keys := map[models.EntityType]string{
		models.EntityClient:   "suggested_client",
		models.EntityCourt:    "suggested_court",
		models.EntityCaseType: "suggested_case_type",
	}
	for t, key := range keys {
		if v, ok := info[key]; ok && v != nil && v != "" {
			continue
		}
		field := res.Field(t)
		if field.Candidate != "" && field.Source != SourceHint {
			info[key] = field.Candidate
		}
	}
	return info
}
