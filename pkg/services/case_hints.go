package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-counsel/pkg/jsonutil"
	"github.com/ekaya-inc/ekaya-counsel/pkg/llm"
	"github.com/ekaya-inc/ekaya-counsel/pkg/logging"
	"github.com/ekaya-inc/ekaya-counsel/pkg/models"
	"github.com/ekaya-inc/ekaya-counsel/pkg/prompts"
	"github.com/ekaya-inc/ekaya-counsel/pkg/repositories"
	"github.com/ekaya-inc/ekaya-counsel/pkg/retry"
)

// knownNamesLimit bounds how many firm names are shown to the model per type.
const knownNamesLimit = 50

// CaseHintService asks the AI model for structured hints about an intake prompt.
type CaseHintService interface {
	ExtractHints(ctx context.Context, firmID uuid.UUID, prompt string) (*models.CaseHints, error)
}

type caseHintService struct {
	client      llm.LLMClient
	lookupRepo  repositories.LookupRepository
	retryConfig *retry.Config
	temperature float64
	logger      *zap.Logger
}

// NewCaseHintService creates a CaseHintService over client. retryConfig may
// be nil to use retry.HintConfig().
func NewCaseHintService(
	client llm.LLMClient,
	lookupRepo repositories.LookupRepository,
	retryConfig *retry.Config,
	temperature float64,
	logger *zap.Logger,
) CaseHintService {
	if retryConfig == nil {
		retryConfig = retry.HintConfig()
	}
	return &caseHintService{
		client:      client,
		lookupRepo:  lookupRepo,
		retryConfig: retryConfig,
		temperature: temperature,
		logger:      logger.Named("case-hints"),
	}
}

var _ CaseHintService = (*caseHintService)(nil)

func (s *caseHintService) ExtractHints(ctx context.Context, firmID uuid.UUID, prompt string) (*models.CaseHints, error) {
	known, err := s.knownNames(ctx, firmID)
	if err != nil {
		return nil, err
	}

	userPrompt := prompts.BuildCaseIntakePrompt(prompt, known)

	result, err := retry.DoIfRetryableWithResult(ctx, s.retryConfig, func() (*llm.GenerateResponseResult, error) {
		return s.client.GenerateResponse(ctx, userPrompt, prompts.CaseIntakeSystemMessage, s.temperature)
	})
	if err != nil {
		return nil, fmt.Errorf("hint extraction failed: %w", err)
	}

	s.logger.Debug("Hint extraction response",
		zap.String("firm_id", firmID.String()),
		zap.String("model", s.client.GetModel()),
		zap.Int("total_tokens", result.TotalTokens),
		zap.String("content", logging.TruncateForLog(result.Content)))

	return ParseCaseHints(result.Content)
}

func (s *caseHintService) knownNames(ctx context.Context, firmID uuid.UUID) (prompts.KnownNames, error) {
	var known prompts.KnownNames
	targets := []struct {
		entityType models.EntityType
		names      *[]string
	}{
		{models.EntityClient, &known.Clients},
		{models.EntityCourt, &known.Courts},
		{models.EntityCaseType, &known.CaseTypes},
	}

	for _, target := range targets {
		entities, err := s.lookupRepo.ListActive(ctx, firmID, target.entityType, knownNamesLimit)
		if err != nil {
			return known, fmt.Errorf("load known %s: %w", target.entityType.Table(), err)
		}
		for _, e := range entities {
			*target.names = append(*target.names, e.DisplayName())
		}
	}
	return known, nil
}

// nullWords are placeholder values models write instead of JSON null.
var nullWords = map[string]bool{"null": true, "none": true, "n/a": true, "unknown": true, "": true}

// ParseCaseHints decodes a model response into CaseHints. Values that are
// numbers or booleans are converted to strings, placeholder words such as
// "null" become empty, and every returned field is kept in Raw.
func ParseCaseHints(content string) (*models.CaseHints, error) {
	fields, err := llm.DecodeObject[map[string]json.RawMessage](content)
	if err != nil {
		return nil, fmt.Errorf("invalid hint response: %w", err)
	}

	hints := &models.CaseHints{Raw: make(map[string]any, len(fields))}
	for key, raw := range fields {
		var value any
		if err := json.Unmarshal(raw, &value); err == nil {
			hints.Raw[key] = value
		}
	}

	text := func(key string) string {
		v := strings.TrimSpace(jsonutil.FlexibleStringValue(fields[key]))
		if nullWords[strings.ToLower(v)] {
			return ""
		}
		return v
	}

	hints.SuggestedClient = text("suggested_client")
	hints.SuggestedCourt = text("suggested_court")
	hints.SuggestedCaseType = text("suggested_case_type")
	hints.Title = text("title")
	hints.Description = text("description")
	hints.Priority = text("priority")
	return hints, nil
}
