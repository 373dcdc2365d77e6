package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-counsel/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-counsel/pkg/auth"
	"github.com/ekaya-inc/ekaya-counsel/pkg/jsonutil"
	"github.com/ekaya-inc/ekaya-counsel/pkg/models"
	"github.com/ekaya-inc/ekaya-counsel/pkg/services"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// CaseIntakeRequest for POST /cases/intake and /cases/intake/resolve.
// Ids accept numbers or numeric strings.
type CaseIntakeRequest struct {
	Prompt       string          `json:"prompt"`
	ClientID     json.RawMessage `json:"client_id,omitempty"`
	CourtID      json.RawMessage `json:"court_id,omitempty"`
	CaseTypeID   json.RawMessage `json:"case_type_id,omitempty"`
	CaseStatusID json.RawMessage `json:"case_status_id,omitempty"`
	UserID       string          `json:"user_id,omitempty"`
}

// Options converts the request to intake options. A missing user_id falls
// back to the authenticated subject. A supplied id that is not a positive
// integer is an error naming the field.
func (req *CaseIntakeRequest) Options(r *http.Request) (models.IntakeOptions, error) {
	var opts models.IntakeOptions
	for _, f := range []struct {
		name string
		raw  json.RawMessage
		dst  **int64
	}{
		{"client_id", req.ClientID, &opts.ClientID},
		{"court_id", req.CourtID, &opts.CourtID},
		{"case_type_id", req.CaseTypeID, &opts.CaseTypeID},
		{"case_status_id", req.CaseStatusID, &opts.CaseStatusID},
	} {
		id, err := jsonutil.OptionalID(f.raw)
		if err != nil {
			return models.IntakeOptions{}, fmt.Errorf("%s %w", f.name, err)
		}
		*f.dst = id
	}

	opts.UserID = req.UserID
	if opts.UserID == "" {
		opts.UserID = auth.GetUserIDFromContext(r.Context())
	}
	return opts, nil
}

// CaseListResponse for GET /cases
type CaseListResponse struct {
	Cases  []*models.Case `json:"cases"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// UnresolvedFieldDetails is attached to 422 responses.
type UnresolvedFieldDetails struct {
	Field      models.EntityType `json:"field"`
	Candidates []string          `json:"candidates"`
	Extracted  string            `json:"extracted,omitempty"`
}

const (
	defaultCaseListLimit = 50
	maxCaseListLimit     = 200
)

// ============================================================================
// Handler
// ============================================================================

// CaseIntakeHandler handles case intake and case read requests.
type CaseIntakeHandler struct {
	intakeService services.CaseIntakeService
	caseService   services.CaseService
	logger        *zap.Logger
}

// NewCaseIntakeHandler creates a new case intake handler.
func NewCaseIntakeHandler(
	intakeService services.CaseIntakeService,
	caseService services.CaseService,
	logger *zap.Logger,
) *CaseIntakeHandler {
	return &CaseIntakeHandler{
		intakeService: intakeService,
		caseService:   caseService,
		logger:        logger,
	}
}

// RegisterRoutes registers the case handler's routes on the given mux.
func (h *CaseIntakeHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, tenantMiddleware TenantMiddleware) {
	base := "/api/firms/{fid}/cases"

	mux.HandleFunc("POST "+base+"/intake",
		authMiddleware.RequireAuthWithPathValidation("fid")(tenantMiddleware(h.Intake)))
	mux.HandleFunc("POST "+base+"/intake/resolve",
		authMiddleware.RequireAuthWithPathValidation("fid")(tenantMiddleware(h.Resolve)))
	mux.HandleFunc("GET "+base,
		authMiddleware.RequireAuthWithPathValidation("fid")(tenantMiddleware(h.List)))
	mux.HandleFunc("GET "+base+"/{cid}",
		authMiddleware.RequireAuthWithPathValidation("fid")(tenantMiddleware(h.Get)))
}

// Intake handles POST /api/firms/{fid}/cases/intake
func (h *CaseIntakeHandler) Intake(w http.ResponseWriter, r *http.Request) {
	firmID, ok := ParseFirmID(w, r, h.logger)
	if !ok {
		return
	}

	var req CaseIntakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	opts, err := req.Options(r)
	if err != nil {
		h.logger.Debug("Rejected intake override",
			zap.String("firm_id", firmID.String()),
			zap.Error(err))
		writeError(w, h.logger, http.StatusBadRequest, "invalid_parameters", err.Error())
		return
	}

	result, err := h.intakeService.ResolveAndCreate(r.Context(), firmID, req.Prompt, opts)
	if err != nil {
		h.writeIntakeError(w, err)
		return
	}

	writeOK(w, h.logger, http.StatusCreated, result)
}

// Resolve handles POST /api/firms/{fid}/cases/intake/resolve. Nothing is
// created; unresolved fields are reported in the body.
func (h *CaseIntakeHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	firmID, ok := ParseFirmID(w, r, h.logger)
	if !ok {
		return
	}

	var req CaseIntakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	opts, err := req.Options(r)
	if err != nil {
		h.logger.Debug("Rejected intake override",
			zap.String("firm_id", firmID.String()),
			zap.Error(err))
		writeError(w, h.logger, http.StatusBadRequest, "invalid_parameters", err.Error())
		return
	}

	resolution, err := h.intakeService.Resolve(r.Context(), firmID, req.Prompt, opts)
	if err != nil {
		h.writeIntakeError(w, err)
		return
	}

	writeOK(w, h.logger, http.StatusOK, resolution)
}

// List handles GET /api/firms/{fid}/cases
func (h *CaseIntakeHandler) List(w http.ResponseWriter, r *http.Request) {
	firmID, ok := ParseFirmID(w, r, h.logger)
	if !ok {
		return
	}

	limit, offset := ParsePagination(r, defaultCaseListLimit, maxCaseListLimit)
	cases, err := h.caseService.ListCases(r.Context(), firmID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list cases",
			zap.String("firm_id", firmID.String()),
			zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "list_cases_failed", "Failed to list cases")
		return
	}
	if cases == nil {
		cases = []*models.Case{}
	}

	writeOK(w, h.logger, http.StatusOK, CaseListResponse{
		Cases:  cases,
		Total:  len(cases),
		Limit:  limit,
		Offset: offset,
	})
}

// Get handles GET /api/firms/{fid}/cases/{cid}
func (h *CaseIntakeHandler) Get(w http.ResponseWriter, r *http.Request) {
	firmID, ok := ParseFirmID(w, r, h.logger)
	if !ok {
		return
	}
	caseID, ok := ParseCaseID(w, r, h.logger)
	if !ok {
		return
	}

	c, err := h.caseService.GetCase(r.Context(), firmID, caseID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "case_not_found", "Case not found")
			return
		}
		h.logger.Error("Failed to get case",
			zap.String("firm_id", firmID.String()),
			zap.Int64("case_id", caseID),
			zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "get_case_failed", "Failed to get case")
		return
	}

	writeOK(w, h.logger, http.StatusOK, c)
}

// writeIntakeError maps intake errors to HTTP responses. Unresolved fields
// carry the user-facing message and the candidate list.
func (h *CaseIntakeHandler) writeIntakeError(w http.ResponseWriter, err error) {
	var precondition *services.PreconditionError
	var unresolved *services.UnresolvedFieldError

	switch {
	case errors.As(err, &precondition):
		writeError(w, h.logger, http.StatusBadRequest, "precondition_failed", precondition.Reason)
	case errors.As(err, &unresolved):
		details := UnresolvedFieldDetails{
			Field:      unresolved.Field,
			Candidates: unresolved.Candidates,
			Extracted:  unresolved.Extracted,
		}
		if details.Candidates == nil {
			details.Candidates = []string{}
		}
		if err := ErrorResponseWithDetails(w, http.StatusUnprocessableEntity, "unresolved_field", unresolved.Error(), details); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
	default:
		h.logger.Error("Case intake failed", zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "case_intake_failed", "Failed to create case")
	}
}
