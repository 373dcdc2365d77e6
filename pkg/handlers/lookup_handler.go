package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-counsel/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-counsel/pkg/auth"
	"github.com/ekaya-inc/ekaya-counsel/pkg/models"
	"github.com/ekaya-inc/ekaya-counsel/pkg/services"
)

// LookupNameRequest for POST /lookups/{type} and PUT /lookups/{type}/{eid}.
// Name is a plain string or a locale map such as {"en": "...", "ar": "..."}.
type LookupNameRequest struct {
	Name models.LocalizedName `json:"name"`
}

// LookupStatusRequest for PATCH /lookups/{type}/{eid}/status
type LookupStatusRequest struct {
	Status models.EntityStatus `json:"status"`
}

// LookupListResponse for GET /lookups/{type}
type LookupListResponse struct {
	Type     models.EntityType     `json:"type"`
	Entities []*models.NamedEntity `json:"entities"`
	Total    int                   `json:"total"`
}

// LookupHandler handles the firm's client, court, case type and case status lists.
type LookupHandler struct {
	lookupService services.LookupService
	logger        *zap.Logger
}

// NewLookupHandler creates a new lookup handler.
func NewLookupHandler(lookupService services.LookupService, logger *zap.Logger) *LookupHandler {
	return &LookupHandler{
		lookupService: lookupService,
		logger:        logger,
	}
}

// RegisterRoutes registers the lookup handler's routes on the given mux.
func (h *LookupHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, tenantMiddleware TenantMiddleware) {
	base := "/api/firms/{fid}/lookups"

	mux.HandleFunc("POST "+base+"/seed",
		authMiddleware.RequireAuthWithPathValidation("fid")(tenantMiddleware(h.Seed)))
	mux.HandleFunc("GET "+base+"/{type}",
		authMiddleware.RequireAuthWithPathValidation("fid")(tenantMiddleware(h.List)))
	mux.HandleFunc("POST "+base+"/{type}",
		authMiddleware.RequireAuthWithPathValidation("fid")(tenantMiddleware(h.Create)))
	mux.HandleFunc("PUT "+base+"/{type}/{eid}",
		authMiddleware.RequireAuthWithPathValidation("fid")(tenantMiddleware(h.Rename)))
	mux.HandleFunc("PATCH "+base+"/{type}/{eid}/status",
		authMiddleware.RequireAuthWithPathValidation("fid")(tenantMiddleware(h.SetStatus)))
}

// List handles GET /api/firms/{fid}/lookups/{type}?include_inactive=true
func (h *LookupHandler) List(w http.ResponseWriter, r *http.Request) {
	firmID, ok := ParseFirmID(w, r, h.logger)
	if !ok {
		return
	}
	entityType, ok := ParseLookupType(w, r, h.logger)
	if !ok {
		return
	}
	includeInactive := r.URL.Query().Get("include_inactive") == "true"

	entities, err := h.lookupService.List(r.Context(), firmID, entityType, includeInactive)
	if err != nil {
		h.writeLookupError(w, "list", firmID, entityType, err)
		return
	}
	if entities == nil {
		entities = []*models.NamedEntity{}
	}

	writeOK(w, h.logger, http.StatusOK, LookupListResponse{
		Type:     entityType,
		Entities: entities,
		Total:    len(entities),
	})
}

// Create handles POST /api/firms/{fid}/lookups/{type}
func (h *LookupHandler) Create(w http.ResponseWriter, r *http.Request) {
	firmID, ok := ParseFirmID(w, r, h.logger)
	if !ok {
		return
	}
	entityType, ok := ParseLookupType(w, r, h.logger)
	if !ok {
		return
	}

	var req LookupNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	entity, err := h.lookupService.Create(r.Context(), firmID, entityType, req.Name, requester(r))
	if err != nil {
		h.writeLookupError(w, "create", firmID, entityType, err)
		return
	}

	writeOK(w, h.logger, http.StatusCreated, entity)
}

// Rename handles PUT /api/firms/{fid}/lookups/{type}/{eid}
func (h *LookupHandler) Rename(w http.ResponseWriter, r *http.Request) {
	firmID, ok := ParseFirmID(w, r, h.logger)
	if !ok {
		return
	}
	entityType, ok := ParseLookupType(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseLookupID(w, r, h.logger)
	if !ok {
		return
	}

	var req LookupNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	entity, err := h.lookupService.Rename(r.Context(), firmID, entityType, id, req.Name)
	if err != nil {
		h.writeLookupError(w, "rename", firmID, entityType, err)
		return
	}

	writeOK(w, h.logger, http.StatusOK, entity)
}

// SetStatus handles PATCH /api/firms/{fid}/lookups/{type}/{eid}/status.
// Inactive entities stay on cases but are no longer matched or listed.
func (h *LookupHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	firmID, ok := ParseFirmID(w, r, h.logger)
	if !ok {
		return
	}
	entityType, ok := ParseLookupType(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseLookupID(w, r, h.logger)
	if !ok {
		return
	}

	var req LookupStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	if err := h.lookupService.SetStatus(r.Context(), firmID, entityType, id, req.Status); err != nil {
		h.writeLookupError(w, "set status", firmID, entityType, err)
		return
	}

	writeOK(w, h.logger, http.StatusOK, map[string]any{"id": id, "status": req.Status})
}

// Seed handles POST /api/firms/{fid}/lookups/seed
func (h *LookupHandler) Seed(w http.ResponseWriter, r *http.Request) {
	firmID, ok := ParseFirmID(w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.lookupService.SeedDefaults(r.Context(), firmID, requester(r))
	if err != nil {
		h.logger.Error("Failed to seed lookups",
			zap.String("firm_id", firmID.String()),
			zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "seed_failed", "Failed to seed default lookups")
		return
	}

	writeOK(w, h.logger, http.StatusOK, result)
}

func (h *LookupHandler) writeLookupError(w http.ResponseWriter, op string, firmID uuid.UUID, entityType models.EntityType, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		writeError(w, h.logger, http.StatusNotFound, "lookup_not_found", "Lookup entity not found")
	case errors.Is(err, apperrors.ErrConflict):
		writeError(w, h.logger, http.StatusConflict, "lookup_conflict", "A lookup entity with this name already exists")
	case errors.Is(err, apperrors.ErrInvalidName),
		errors.Is(err, apperrors.ErrInvalidStatus),
		errors.Is(err, apperrors.ErrInvalidEntityType):
		writeError(w, h.logger, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		h.logger.Error("Lookup operation failed",
			zap.String("op", op),
			zap.String("firm_id", firmID.String()),
			zap.String("type", string(entityType)),
			zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "lookup_failed", "Lookup operation failed")
	}
}

// requester returns the authenticated subject as a UUID, or nil.
func requester(r *http.Request) *uuid.UUID {
	id, err := uuid.Parse(auth.GetUserIDFromContext(r.Context()))
	if err != nil {
		return nil
	}
	return &id
}
