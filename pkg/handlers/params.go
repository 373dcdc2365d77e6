package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-counsel/pkg/models"
)

// ParseFirmID extracts and validates the firm ID from the request path.
// Returns the parsed UUID and true on success, or uuid.Nil and false on error
// (after writing an error response).
// Expects path parameter: fid
func ParseFirmID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	idStr := r.PathValue("fid")
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, logger, http.StatusBadRequest, "invalid_firm_id", "Invalid firm ID format")
		return uuid.Nil, false
	}
	return id, true
}

// ParseLookupType extracts the lookup type from the request path. Accepts the
// URL form ("case-types") and the type name ("case_type").
// Expects path parameter: type
func ParseLookupType(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (models.EntityType, bool) {
	entityType, err := models.ParseEntityType(r.PathValue("type"))
	if err != nil {
		writeError(w, logger, http.StatusBadRequest, "invalid_lookup_type",
			"Lookup type must be one of clients, courts, case-types, case-statuses")
		return "", false
	}
	return entityType, true
}

// ParseLookupID extracts a lookup entity ID. Expects path parameter: eid
func ParseLookupID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	return parseInt64ID(w, r, "eid", "invalid_lookup_id", "Invalid lookup ID", logger)
}

// ParseCaseID extracts a case ID. Expects path parameter: cid
func ParseCaseID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	return parseInt64ID(w, r, "cid", "invalid_case_id", "Invalid case ID", logger)
}

func parseInt64ID(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.PathValue(pathParam)), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, logger, http.StatusBadRequest, errorCode, errorMessage)
		return 0, false
	}
	return id, true
}

// ParsePagination reads limit and offset query parameters. Missing or invalid
// values fall back to defaultLimit and 0; limit is capped at maxLimit.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) (int, int) {
	limit := defaultLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	offset := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

// writeError writes an error response and logs if the write itself fails.
func writeError(w http.ResponseWriter, logger *zap.Logger, statusCode int, errorCode, message string) {
	if err := ErrorResponse(w, statusCode, errorCode, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

// writeOK wraps data in ApiResponse and logs if the write fails.
func writeOK(w http.ResponseWriter, logger *zap.Logger, statusCode int, data any) {
	if err := WriteJSON(w, statusCode, ApiResponse{Success: true, Data: data}); err != nil {
		logger.Error("Failed to write response", zap.Error(err))
	}
}
