package database

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-counsel/pkg/auth"
)

// WithTenantContext creates middleware that sets up a firm-scoped DB connection.
// It runs AFTER auth middleware and uses the firm ID from JWT claims.
// The connection is automatically cleaned up after the handler returns.
func WithTenantContext(db *DB, logger *zap.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.GetClaims(r.Context())
			if !ok || claims.FirmID == "" {
				logger.Error("Missing firm context in claims")
				writeError(w, http.StatusInternalServerError, "internal_error", "Missing firm context")
				return
			}

			firmID, err := uuid.Parse(claims.FirmID)
			if err != nil {
				logger.Error("Invalid firm ID format in claims",
					zap.String("firm_id", claims.FirmID),
					zap.Error(err))
				writeError(w, http.StatusBadRequest, "invalid_firm_id", "Invalid firm ID format")
				return
			}

			scope, err := db.WithTenant(r.Context(), firmID)
			if err != nil {
				logger.Error("Failed to acquire firm connection",
					zap.String("firm_id", firmID.String()),
					zap.Error(err))
				writeError(w, http.StatusInternalServerError, "database_error", "Database connection error")
				return
			}
			defer scope.Close()

			next(w, r.WithContext(SetTenantScope(r.Context(), scope)))
		}
	}
}

func writeError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}
