// Package mcpauth provides MCP-specific authentication middleware.
// It wraps the core auth service with RFC 6750 Bearer token error responses.
package mcpauth

import (
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-counsel/pkg/auth"
)

// AuthFailureRecorder receives rejected MCP requests for auditing.
type AuthFailureRecorder interface {
	RecordAuthFailure(firmID, userID, reason, clientIP string)
}

// Middleware provides MCP-specific authentication middleware.
// Unlike the general auth middleware, this returns RFC 6750 WWW-Authenticate
// headers for OAuth 2.0 Bearer token authentication errors.
type Middleware struct {
	authService auth.AuthService
	recorder    AuthFailureRecorder
	logger      *zap.Logger
}

// NewMiddleware creates a new MCP auth middleware. recorder may be nil.
func NewMiddleware(authService auth.AuthService, recorder AuthFailureRecorder, logger *zap.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		recorder:    recorder,
		logger:      logger,
	}
}

// RequireAuth validates the JWT and requires the firm ID to match the URL path.
// The pathParamName is the name used in r.PathValue() (e.g., "fid").
// Returns RFC 6750 WWW-Authenticate headers on authentication failures.
func (m *Middleware) RequireAuth(pathParamName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			urlFirmID := r.PathValue(pathParamName)

			claims, token, err := m.authService.ValidateRequest(r)
			if err != nil {
				m.logger.Debug("MCP auth failed: invalid or missing token",
					zap.String("path", r.URL.Path),
					zap.Error(err))
				m.recordFailure(r, urlFirmID, "", "invalid_token")
				m.writeWWWAuthenticate(w, http.StatusUnauthorized, "invalid_token", "The access token is invalid or expired")
				return
			}

			if err := m.authService.RequireFirmID(claims); err != nil {
				m.logger.Debug("MCP auth failed: missing firm ID",
					zap.String("path", r.URL.Path))
				m.recordFailure(r, urlFirmID, claims.Subject, "missing_firm_scope")
				m.writeWWWAuthenticate(w, http.StatusUnauthorized, "invalid_token", "The access token is missing required firm scope")
				return
			}

			if urlFirmID == "" {
				m.logger.Error("MCP auth failed: missing firm ID in URL path",
					zap.String("path", r.URL.Path),
					zap.String("path_param", pathParamName))
				m.writeWWWAuthenticate(w, http.StatusBadRequest, "invalid_request", "Missing firm ID in URL")
				return
			}

			if err := m.authService.ValidateFirmIDMatch(claims, urlFirmID); err != nil {
				m.logger.Warn("MCP auth failed: firm ID mismatch",
					zap.String("url_firm_id", urlFirmID),
					zap.String("token_firm_id", claims.FirmID))
				m.recordFailure(r, urlFirmID, claims.Subject, "firm_mismatch")
				m.writeWWWAuthenticate(w, http.StatusForbidden, "insufficient_scope", "The access token does not have access to this firm")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims, token)))
		})
	}
}

func (m *Middleware) recordFailure(r *http.Request, firmID, userID, reason string) {
	if m.recorder == nil {
		return
	}
	clientIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		clientIP = r.RemoteAddr
	}
	m.recorder.RecordAuthFailure(firmID, userID, reason, clientIP)
}

// writeWWWAuthenticate writes an RFC 6750 Bearer token error response.
// See: https://datatracker.ietf.org/doc/html/rfc6750#section-3
func (m *Middleware) writeWWWAuthenticate(w http.ResponseWriter, status int, errorCode, description string) {
	headerValue := `Bearer error="` + errorCode + `", error_description="` + description + `"`
	w.Header().Set("WWW-Authenticate", headerValue)
	w.WriteHeader(status)
}
