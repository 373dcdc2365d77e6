package auth

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// CookieName is the cookie browser clients carry the JWT in.
const CookieName = "ekaya_counsel_jwt"

// Common authentication errors.
var (
	ErrMissingAuthorization = errors.New("missing authorization")
	ErrInvalidAuthFormat    = errors.New("invalid authorization header format")
	ErrMissingFirmID        = errors.New("missing firm ID in token")
	ErrFirmIDMismatch       = errors.New("firm ID mismatch between token and URL")
)

// AuthService extracts and checks request credentials.
type AuthService interface {
	// ValidateRequest reads the JWT from the CookieName cookie or a Bearer
	// Authorization header and validates it.
	ValidateRequest(r *http.Request) (*Claims, string, error)

	// RequireFirmID validates that the claims contain a firm ID.
	RequireFirmID(claims *Claims) error

	// ValidateFirmIDMatch ensures the URL firm ID matches the token firm ID.
	// If urlFirmID is empty, validation is skipped.
	ValidateFirmIDMatch(claims *Claims, urlFirmID string) error
}

type authService struct {
	jwksClient TokenValidator
	logger     *zap.Logger
}

// NewAuthService creates a new AuthService with the given JWKS client and logger.
func NewAuthService(jwksClient TokenValidator, logger *zap.Logger) AuthService {
	return &authService{
		jwksClient: jwksClient,
		logger:     logger,
	}
}

var _ AuthService = (*authService)(nil)

func (s *authService) ValidateRequest(r *http.Request) (*Claims, string, error) {
	tokenString, tokenSource, err := s.tokenFromRequest(r)
	if err != nil {
		return nil, "", err
	}

	claims, err := s.jwksClient.ValidateToken(tokenString)
	if err != nil {
		s.logger.Debug("JWT validation failed",
			zap.Error(err),
			zap.String("path", r.URL.Path),
			zap.String("token_source", tokenSource))
		return nil, "", err
	}

	return claims, tokenString, nil
}

func (s *authService) tokenFromRequest(r *http.Request) (string, string, error) {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value, "cookie", nil
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		s.logger.Debug("No JWT found in request",
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method))
		return "", "", ErrMissingAuthorization
	}

	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" || strings.Contains(token, " ") {
		s.logger.Debug("Invalid Authorization header format", zap.String("path", r.URL.Path))
		return "", "", ErrInvalidAuthFormat
	}
	return token, "header", nil
}

func (s *authService) RequireFirmID(claims *Claims) error {
	if claims.FirmID == "" {
		return ErrMissingFirmID
	}
	return nil
}

func (s *authService) ValidateFirmIDMatch(claims *Claims, urlFirmID string) error {
	if urlFirmID != "" && !strings.EqualFold(claims.FirmID, urlFirmID) {
		s.logger.Warn("Firm ID mismatch",
			zap.String("url_firm_id", urlFirmID),
			zap.String("token_firm_id", claims.FirmID))
		return ErrFirmIDMismatch
	}
	return nil
}
