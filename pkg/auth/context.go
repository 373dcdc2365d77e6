package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// GetUserIDFromContext returns the token subject, or "" when unauthenticated.
func GetUserIDFromContext(ctx context.Context) string {
	claims, ok := GetClaims(ctx)
	if !ok {
		return ""
	}
	return claims.Subject
}

// GetFirmIDFromContext returns the firm from the token, or uuid.Nil when it
// is missing or malformed.
func GetFirmIDFromContext(ctx context.Context) uuid.UUID {
	claims, ok := GetClaims(ctx)
	if !ok || claims.FirmID == "" {
		return uuid.Nil
	}

	firmID, err := uuid.Parse(claims.FirmID)
	if err != nil {
		return uuid.Nil
	}
	return firmID
}

// RequireFirmIDFromContext returns the firm from the token or an error.
func RequireFirmIDFromContext(ctx context.Context) (uuid.UUID, error) {
	firmID := GetFirmIDFromContext(ctx)
	if firmID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("firm ID not found in context")
	}
	return firmID, nil
}
