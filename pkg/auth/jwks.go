package auth

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// TokenValidator turns a bearer token into firm claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
	Close()
}

// JWKSConfig configures token verification.
type JWKSConfig struct {
	// EnableVerification false parses tokens without checking signatures or
	// expiry. Only for local development.
	EnableVerification bool
	// JWKSEndpoints maps each trusted issuer to its JWKS URL. Tokens from any
	// other issuer are rejected.
	JWKSEndpoints map[string]string
	// Audience, when set, must appear in the aud claim.
	Audience string
}

// JWKSClient verifies RS-signed tokens against the key sets of trusted issuers.
type JWKSClient struct {
	verify  bool
	issuers map[string]keyfunc.Keyfunc
	parser  *jwt.Parser
}

var errClaimsType = errors.New("unexpected claims type")

// NewJWKSClient loads the key set of every trusted issuer. With verification
// enabled, an empty issuer list or an unreachable key set is an error.
func NewJWKSClient(ctx context.Context, config *JWKSConfig) (*JWKSClient, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"})}
	if config.Audience != "" {
		opts = append(opts, jwt.WithAudience(config.Audience))
	}
	client := &JWKSClient{
		verify:  config.EnableVerification,
		issuers: make(map[string]keyfunc.Keyfunc, len(config.JWKSEndpoints)),
		parser:  jwt.NewParser(opts...),
	}
	if !client.verify {
		return client, nil
	}
	if len(config.JWKSEndpoints) == 0 {
		return nil, errors.New("JWT verification is enabled but no JWKS endpoints are configured")
	}

	issuers := make([]string, 0, len(config.JWKSEndpoints))
	for issuer := range config.JWKSEndpoints {
		issuers = append(issuers, issuer)
	}
	sort.Strings(issuers)

	for _, issuer := range issuers {
		kf, err := keyfunc.NewDefaultCtx(ctx, []string{config.JWKSEndpoints[issuer]})
		if err != nil {
			return nil, fmt.Errorf("failed to load JWKS for issuer %s: %w", issuer, err)
		}
		client.issuers[issuer] = kf
	}
	return client, nil
}

// ValidateToken verifies tokenString and returns its claims. In unverified
// mode the claims are decoded as-is.
func (c *JWKSClient) ValidateToken(tokenString string) (*Claims, error) {
	if !c.verify {
		token, _, err := jwt.NewParser(jwt.WithoutClaimsValidation()).ParseUnverified(tokenString, &Claims{})
		if err != nil {
			return nil, fmt.Errorf("failed to parse token: %w", err)
		}
		return claimsOf(token)
	}

	token, err := c.parser.ParseWithClaims(tokenString, &Claims{}, c.keyFor)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	return claimsOf(token)
}

// keyFor picks the verification key from the key set of the token's issuer.
func (c *JWKSClient) keyFor(token *jwt.Token) (any, error) {
	claims, err := claimsOf(token)
	if err != nil {
		return nil, err
	}
	kf, ok := c.issuers[claims.Issuer]
	if !ok {
		return nil, fmt.Errorf("unauthorized issuer: %s", claims.Issuer)
	}
	return kf.Keyfunc(token)
}

func claimsOf(token *jwt.Token) (*Claims, error) {
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errClaimsType
	}
	return claims, nil
}

// Close is a no-op; keyfunc v3 stops refreshing when its context ends.
func (c *JWKSClient) Close() {}

var _ TokenValidator = (*JWKSClient)(nil)
