package testhelpers

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/ekaya-inc/ekaya-counsel/pkg/auth"
)

// TestAudience is the aud claim of generated tokens.
const TestAudience = "counsel"

// GenerateTestJWT returns an unsigned (alg none) token for servers running
// with verification disabled. Empty firmID or email are left out.
func GenerateTestJWT(sub, firmID, email string) string {
	claims := &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  sub,
			Audience: jwt.ClaimStrings{TestAudience},
		},
		FirmID: firmID,
		Email:  email,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		panic(err)
	}
	return token
}

// GenerateTestJWTWithBearer returns an Authorization header value.
func GenerateTestJWTWithBearer(sub, firmID, email string) string {
	return "Bearer " + GenerateTestJWT(sub, firmID, email)
}
