package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IsExpired reports whether the access token's exp claim is in the past.
// The signature is not verified; the server remains the authority on token
// validity. Anything that cannot be decoded, including a token without an
// exp claim, counts as expired — never fail open on a credential.
func IsExpired(token string) bool {
	if token == "" {
		return true
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return true
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return exp.Time.Before(time.Now())
}
