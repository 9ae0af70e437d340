package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpired reports whether a bearer token is a JWT whose expiry claim has
// passed. The signature is deliberately not verified; only the backend can do
// that. Tokens that are not parseable JWTs, or carry no expiry claim, are
// reported as not expired and left for the backend to judge.
func TokenExpired(token string) bool {
	if token == "" {
		return false
	}
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
