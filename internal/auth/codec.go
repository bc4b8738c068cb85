package auth

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for malformed tokens and for tokens whose
// signature does not verify. Callers cannot tell the two apart.
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims are the fields carried by an access token.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the claims are no longer valid at now.
// A token is expired from the instant ExpiresAt is reached.
func (c Claims) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// tokenParser only checks structure and signature; expiry is policy and is
// decided by TokenService against its own clock.
var tokenParser = jwt.NewParser(
	jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	jwt.WithoutClaimsValidation(),
)

// EncodeToken signs claims into a compact HS256 JWT.
func EncodeToken(claims Claims, key SigningKey) (string, error) {
	if key.IsZero() {
		return "", errors.New("auth: signing key not initialized")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   claims.Subject,
		IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
	})
	return token.SignedString(key.material)
}

// DecodeToken verifies the signature of tokenStr and returns its claims.
// Expiry is not examined.
func DecodeToken(tokenStr string, key SigningKey) (Claims, error) {
	if key.IsZero() || tokenStr == "" {
		return Claims{}, ErrInvalidToken
	}

	var registered jwt.RegisteredClaims
	_, err := tokenParser.ParseWithClaims(tokenStr, &registered, func(*jwt.Token) (interface{}, error) {
		return key.material, nil
	})
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	if strings.TrimSpace(registered.Subject) == "" || registered.IssuedAt == nil || registered.ExpiresAt == nil {
		return Claims{}, ErrInvalidToken
	}

	return Claims{
		Subject:   registered.Subject,
		IssuedAt:  registered.IssuedAt.Time,
		ExpiresAt: registered.ExpiresAt.Time,
	}, nil
}
