package auth

import (
	"errors"
	"strings"
	"time"
)

// DefaultTokenLifetime applies when no positive lifetime is configured.
const DefaultTokenLifetime = 15 * time.Minute

// MinTokenLifetime is the shortest lifetime a token can carry. Token
// timestamps have one second resolution.
const MinTokenLifetime = time.Second

var (
	// ErrTokenExpired is returned for correctly signed tokens past their expiry.
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrEmptySubject is returned when issuing a token without a subject.
	ErrEmptySubject = errors.New("auth: token subject is empty")
)

// TokenService issues and validates access tokens.
type TokenService struct {
	key      SigningKey
	lifetime time.Duration
	now      func() time.Time
}

// TokenOption customizes a TokenService.
type TokenOption func(*TokenService)

// WithClock replaces the wall clock used for issuing and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewTokenService builds a new service around an already derived key.
// A non-positive lifetime selects DefaultTokenLifetime. Other lifetimes are
// truncated to whole seconds, with MinTokenLifetime as the floor, so the
// expiry encoded in a token always equals issuedAt plus Lifetime.
func NewTokenService(key SigningKey, lifetime time.Duration, opts ...TokenOption) (*TokenService, error) {
	if key.IsZero() {
		return nil, errors.New("auth: signing key is required")
	}
	switch {
	case lifetime <= 0:
		lifetime = DefaultTokenLifetime
	case lifetime < MinTokenLifetime:
		lifetime = MinTokenLifetime
	default:
		lifetime = lifetime.Truncate(time.Second)
	}

	s := &TokenService{key: key, lifetime: lifetime, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Lifetime returns how long issued tokens stay valid.
func (s *TokenService) Lifetime() time.Duration {
	return s.lifetime
}

// Now reads the clock used for issuing and expiry checks.
func (s *TokenService) Now() time.Time {
	return s.now()
}

// LifetimeSeconds returns the lifetime in whole seconds, as used for cookie Max-Age.
func (s *TokenService) LifetimeSeconds() int {
	return int(s.lifetime / time.Second)
}

// Issue signs a token for subject. Token timestamps have one second
// resolution, so issuedAt is the current second.
func (s *TokenService) Issue(subject string) (string, time.Time, error) {
	if strings.TrimSpace(subject) == "" {
		return "", time.Time{}, ErrEmptySubject
	}

	issuedAt := s.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(s.lifetime)

	token, err := EncodeToken(Claims{Subject: subject, IssuedAt: issuedAt, ExpiresAt: expiresAt}, s.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Verify decodes the token and applies the expiry policy.
func (s *TokenService) Verify(tokenStr string) (Claims, error) {
	claims, err := DecodeToken(tokenStr, s.key)
	if err != nil {
		return Claims{}, err
	}
	if claims.Expired(s.now()) {
		return Claims{}, ErrTokenExpired
	}
	return claims, nil
}

// Validate reports whether the token is correctly signed and unexpired.
func (s *TokenService) Validate(tokenStr string) bool {
	_, err := s.Verify(tokenStr)
	return err == nil
}

// ExtractSubject returns the subject of a valid token.
func (s *TokenService) ExtractSubject(tokenStr string) (string, error) {
	claims, err := s.Verify(tokenStr)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
