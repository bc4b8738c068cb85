package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// MinSecretLength is the shortest accepted signing secret, in bytes.
const MinSecretLength = 32

const signingKeyInfo = "social-login/access-token/hs256"

// ErrWeakSecret is returned when the configured secret is too short for HS256.
var ErrWeakSecret = errors.New("auth: signing secret must be at least 32 bytes")

// SigningKey is the HMAC key shared by every token operation in the process.
// It is derived once at startup and never changes afterwards.
type SigningKey struct {
	material []byte
}

// NewSigningKey derives the HS256 key from the configured secret.
func NewSigningKey(secret string) (SigningKey, error) {
	if len(secret) < MinSecretLength {
		return SigningKey{}, ErrWeakSecret
	}

	material := make([]byte, sha256.Size)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte(signingKeyInfo))
	if _, err := io.ReadFull(kdf, material); err != nil {
		return SigningKey{}, fmt.Errorf("auth: derive signing key: %w", err)
	}
	return SigningKey{material: material}, nil
}

// IsZero reports whether the key was never derived.
func (k SigningKey) IsZero() bool {
	return len(k.material) == 0
}

// String keeps key material out of logs.
func (k SigningKey) String() string {
	return "[REDACTED_KEY]"
}

// GoString keeps key material out of %#v output.
func (k SigningKey) GoString() string {
	return k.String()
}
