package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token lifetimes for the access/refresh pair. The access token is
// short-lived; the refresh token exists so browsers keep a session alive
// without re-entering a password.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Token kinds carried in the "kind" claim. A refresh token must never be
// accepted where an access token is expected, even though both are signed
// with the same secret.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// Claims are the claims embedded in both halves of the credential pair.
// The subject is the account ID; both halves of a valid pair assert the
// same subject.
type Claims struct {
	jwt.RegisteredClaims

	// Kind distinguishes access from refresh tokens ("access"/"refresh").
	Kind string `json:"kind,omitempty"`

	// Username for the authenticated account, for display without a lookup.
	Username string `json:"username,omitempty"`
}

// NewClaims builds minimally-correct claims for one half of a pair.
func NewClaims(subject, username, kind, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Kind:     kind,
		Username: username,
	}
}

// RequireKind checks that the token's kind matches the expected one.
func (c *Claims) RequireKind(kind string) error {
	if c.Kind != kind {
		return ErrKindMismatch
	}
	return nil
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
