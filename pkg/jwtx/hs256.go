package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrInvalidSig   = errors.New("jwtx: invalid signature")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrKindMismatch = errors.New("jwtx: token kind mismatch")
)

// Signer is our interface for anything that can sign token claims.
type Signer interface {
	Sign(Claims) (string, error)
}

// Verifier validates a token and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// Codec both signs and verifies; the HS256 implementation satisfies it.
type Codec interface {
	Signer
	Verifier
}

// HS256 signs and verifies tokens with a single shared secret. That is all
// a first-party deployment needs: the same process mints and checks every
// token, so there is no key distribution problem to solve.
type HS256 struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// NewHS256 creates a codec from the shared secret. The issuer is enforced
// on verification when non-empty.
func NewHS256(secret []byte, issuer string) (*HS256, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwtx: empty HS256 secret")
	}
	return &HS256{
		secret: secret,
		issuer: issuer,
		leeway: 30 * time.Second, // clock skew tolerance
	}, nil
}

// Sign takes claims and turns them into a signed compact JWT string.
func (h *HS256) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(h.secret)
}

// Verify parses and validates a compact JWT, returning its claims.
// Signature, expiry/nbf and issuer are all enforced here; the caller is
// still responsible for checking the token kind.
func (h *HS256) Verify(token string) (Claims, error) {
	var claims Claims

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(h.leeway),
		jwt.WithExpirationRequired(),
	}
	if h.issuer != "" {
		opts = append(opts, jwt.WithIssuer(h.issuer))
	}

	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return h.secret, nil
	}, opts...)
	if err != nil {
		return Claims{}, mapParseError(err)
	}

	return claims, nil
}

// mapParseError collapses the library's error tree into our sentinels so
// callers can branch with errors.Is without importing golang-jwt.
func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrIssuer
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	default:
		return ErrMalformed
	}
}
