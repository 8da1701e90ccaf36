package jwtx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T) *HS256 {
	t.Helper()
	c, err := NewHS256([]byte("test-secret-0123456789"), "addismelody")
	require.NoError(t, err)
	return c
}

func TestNewHS256RequiresSecret(t *testing.T) {
	t.Parallel()

	_, err := NewHS256(nil, "addismelody")
	require.Error(t, err)
}

func TestSignVerifyRoundTrip(t *testing.T) {
	t.Parallel()
	c := newTestCodec(t)

	claims := NewClaims("user-1", "natnael", KindAccess, "addismelody", time.Minute, time.Now())
	token, err := c.Sign(claims)
	require.NoError(t, err)

	got, err := c.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", got.Subject)
	require.Equal(t, "natnael", got.Username)
	require.NoError(t, got.RequireKind(KindAccess))
	require.ErrorIs(t, got.RequireKind(KindRefresh), ErrKindMismatch)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	t.Parallel()
	c := newTestCodec(t)

	// Issued well in the past so the verifier's leeway cannot save it.
	claims := NewClaims("user-1", "", KindAccess, "addismelody", time.Minute, time.Now().Add(-time.Hour))
	token, err := c.Sign(claims)
	require.NoError(t, err)

	_, err = c.Verify(token)
	require.ErrorIs(t, err, ErrExpired)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	t.Parallel()

	other, err := NewHS256([]byte("a-different-secret"), "addismelody")
	require.NoError(t, err)

	claims := NewClaims("user-1", "", KindAccess, "addismelody", time.Minute, time.Now())
	token, err := other.Sign(claims)
	require.NoError(t, err)

	_, err = newTestCodec(t).Verify(token)
	require.ErrorIs(t, err, ErrInvalidSig)
}

func TestVerifyRejectsIssuerMismatch(t *testing.T) {
	t.Parallel()

	foreign, err := NewHS256([]byte("test-secret-0123456789"), "someone-else")
	require.NoError(t, err)

	claims := NewClaims("user-1", "", KindAccess, "someone-else", time.Minute, time.Now())
	token, err := foreign.Sign(claims)
	require.NoError(t, err)

	_, err = newTestCodec(t).Verify(token)
	require.ErrorIs(t, err, ErrIssuer)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := newTestCodec(t).Verify("definitely.not.a-jwt")
	require.ErrorIs(t, err, ErrMalformed)
}
