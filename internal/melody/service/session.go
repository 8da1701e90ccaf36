package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/domain"
	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/store"
	"github.com/Natnae-l/AddisMelody-Backend/pkg/jwtx"
	"github.com/Natnae-l/AddisMelody-Backend/pkg/slogx"
)

var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid_credentials")
)

// Session is the outcome of a successful Authorize call. Renewed is nil
// when the presented access token was still valid; when the session was
// kept alive through the refresh token, Renewed carries the fresh pair
// the transport layer must hand back to the client.
type Session struct {
	UserID   string
	Username string
	Renewed  *domain.TokenPair
}

// SessionService mints and validates the access/refresh credential pair.
type SessionService struct {
	Codec      jwtx.Codec
	Store      store.Store
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// IssuePair signs a fresh access/refresh pair for the account.
func (s *SessionService) IssuePair(userID, username string) (domain.TokenPair, error) {
	now := time.Now()

	access, err := s.Codec.Sign(jwtx.NewClaims(userID, username, jwtx.KindAccess, s.Issuer, s.accessTTL(), now))
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, err := s.Codec.Sign(jwtx.NewClaims(userID, username, jwtx.KindRefresh, s.Issuer, s.refreshTTL(), now))
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{Token: access, RefreshToken: refresh}, nil
}

// Authorize decides whether a request carrying the given pair may proceed.
//
// A missing half rejects the pair before any verification. Otherwise the
// access token is tried first; while it verifies, the pair is left
// untouched. When it fails for any reason, the refresh token gets one
// chance to keep the session alive: it must verify, be a refresh-kind
// token, and name an account that still exists. Silent renewal then mints
// a brand new pair. Anything else is ErrUnauthenticated.
func (s *SessionService) Authorize(ctx context.Context, access, refresh string) (Session, error) {
	l := slogx.FromContext(ctx)

	if access == "" || refresh == "" {
		return Session{}, ErrUnauthenticated
	}

	claims, err := s.Codec.Verify(access)
	if err == nil && claims.RequireKind(jwtx.KindAccess) == nil {
		return Session{UserID: claims.Subject, Username: claims.Username}, nil
	}

	claims, err = s.Codec.Verify(refresh)
	if err != nil {
		return Session{}, ErrUnauthenticated
	}
	if err := claims.RequireKind(jwtx.KindRefresh); err != nil {
		return Session{}, ErrUnauthenticated
	}

	// The refresh token outlives most account mutations, so the account
	// is re-checked before a new pair is minted.
	u, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, ErrUnauthenticated
		}
		return Session{}, err
	}

	pair, err := s.IssuePair(u.ID, u.Username)
	if err != nil {
		return Session{}, err
	}

	l.Info("session renewed via refresh token", slog.String("user_id", u.ID))

	return Session{UserID: u.ID, Username: u.Username, Renewed: &pair}, nil
}

func (s *SessionService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *SessionService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}
