package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/blob"
	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/domain"
	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/store"
	"github.com/Natnae-l/AddisMelody-Backend/pkg/cryptox"
	"github.com/Natnae-l/AddisMelody-Backend/pkg/idx"
	"github.com/Natnae-l/AddisMelody-Backend/pkg/slogx"
)

var (
	ErrUsernameTaken  = errors.New("username_taken")
	ErrInvalidAccount = errors.New("invalid_account_details")
	ErrNoPicture      = errors.New("no_profile_picture")
)

const (
	minUsernameLen = 3
	maxUsernameLen = 32
	minPasswordLen = 8
)

// imageContentTypes is the allow-list for profile pictures and banners.
var imageContentTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

// AccountService owns registration, login and profile management.
type AccountService struct {
	Store    store.Store
	Sessions *SessionService
	Blobs    blob.Storage
	Notifier *Notifier
}

// Register creates a new account and greets it with a stored welcome
// notification. The returned pair logs the fresh account straight in.
func (s *AccountService) Register(ctx context.Context, username, password string) (domain.User, domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	username = strings.TrimSpace(username)
	if err := validateAccount(username, password); err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}

	u := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		PasswordHash: hash,
	}

	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, domain.TokenPair{}, ErrUsernameTaken
		}
		return domain.User{}, domain.TokenPair{}, err
	}

	pair, err := s.Sessions.IssuePair(u.ID, u.Username)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}

	// A failed welcome message must not fail the registration.
	if _, err := s.Notifier.Dispatch(ctx, u.ID, "Welcome to AddisMelody",
		fmt.Sprintf("Hi %s, your library is ready. Upload your first song to get started.", u.Username)); err != nil {
		l.Warn("welcome notification failed", slog.Any("error", err), slog.String("user_id", u.ID))
	}

	l.Info("account registered", slog.String("user_id", u.ID))

	return u, pair, nil
}

// Login checks the credentials and mints a session pair. A missing
// account and a wrong password are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, username, password string) (domain.User, domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, domain.TokenPair{}, ErrInvalidCredentials
		}
		return domain.User{}, domain.TokenPair{}, err
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		l.Info("login password verification failed", slog.String("user_id", u.ID))
		return domain.User{}, domain.TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.Sessions.IssuePair(u.ID, u.Username)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}

	return u, pair, nil
}

// UpdateProfilePicture stores the uploaded image and points the account
// at it, removing the previous picture once the swap has landed.
func (s *AccountService) UpdateProfilePicture(ctx context.Context, userID, contentType string, r io.Reader) (string, error) {
	if _, ok := imageContentTypes[contentType]; !ok {
		return "", ErrInvalidAccount
	}

	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}

	key := blob.NewKey("avatars", blob.ExtensionForContentType(contentType))
	if err := s.Blobs.Save(ctx, key, contentType, r); err != nil {
		return "", err
	}

	if err := s.Store.Users().UpdateProfilePicture(ctx, userID, key); err != nil {
		_ = s.Blobs.Remove(ctx, key)
		return "", err
	}

	if u.ProfilePicture != "" {
		if err := s.Blobs.Remove(ctx, u.ProfilePicture); err != nil {
			slogx.FromContext(ctx).Warn("removing previous profile picture failed",
				slog.Any("error", err), slog.String("key", u.ProfilePicture))
		}
	}

	return key, nil
}

// ProfilePicture opens the account's current picture for streaming.
func (s *AccountService) ProfilePicture(ctx context.Context, userID string) (io.ReadCloser, string, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if u.ProfilePicture == "" {
		return nil, "", ErrNoPicture
	}
	return s.Blobs.Open(ctx, u.ProfilePicture)
}

func validateAccount(username, password string) error {
	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return ErrInvalidAccount
	}
	if strings.ContainsAny(username, " \t\n") {
		return ErrInvalidAccount
	}
	if len(password) < minPasswordLen {
		return ErrInvalidAccount
	}
	return nil
}
