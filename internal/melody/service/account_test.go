package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/blob"
	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/notify"
	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/store/storetest"
	"github.com/stretchr/testify/require"
)

func newAccountService(t *testing.T) (*AccountService, *storetest.Store) {
	t.Helper()
	st := storetest.New()
	blobs, err := blob.NewDisk(t.TempDir())
	require.NoError(t, err)
	return &AccountService{
		Store:    st,
		Sessions: newSessionService(t, st),
		Blobs:    blobs,
		Notifier: &Notifier{Store: st, Hub: notify.NewHub()},
	}, st
}

func TestRegister(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()

	u, pair, err := svc.Register(ctx, "mahlet", "correct-horse-battery")
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	require.NotEmpty(t, pair.Token)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotEqual(t, "correct-horse-battery", u.PasswordHash)

	t.Run("pair logs straight in", func(t *testing.T) {
		sess, err := svc.Sessions.Authorize(ctx, pair.Token, pair.RefreshToken)
		require.NoError(t, err)
		require.Equal(t, u.ID, sess.UserID)
	})

	t.Run("welcome notification stored", func(t *testing.T) {
		list, err := svc.Notifier.List(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Contains(t, list[0].Title, "Welcome")
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, _, err := svc.Register(ctx, "mahlet", "another-password")
		require.ErrorIs(t, err, ErrUsernameTaken)
	})
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		username string
		password string
	}{
		{"short username", "ab", "long-enough-password"},
		{"long username", strings.Repeat("a", 40), "long-enough-password"},
		{"username with spaces", "two words", "long-enough-password"},
		{"short password", "mahlet", "short"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Register(ctx, tc.username, tc.password)
			require.ErrorIs(t, err, ErrInvalidAccount)
		})
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "mahlet", "correct-horse-battery")
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		u, pair, err := svc.Login(ctx, "mahlet", "correct-horse-battery")
		require.NoError(t, err)
		require.Equal(t, "mahlet", u.Username)
		require.NotEmpty(t, pair.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "mahlet", "wrong-password-here")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown account", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "nobody", "whatever-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestProfilePicture(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()

	u, _, err := svc.Register(ctx, "mahlet", "correct-horse-battery")
	require.NoError(t, err)

	t.Run("no picture yet", func(t *testing.T) {
		_, _, err := svc.ProfilePicture(ctx, u.ID)
		require.ErrorIs(t, err, ErrNoPicture)
	})

	t.Run("rejects non-image", func(t *testing.T) {
		_, err := svc.UpdateProfilePicture(ctx, u.ID, "application/pdf", strings.NewReader("x"))
		require.ErrorIs(t, err, ErrInvalidAccount)
	})

	key, err := svc.UpdateProfilePicture(ctx, u.ID, "image/png", strings.NewReader("first"))
	require.NoError(t, err)
	require.NotEmpty(t, key)

	t.Run("streams back", func(t *testing.T) {
		rc, ct, err := svc.ProfilePicture(ctx, u.ID)
		require.NoError(t, err)
		defer rc.Close()
		got, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.Equal(t, "first", string(got))
		require.Equal(t, "image/png", ct)
	})

	t.Run("replacement removes old picture", func(t *testing.T) {
		key2, err := svc.UpdateProfilePicture(ctx, u.ID, "image/png", strings.NewReader("second"))
		require.NoError(t, err)
		require.NotEqual(t, key, key2)

		_, _, err = svc.Blobs.Open(ctx, key)
		require.ErrorIs(t, err, blob.ErrNotFound)
	})
}
