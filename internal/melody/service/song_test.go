package service

import (
	"context"
	"strings"
	"testing"

	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/blob"
	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/domain"
	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/notify"
	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/store"
	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/store/storetest"
	"github.com/stretchr/testify/require"
)

func newSongService(t *testing.T) (*SongService, *storetest.Store) {
	t.Helper()
	st := storetest.New()
	blobs, err := blob.NewDisk(t.TempDir())
	require.NoError(t, err)
	notifier := &Notifier{Store: st, Hub: notify.NewHub()}
	return &SongService{Store: st, Blobs: blobs, Notifier: notifier}, st
}

func audioUpload(content string) *Upload {
	return &Upload{ContentType: "audio/mpeg", Reader: strings.NewReader(content)}
}

func TestCreateSong(t *testing.T) {
	svc, _ := newSongService(t)
	ctx := context.Background()

	song, err := svc.Create(ctx, "owner-1", CreateSongInput{
		Title:  "Tizita",
		Artist: "Mulatu Astatke",
		Album:  "Mulatu of Ethiopia",
		Genre:  domain.GenrePop,
		Audio:  audioUpload("mp3 bytes"),
		Banner: &Upload{ContentType: "image/png", Reader: strings.NewReader("png bytes")},
	})
	require.NoError(t, err)
	require.NotEmpty(t, song.ID)
	require.Equal(t, "owner-1", song.CreatedBy)
	require.NotEmpty(t, song.Audio)
	require.NotEmpty(t, song.Banner)

	rc, _, err := svc.OpenMedia(ctx, song.Audio)
	require.NoError(t, err)
	rc.Close()
}

func TestCreateSongValidation(t *testing.T) {
	svc, _ := newSongService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateSongInput
	}{
		{"missing title", CreateSongInput{Genre: domain.GenrePop, Audio: audioUpload("x")}},
		{"missing audio", CreateSongInput{Title: "t", Genre: domain.GenrePop}},
		{"bad genre", CreateSongInput{Title: "t", Genre: "Jazz", Audio: audioUpload("x")}},
		{"bad audio type", CreateSongInput{Title: "t", Genre: domain.GenrePop,
			Audio: &Upload{ContentType: "text/plain", Reader: strings.NewReader("x")}}},
		{"bad banner type", CreateSongInput{Title: "t", Genre: domain.GenrePop, Audio: audioUpload("x"),
			Banner: &Upload{ContentType: "application/zip", Reader: strings.NewReader("x")}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, "owner-1", tc.in)
			require.ErrorIs(t, err, ErrInvalidSong)
		})
	}
}

func TestUpdateSongOwnership(t *testing.T) {
	svc, _ := newSongService(t)
	ctx := context.Background()

	song, err := svc.Create(ctx, "owner-1", CreateSongInput{
		Title: "original", Genre: domain.GenreRock, Audio: audioUpload("x"),
	})
	require.NoError(t, err)

	title := "renamed"
	_, err = svc.Update(ctx, "intruder", song.ID, UpdateSongInput{Title: &title})
	require.ErrorIs(t, err, ErrForbidden)

	private := true
	updated, err := svc.Update(ctx, "owner-1", song.ID, UpdateSongInput{Title: &title, Private: &private})
	require.NoError(t, err)
	require.Equal(t, "renamed", updated.Title)
	require.True(t, updated.Private)
	require.Equal(t, domain.GenreRock, updated.Genre, "untouched fields survive")
}

func TestUpdateSongReplacesAudio(t *testing.T) {
	svc, _ := newSongService(t)
	ctx := context.Background()

	song, err := svc.Create(ctx, "owner-1", CreateSongInput{
		Title: "t", Genre: domain.GenrePop, Audio: audioUpload("old bytes"),
	})
	require.NoError(t, err)
	oldKey := song.Audio

	updated, err := svc.Update(ctx, "owner-1", song.ID, UpdateSongInput{Audio: audioUpload("new bytes")})
	require.NoError(t, err)
	require.NotEqual(t, oldKey, updated.Audio)

	_, _, err = svc.OpenMedia(ctx, oldKey)
	require.ErrorIs(t, err, blob.ErrNotFound, "replaced payload is removed")
}

func TestDeleteSong(t *testing.T) {
	svc, _ := newSongService(t)
	ctx := context.Background()

	song, err := svc.Create(ctx, "owner-1", CreateSongInput{
		Title: "t", Genre: domain.GenrePop, Audio: audioUpload("x"),
	})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, "intruder", song.ID), ErrForbidden)

	require.NoError(t, svc.Delete(ctx, "owner-1", song.ID))
	_, err = svc.Get(ctx, song.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, _, err = svc.OpenMedia(ctx, song.Audio)
	require.ErrorIs(t, err, blob.ErrNotFound)
}

func TestToggleFavourite(t *testing.T) {
	svc, st := newSongService(t)
	ctx := context.Background()

	owner := seedUser(t, st, "owner")
	fan := seedUser(t, st, "fan")

	song, err := svc.Create(ctx, owner.ID, CreateSongInput{
		Title: "Tizita", Genre: domain.GenrePop, Audio: audioUpload("x"),
	})
	require.NoError(t, err)

	ownerStream := svc.Notifier.Subscribe(owner.ID)
	defer svc.Notifier.Unsubscribe(owner.ID, ownerStream)

	fav, err := svc.ToggleFavourite(ctx, fan.ID, song.ID)
	require.NoError(t, err)
	require.True(t, fav)

	favs, err := svc.Favourites(ctx, fan.ID)
	require.NoError(t, err)
	require.Len(t, favs, 1)

	// The owner hears about it both as a notification and a statistics
	// refresh; order between the two frames is fixed by Dispatch running
	// before the statistics push.
	first := recvFrame(t, ownerStream)
	require.Equal(t, FrameNotification, first.Type)
	second := recvFrame(t, ownerStream)
	require.Equal(t, FrameStatistics, second.Type)

	stored, err := svc.Notifier.List(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Contains(t, stored[0].Body, "fan")
	require.Contains(t, stored[0].Body, "Tizita")

	t.Run("toggle back off", func(t *testing.T) {
		fav, err := svc.ToggleFavourite(ctx, fan.ID, song.ID)
		require.NoError(t, err)
		require.False(t, fav)

		favs, err := svc.Favourites(ctx, fan.ID)
		require.NoError(t, err)
		require.Empty(t, favs)

		// Unfavouriting is silent; only statistics move.
		env := recvFrame(t, ownerStream)
		require.Equal(t, FrameStatistics, env.Type)
	})

	t.Run("own song favourite is silent", func(t *testing.T) {
		_, err := svc.ToggleFavourite(ctx, owner.ID, song.ID)
		require.NoError(t, err)

		stored, err := svc.Notifier.List(ctx, owner.ID)
		require.NoError(t, err)
		require.Len(t, stored, 1, "no self-notification")
	})
}

func TestStatistics(t *testing.T) {
	svc, _ := newSongService(t)
	ctx := context.Background()

	for _, g := range []domain.Genre{domain.GenrePop, domain.GenrePop, domain.GenreEDM} {
		_, err := svc.Create(ctx, "owner-1", CreateSongInput{
			Title: "t", Artist: "a", Genre: g, Audio: audioUpload("x"),
		})
		require.NoError(t, err)
	}

	stats, err := svc.Statistics(ctx, "owner-1")
	require.NoError(t, err)
	require.EqualValues(t, 3, stats.TotalSongs)
	require.EqualValues(t, 2, stats.TotalGenres)
}
