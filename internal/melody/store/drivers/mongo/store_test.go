package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/domain"
	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/store"
	"github.com/Natnae-l/AddisMelody-Backend/pkg/idx"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const testTimeout = 10 * time.Second

// TestMain starts a single MongoDB container for the whole package. Each
// test connects to its own uniquely named database so tests stay isolated.
// Set GO_TEST_INTEGRATION to run; without it the package no-ops.
func TestMain(m *testing.M) {
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		os.Exit(m.Run())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "mongo:7.0",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(90 * time.Second),
	}

	mongoC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start mongo testcontainer: %v\n", err)
		os.Exit(1)
	}

	host, err := mongoC.Host(ctx)
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}

	port, err := mongoC.MappedPort(ctx, "27017/tcp")
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get mapped port: %v\n", err)
		os.Exit(1)
	}

	_ = os.Setenv("MONGO_TEST_URL", fmt.Sprintf("mongodb://%s:%s", host, port.Port()))

	code := m.Run()
	_ = mongoC.Terminate(context.Background())
	os.Exit(code)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("set GO_TEST_INTEGRATION to run mongo integration tests")
	}

	base := os.Getenv("MONGO_TEST_URL")
	if base == "" {
		base = "mongodb://localhost:27017"
	}
	uri := base + "/melody_test_" + uuid.NewString()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	s, err := NewStore(ctx, uri)
	require.NoError(t, err, "connect to mongo at %s", uri)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()
		_ = s.db.Drop(ctx)
		_ = s.Close(ctx)
	})

	return s
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	t.Cleanup(cancel)
	return ctx
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := testCtx(t)

	u := domain.User{
		ID:           idx.New().String(),
		Username:     "mahlet",
		PasswordHash: "$argon2id$fake",
	}
	require.NoError(t, s.Users().CreateUser(ctx, u))

	t.Run("duplicate username rejected", func(t *testing.T) {
		dup := domain.User{ID: idx.New().String(), Username: "mahlet", PasswordHash: "x"}
		err := s.Users().CreateUser(ctx, dup)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("get by id", func(t *testing.T) {
		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, "mahlet", got.Username)
		require.False(t, got.CreatedAt.IsZero())
	})

	t.Run("get by username", func(t *testing.T) {
		got, err := s.Users().GetUserByUsername(ctx, "mahlet")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := s.Users().GetUserByID(ctx, idx.New().String())
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("update profile picture", func(t *testing.T) {
		require.NoError(t, s.Users().UpdateProfilePicture(ctx, u.ID, "avatars/abc.png"))
		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, "avatars/abc.png", got.ProfilePicture)

		err = s.Users().UpdateProfilePicture(ctx, idx.New().String(), "x")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestSongsCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := testCtx(t)

	owner := idx.New().String()
	song := domain.Song{
		ID:        idx.New().String(),
		CreatedBy: owner,
		Title:     "Tizita",
		Artist:    "Mulatu Astatke",
		Album:     "Mulatu of Ethiopia",
		Genre:     domain.GenreRock,
		Audio:     "audio/tizita.mp3",
	}
	require.NoError(t, s.Songs().CreateSong(ctx, song))

	t.Run("get", func(t *testing.T) {
		got, err := s.Songs().GetSongByID(ctx, song.ID)
		require.NoError(t, err)
		require.Equal(t, "Tizita", got.Title)
		require.Equal(t, owner, got.CreatedBy)
	})

	t.Run("update", func(t *testing.T) {
		song.Title = "Tizita (Nostalgia)"
		song.Private = true
		require.NoError(t, s.Songs().UpdateSong(ctx, song))

		got, err := s.Songs().GetSongByID(ctx, song.ID)
		require.NoError(t, err)
		require.Equal(t, "Tizita (Nostalgia)", got.Title)
		require.True(t, got.Private)
	})

	t.Run("update missing", func(t *testing.T) {
		missing := song
		missing.ID = idx.New().String()
		require.ErrorIs(t, s.Songs().UpdateSong(ctx, missing), store.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Songs().DeleteSong(ctx, song.ID))
		_, err := s.Songs().GetSongByID(ctx, song.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
		require.ErrorIs(t, s.Songs().DeleteSong(ctx, song.ID), store.ErrNotFound)
	})
}

func TestSongsListByOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := testCtx(t)

	owner := idx.New().String()
	genres := []domain.Genre{domain.GenrePop, domain.GenrePop, domain.GenreRock}
	var ids []string
	for i, g := range genres {
		id := idx.New().String()
		ids = append(ids, id)
		require.NoError(t, s.Songs().CreateSong(ctx, domain.Song{
			ID:        id,
			CreatedBy: owner,
			Title:     fmt.Sprintf("track %d", i),
			Artist:    "a",
			Album:     "b",
			Genre:     g,
		}))
	}
	// Another owner's song must never leak into the listing.
	require.NoError(t, s.Songs().CreateSong(ctx, domain.Song{
		ID:        idx.New().String(),
		CreatedBy: idx.New().String(),
		Title:     "other",
		Genre:     domain.GenrePop,
	}))

	t.Run("newest first", func(t *testing.T) {
		got, err := s.Songs().ListByOwner(ctx, owner, store.SongListParams{})
		require.NoError(t, err)
		require.Len(t, got, 3)
		require.Equal(t, ids[2], got[0].ID)
		require.Equal(t, ids[0], got[2].ID)
	})

	t.Run("genre filter", func(t *testing.T) {
		got, err := s.Songs().ListByOwner(ctx, owner, store.SongListParams{Genre: domain.GenrePop})
		require.NoError(t, err)
		require.Len(t, got, 2)
	})

	t.Run("pagination", func(t *testing.T) {
		p1, err := s.Songs().ListByOwner(ctx, owner, store.SongListParams{Page: 1, PageSize: 2})
		require.NoError(t, err)
		require.Len(t, p1, 2)

		p2, err := s.Songs().ListByOwner(ctx, owner, store.SongListParams{Page: 2, PageSize: 2})
		require.NoError(t, err)
		require.Len(t, p2, 1)
		require.Equal(t, ids[0], p2[0].ID)
	})
}

func TestSongsFavourites(t *testing.T) {
	s := newTestStore(t)
	ctx := testCtx(t)

	owner := idx.New().String()
	fan := idx.New().String()
	songID := idx.New().String()
	require.NoError(t, s.Songs().CreateSong(ctx, domain.Song{
		ID:        songID,
		CreatedBy: owner,
		Title:     "fav me",
		Genre:     domain.GenreRnB,
	}))

	t.Run("favourite is idempotent", func(t *testing.T) {
		require.NoError(t, s.Songs().SetFavourite(ctx, songID, fan, true))
		require.NoError(t, s.Songs().SetFavourite(ctx, songID, fan, true))

		got, err := s.Songs().GetSongByID(ctx, songID)
		require.NoError(t, err)
		require.Equal(t, []string{fan}, got.FavouritedBy)
	})

	t.Run("listed for the fan", func(t *testing.T) {
		favs, err := s.Songs().ListFavouritedBy(ctx, fan)
		require.NoError(t, err)
		require.Len(t, favs, 1)
		require.Equal(t, songID, favs[0].ID)
	})

	t.Run("unfavourite removes", func(t *testing.T) {
		require.NoError(t, s.Songs().SetFavourite(ctx, songID, fan, false))
		favs, err := s.Songs().ListFavouritedBy(ctx, fan)
		require.NoError(t, err)
		require.Empty(t, favs)
	})

	t.Run("missing song", func(t *testing.T) {
		err := s.Songs().SetFavourite(ctx, idx.New().String(), fan, true)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestSongsStatistics(t *testing.T) {
	s := newTestStore(t)
	ctx := testCtx(t)

	owner := idx.New().String()
	fan := idx.New().String()

	seed := []domain.Song{
		{Artist: "Aster", Album: "Ebo", Genre: domain.GenrePop},
		{Artist: "Aster", Album: "Ebo", Genre: domain.GenrePop},
		{Artist: "Aster", Album: "Hagere", Genre: domain.GenreRnB},
		{Artist: "Teddy", Album: "Tikur Sew", Genre: domain.GenreRock},
	}
	var first string
	for i, sd := range seed {
		sd.ID = idx.New().String()
		sd.CreatedBy = owner
		sd.Title = fmt.Sprintf("s%d", i)
		if i == 0 {
			first = sd.ID
		}
		require.NoError(t, s.Songs().CreateSong(ctx, sd))
	}
	require.NoError(t, s.Songs().SetFavourite(ctx, first, fan, true))

	stats, err := s.Songs().Statistics(ctx, owner)
	require.NoError(t, err)

	require.EqualValues(t, 4, stats.TotalSongs)
	require.EqualValues(t, 2, stats.TotalArtists)
	require.EqualValues(t, 3, stats.TotalAlbums)
	require.EqualValues(t, 3, stats.TotalGenres)
	require.EqualValues(t, 1, stats.FavouriteSongs)

	require.Len(t, stats.GenreSongCounts, 3)
	require.Equal(t, string(domain.GenrePop), stats.GenreSongCounts[0].Key)
	require.EqualValues(t, 2, stats.GenreSongCounts[0].Count)

	require.Len(t, stats.ArtistAlbumCounts, 3)

	t.Run("empty library", func(t *testing.T) {
		stats, err := s.Songs().Statistics(ctx, idx.New().String())
		require.NoError(t, err)
		require.Zero(t, stats.TotalSongs)
		require.Empty(t, stats.GenreSongCounts)
	})
}

func TestNotifications(t *testing.T) {
	s := newTestStore(t)
	ctx := testCtx(t)

	to := idx.New().String()
	base := time.Now().UnixMilli()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Notifications().CreateNotification(ctx, domain.Notification{
			ID:    idx.New().String(),
			To:    to,
			Title: fmt.Sprintf("event %d", i),
			Body:  "body",
			Time:  base + int64(i*1000),
		}))
	}
	// A different recipient's event must stay invisible.
	require.NoError(t, s.Notifications().CreateNotification(ctx, domain.Notification{
		ID:   idx.New().String(),
		To:   idx.New().String(),
		Time: base,
	}))

	t.Run("newest first", func(t *testing.T) {
		got, err := s.Notifications().ListByRecipient(ctx, to)
		require.NoError(t, err)
		require.Len(t, got, 3)
		require.Equal(t, "event 2", got[0].Title)
		require.Equal(t, "event 0", got[2].Title)
	})

	t.Run("mark read up to cutoff", func(t *testing.T) {
		n, err := s.Notifications().MarkRead(ctx, to, base+1000)
		require.NoError(t, err)
		require.EqualValues(t, 2, n)

		got, err := s.Notifications().ListByRecipient(ctx, to)
		require.NoError(t, err)
		require.False(t, got[0].Read)
		require.True(t, got[1].Read)
		require.True(t, got[2].Read)

		// Already-read records are not counted again.
		n, err = s.Notifications().MarkRead(ctx, to, base+1000)
		require.NoError(t, err)
		require.Zero(t, n)
	})
}
