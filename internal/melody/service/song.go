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
	"github.com/Natnae-l/AddisMelody-Backend/pkg/idx"
	"github.com/Natnae-l/AddisMelody-Backend/pkg/slogx"
)

var (
	ErrForbidden   = errors.New("forbidden")
	ErrInvalidSong = errors.New("invalid_song_details")
)

// audioContentTypes is the allow-list for song audio uploads.
var audioContentTypes = map[string]struct{}{
	"audio/mpeg":  {},
	"audio/wav":   {},
	"audio/x-wav": {},
	"audio/ogg":   {},
	"audio/flac":  {},
}

// Upload is one binary part of a multipart submission.
type Upload struct {
	ContentType string
	Reader      io.Reader
}

// CreateSongInput carries everything needed to add a song. Audio is
// required; Banner is optional.
type CreateSongInput struct {
	Title   string
	Artist  string
	Album   string
	Genre   domain.Genre
	Private bool
	Audio   *Upload
	Banner  *Upload
}

// UpdateSongInput patches an existing song. Nil fields are left alone.
type UpdateSongInput struct {
	Title   *string
	Artist  *string
	Album   *string
	Genre   *domain.Genre
	Private *bool
	Audio   *Upload
	Banner  *Upload
}

// SongService owns the song library: uploads, edits, favourites and the
// per-owner statistics that hang off them.
type SongService struct {
	Store    store.Store
	Blobs    blob.Storage
	Notifier *Notifier
}

// List returns the owner's songs, newest first.
func (s *SongService) List(ctx context.Context, ownerID string, p store.SongListParams) ([]domain.Song, error) {
	return s.Store.Songs().ListByOwner(ctx, ownerID, p)
}

// Get returns one song by ID without an ownership check; private songs
// are filtered at the transport layer where the viewer is known.
func (s *SongService) Get(ctx context.Context, songID string) (domain.Song, error) {
	return s.Store.Songs().GetSongByID(ctx, songID)
}

// Create validates the submission, stores its payloads and inserts the
// song. The owner's open live streams get a fresh statistics snapshot.
func (s *SongService) Create(ctx context.Context, ownerID string, in CreateSongInput) (domain.Song, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || in.Audio == nil {
		return domain.Song{}, ErrInvalidSong
	}
	if _, err := domain.ParseGenre(string(in.Genre)); err != nil {
		return domain.Song{}, ErrInvalidSong
	}
	if _, ok := audioContentTypes[in.Audio.ContentType]; !ok {
		return domain.Song{}, ErrInvalidSong
	}
	if in.Banner != nil {
		if _, ok := imageContentTypes[in.Banner.ContentType]; !ok {
			return domain.Song{}, ErrInvalidSong
		}
	}

	audioKey := blob.NewKey("audio", blob.ExtensionForContentType(in.Audio.ContentType))
	if err := s.Blobs.Save(ctx, audioKey, in.Audio.ContentType, in.Audio.Reader); err != nil {
		return domain.Song{}, err
	}

	var bannerKey string
	if in.Banner != nil {
		bannerKey = blob.NewKey("banners", blob.ExtensionForContentType(in.Banner.ContentType))
		if err := s.Blobs.Save(ctx, bannerKey, in.Banner.ContentType, in.Banner.Reader); err != nil {
			_ = s.Blobs.Remove(ctx, audioKey)
			return domain.Song{}, err
		}
	}

	song := domain.Song{
		ID:        idx.New().String(),
		CreatedBy: ownerID,
		Title:     in.Title,
		Artist:    strings.TrimSpace(in.Artist),
		Album:     strings.TrimSpace(in.Album),
		Genre:     in.Genre,
		Private:   in.Private,
		Audio:     audioKey,
		Banner:    bannerKey,
	}

	if err := s.Store.Songs().CreateSong(ctx, song); err != nil {
		_ = s.Blobs.Remove(ctx, audioKey)
		if bannerKey != "" {
			_ = s.Blobs.Remove(ctx, bannerKey)
		}
		return domain.Song{}, err
	}

	s.pushStatistics(ctx, ownerID)

	return song, nil
}

// Update applies a patch to the caller's own song. Replaced payloads are
// removed from blob storage after the record has been rewritten.
func (s *SongService) Update(ctx context.Context, ownerID, songID string, in UpdateSongInput) (domain.Song, error) {
	song, err := s.Store.Songs().GetSongByID(ctx, songID)
	if err != nil {
		return domain.Song{}, err
	}
	if song.CreatedBy != ownerID {
		return domain.Song{}, ErrForbidden
	}

	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return domain.Song{}, ErrInvalidSong
		}
		song.Title = t
	}
	if in.Artist != nil {
		song.Artist = strings.TrimSpace(*in.Artist)
	}
	if in.Album != nil {
		song.Album = strings.TrimSpace(*in.Album)
	}
	if in.Genre != nil {
		g, err := domain.ParseGenre(string(*in.Genre))
		if err != nil {
			return domain.Song{}, ErrInvalidSong
		}
		song.Genre = g
	}
	if in.Private != nil {
		song.Private = *in.Private
	}

	var replaced []string
	if in.Audio != nil {
		if _, ok := audioContentTypes[in.Audio.ContentType]; !ok {
			return domain.Song{}, ErrInvalidSong
		}
		key := blob.NewKey("audio", blob.ExtensionForContentType(in.Audio.ContentType))
		if err := s.Blobs.Save(ctx, key, in.Audio.ContentType, in.Audio.Reader); err != nil {
			return domain.Song{}, err
		}
		if song.Audio != "" {
			replaced = append(replaced, song.Audio)
		}
		song.Audio = key
	}
	if in.Banner != nil {
		if _, ok := imageContentTypes[in.Banner.ContentType]; !ok {
			return domain.Song{}, ErrInvalidSong
		}
		key := blob.NewKey("banners", blob.ExtensionForContentType(in.Banner.ContentType))
		if err := s.Blobs.Save(ctx, key, in.Banner.ContentType, in.Banner.Reader); err != nil {
			return domain.Song{}, err
		}
		if song.Banner != "" {
			replaced = append(replaced, song.Banner)
		}
		song.Banner = key
	}

	if err := s.Store.Songs().UpdateSong(ctx, song); err != nil {
		return domain.Song{}, err
	}

	for _, key := range replaced {
		if err := s.Blobs.Remove(ctx, key); err != nil {
			slogx.FromContext(ctx).Warn("removing replaced payload failed",
				slog.Any("error", err), slog.String("key", key))
		}
	}

	s.pushStatistics(ctx, ownerID)

	return song, nil
}

// Delete removes the caller's own song together with its payloads.
func (s *SongService) Delete(ctx context.Context, ownerID, songID string) error {
	song, err := s.Store.Songs().GetSongByID(ctx, songID)
	if err != nil {
		return err
	}
	if song.CreatedBy != ownerID {
		return ErrForbidden
	}

	if err := s.Store.Songs().DeleteSong(ctx, songID); err != nil {
		return err
	}

	l := slogx.FromContext(ctx)
	for _, key := range []string{song.Audio, song.Banner} {
		if key == "" {
			continue
		}
		if err := s.Blobs.Remove(ctx, key); err != nil {
			l.Warn("removing song payload failed", slog.Any("error", err), slog.String("key", key))
		}
	}

	s.pushStatistics(ctx, ownerID)

	return nil
}

// ToggleFavourite flips the caller's favourite mark on a song and
// reports the new state. Favouriting someone else's song notifies its
// owner; the owner also gets a statistics refresh on their streams.
func (s *SongService) ToggleFavourite(ctx context.Context, userID, songID string) (bool, error) {
	song, err := s.Store.Songs().GetSongByID(ctx, songID)
	if err != nil {
		return false, err
	}

	favourite := !song.FavouritedByUser(userID)
	if err := s.Store.Songs().SetFavourite(ctx, songID, userID, favourite); err != nil {
		return false, err
	}

	if favourite && song.CreatedBy != userID {
		username := userID
		if u, err := s.Store.Users().GetUserByID(ctx, userID); err == nil {
			username = u.Username
		}
		if _, err := s.Notifier.Dispatch(ctx, song.CreatedBy, "New favourite",
			fmt.Sprintf("%s favourited your song %q.", username, song.Title)); err != nil {
			slogx.FromContext(ctx).Warn("favourite notification failed",
				slog.Any("error", err), slog.String("song_id", songID))
		}
	}

	s.pushStatistics(ctx, song.CreatedBy)

	return favourite, nil
}

// Favourites lists every song the account has favourited.
func (s *SongService) Favourites(ctx context.Context, userID string) ([]domain.Song, error) {
	return s.Store.Songs().ListFavouritedBy(ctx, userID)
}

// Statistics aggregates the owner's library.
func (s *SongService) Statistics(ctx context.Context, ownerID string) (domain.Statistics, error) {
	return s.Store.Songs().Statistics(ctx, ownerID)
}

// OpenMedia streams a stored payload (audio or banner) by key.
func (s *SongService) OpenMedia(ctx context.Context, key string) (io.ReadCloser, string, error) {
	return s.Blobs.Open(ctx, key)
}

func (s *SongService) pushStatistics(ctx context.Context, ownerID string) {
	if !s.Notifier.Hub.Online(ownerID) {
		return
	}
	stats, err := s.Store.Songs().Statistics(ctx, ownerID)
	if err != nil {
		slogx.FromContext(ctx).Warn("statistics refresh failed",
			slog.Any("error", err), slog.String("user_id", ownerID))
		return
	}
	s.Notifier.PushStatistics(ctx, ownerID, stats)
}
