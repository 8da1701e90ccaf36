package domain

import (
	"errors"
	"time"
)

// Genre is the closed set of genres a song may carry.
type Genre string

const (
	GenrePop        Genre = "Pop"
	GenreHipHopRap  Genre = "Hip-Hop/Rap"
	GenreRock       Genre = "Rock"
	GenreEDM        Genre = "Electronic Dance Music (EDM)"
	GenreRnB        Genre = "R&B (Rhythm and Blues)"
)

var ErrInvalidGenre = errors.New("domain: invalid genre")

// ParseGenre validates a user-supplied genre string.
func ParseGenre(s string) (Genre, error) {
	switch Genre(s) {
	case GenrePop, GenreHipHopRap, GenreRock, GenreEDM, GenreRnB:
		return Genre(s), nil
	}
	return "", ErrInvalidGenre
}

// Song is an uploaded track. Banner and Audio hold blob-storage object
// keys, not URLs; the media endpoint resolves them.
type Song struct {
	ID           string    `bson:"_id" json:"id"`
	CreatedBy    string    `bson:"created_by" json:"-"`
	Title        string    `bson:"title" json:"title"`
	Artist       string    `bson:"artist" json:"artist"`
	Album        string    `bson:"album" json:"album"`
	Genre        Genre     `bson:"genre" json:"genre"`
	Private      bool      `bson:"private" json:"private"`
	Banner       string    `bson:"banner,omitempty" json:"banner,omitempty"`
	Audio        string    `bson:"audio,omitempty" json:"audio,omitempty"`
	FavouritedBy []string  `bson:"favourited_by,omitempty" json:"favouritedBy,omitempty"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updatedAt"`
}

// FavouritedByUser reports whether the given account has favourited s.
func (s *Song) FavouritedByUser(userID string) bool {
	for _, id := range s.FavouritedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// KeyCount is one bucket of an aggregation (a genre, artist or album and
// how many songs fall into it).
type KeyCount struct {
	Key   string `bson:"_id" json:"key"`
	Count int64  `bson:"count" json:"count"`
}

// ArtistAlbumCount counts songs per (artist, album) pair.
type ArtistAlbumCount struct {
	Artist string `bson:"artist" json:"artist"`
	Album  string `bson:"album" json:"album"`
	Count  int64  `bson:"count" json:"count"`
}

// Statistics is the per-owner library aggregation pushed over the live
// feed and served from the statistics endpoint.
type Statistics struct {
	TotalSongs        int64              `json:"totalSongs"`
	TotalArtists      int64              `json:"totalArtists"`
	TotalAlbums       int64              `json:"totalAlbums"`
	TotalGenres       int64              `json:"totalGenres"`
	GenreSongCounts   []KeyCount         `json:"genreSongCounts"`
	ArtistSongCounts  []KeyCount         `json:"artistSongCounts"`
	AlbumSongCounts   []KeyCount         `json:"albumSongCounts"`
	ArtistAlbumCounts []ArtistAlbumCount `json:"artistAlbumCounts"`
	FavouriteSongs    int64              `json:"favouriteSongsCount"`
}
