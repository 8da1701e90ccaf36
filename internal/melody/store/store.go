package store

import (
	"context"
	"errors"

	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement it.
// Sub-repositories keep concerns tidy and let services depend on the
// narrowest interface they actually use.
type Store interface {
	Users() Users
	Songs() Songs
	Notifications() Notifications

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error

	// Close releases the underlying client.
	Close(ctx context.Context) error
}

type Users interface {
	// CreateUser inserts a new user (id is provided by the app via ULID).
	// Returns ErrAlreadyExists on a duplicate username.
	CreateUser(ctx context.Context, u domain.User) error

	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername is used during login.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// UpdateProfilePicture sets the profile picture object key.
	UpdateProfilePicture(ctx context.Context, userID, key string) error
}

// SongListParams narrows a song listing.
type SongListParams struct {
	Page     int64 // 1-based; values < 1 are treated as 1
	PageSize int64 // values < 1 fall back to the driver default
	Genre    domain.Genre
}

type Songs interface {
	CreateSong(ctx context.Context, s domain.Song) error

	GetSongByID(ctx context.Context, id string) (domain.Song, error)

	// ListByOwner returns the owner's songs, newest first, optionally
	// filtered by genre.
	ListByOwner(ctx context.Context, ownerID string, p SongListParams) ([]domain.Song, error)

	// UpdateSong replaces mutable fields of an existing song.
	UpdateSong(ctx context.Context, s domain.Song) error

	DeleteSong(ctx context.Context, id string) error

	// SetFavourite adds or removes userID from the song's favourite set.
	SetFavourite(ctx context.Context, songID, userID string, favourite bool) error

	// ListFavouritedBy returns all songs the given account has favourited.
	ListFavouritedBy(ctx context.Context, userID string) ([]domain.Song, error)

	// Statistics aggregates the owner's library.
	Statistics(ctx context.Context, ownerID string) (domain.Statistics, error)
}

type Notifications interface {
	CreateNotification(ctx context.Context, n domain.Notification) error

	// ListByRecipient returns stored events for a recipient, newest first.
	ListByRecipient(ctx context.Context, to string) ([]domain.Notification, error)

	// MarkRead flags the recipient's events with time <= cutoff as read
	// and reports how many records changed.
	MarkRead(ctx context.Context, to string, cutoff int64) (int64, error)
}
