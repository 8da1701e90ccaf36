package http

import (
	"context"

	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/domain"
)

// CredentialsRequest is the body of registration and login calls.
type CredentialsRequest struct {
	Username string `json:"username" example:"mahlet"`
	Password string `json:"password" example:"correct-horse-battery"`
}

// RenewalFields are embedded in responses of authenticated endpoints so
// a silently renewed pair reaches clients that cannot read cookies.
type RenewalFields struct {
	Token        string `json:"token,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

func (f *RenewalFields) applyRenewal(ctx context.Context) {
	if pair := renewedPair(ctx); pair != nil {
		f.Token = pair.Token
		f.RefreshToken = pair.RefreshToken
	}
}

// AuthResponse is returned from registration and login.
type AuthResponse struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	Token          string `json:"token"`
	RefreshToken   string `json:"refreshToken"`
}

// ProfilePictureResponse reports the stored key of a fresh upload.
type ProfilePictureResponse struct {
	RenewalFields
	ProfilePicture string `json:"profilePicture"`
}

// SongsResponse wraps a song listing.
type SongsResponse struct {
	RenewalFields
	Songs []domain.Song `json:"songs"`
}

// SongResponse wraps a single song.
type SongResponse struct {
	RenewalFields
	Song domain.Song `json:"song"`
}

// FavouriteResponse reports the new favourite state after a toggle.
type FavouriteResponse struct {
	RenewalFields
	Favourite bool `json:"favourite"`
}

// StatisticsResponse wraps the caller's library statistics.
type StatisticsResponse struct {
	RenewalFields
	Statistics domain.Statistics `json:"statistics"`
}

// NotificationsResponse wraps the caller's stored notifications.
type NotificationsResponse struct {
	RenewalFields
	Notifications []domain.Notification `json:"notifications"`
}

// MarkReadResponse reports how many notifications a read-cutoff touched.
type MarkReadResponse struct {
	RenewalFields
	Updated int64 `json:"updated"`
}

// HealthResponse is returned by the liveness and readiness probes.
type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Version string `json:"version,omitempty" example:"0.1.0"`
	Uptime  string `json:"uptime,omitempty" example:"1h2m3s"`
}
