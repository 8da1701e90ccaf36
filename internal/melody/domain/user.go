package domain

import "time"

// User is a registered account. The ID doubles as the recipient identity
// for notification delivery.
type User struct {
	ID             string    `bson:"_id" json:"id"`
	Username       string    `bson:"username" json:"username"`
	PasswordHash   string    `bson:"password_hash" json:"-"` // argon2id encoded
	ProfilePicture string    `bson:"profile_picture,omitempty" json:"profilePicture,omitempty"`
	CreatedAt      time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updatedAt"`
}

// TokenPair is the access/refresh credential pair handed to clients.
// Both halves are signed JWTs asserting the same account ID; the access
// half is short-lived, the refresh half is what keeps a browser session
// alive across access expiries.
type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}
