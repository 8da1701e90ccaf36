package domain

import "time"

// Notification is a single event on a recipient's feed. It is persisted
// whether or not the recipient had a live stream open at dispatch time;
// Time is the client-facing epoch-millisecond timestamp used for the
// mark-read cutoff.
type Notification struct {
	ID        string    `bson:"_id" json:"id"`
	To        string    `bson:"to" json:"to"`
	Title     string    `bson:"title" json:"title"`
	Body      string    `bson:"body" json:"body"`
	Time      int64     `bson:"time" json:"time"`
	Read      bool      `bson:"read" json:"read"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}
