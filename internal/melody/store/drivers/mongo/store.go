package mongo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/store"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection         = "users"
	songsCollection         = "songs"
	notificationsCollection = "notifications"

	defaultDBName = "addismelody"
)

// Store is the MongoDB driver behind store.Store. Document IDs are
// app-generated ULID strings kept in _id.
type Store struct {
	client *mongodriver.Client
	db     *mongodriver.Database

	users         *usersRepo
	songs         *songsRepo
	notifications *notificationsRepo
}

// NewStore connects to MongoDB, pings it and ensures the indexes the
// service relies on. The database name is taken from the URI path,
// falling back to a default.
func NewStore(ctx context.Context, uri string) (*Store, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo: empty uri")
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	db := cli.Database(databaseFromURI(uri))

	s := &Store{
		client:        cli,
		db:            db,
		users:         &usersRepo{col: db.Collection(usersCollection)},
		songs:         &songsRepo{col: db.Collection(songsCollection)},
		notifications: &notificationsRepo{col: db.Collection(notificationsCollection)},
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = s.Close(context.Background())
		return nil, err
	}

	return s, nil
}

func (s *Store) Users() store.Users                 { return s.users }
func (s *Store) Songs() store.Songs                 { return s.songs }
func (s *Store) Notifications() store.Notifications { return s.notifications }

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// ensureIndexes creates the indexes the handlers depend on:
//   - unique usernames (duplicate registration maps to a 409);
//   - owner listing and per-owner genre filtering for songs;
//   - favourites lookup by member of favourited_by;
//   - per-recipient feed ordering and the mark-read time predicate.
func (s *Store) ensureIndexes(ctx context.Context) error {
	userModels := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName("username_unique").SetUnique(true),
		},
	}
	if _, err := s.users.col.Indexes().CreateMany(ctx, userModels); err != nil {
		return fmt.Errorf("mongo: ensure user indexes: %w", err)
	}

	songModels := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "created_by", Value: 1}, {Key: "genre", Value: 1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("owner_genre_id_desc"),
		},
		{
			Keys:    bson.D{{Key: "favourited_by", Value: 1}},
			Options: options.Index().SetName("favourited_by"),
		},
	}
	if _, err := s.songs.col.Indexes().CreateMany(ctx, songModels); err != nil {
		return fmt.Errorf("mongo: ensure song indexes: %w", err)
	}

	notificationModels := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "to", Value: 1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("recipient_id_desc"),
		},
		{
			Keys:    bson.D{{Key: "to", Value: 1}, {Key: "time", Value: 1}},
			Options: options.Index().SetName("recipient_time"),
		},
	}
	if _, err := s.notifications.col.Indexes().CreateMany(ctx, notificationModels); err != nil {
		return fmt.Errorf("mongo: ensure notification indexes: %w", err)
	}

	return nil
}

// databaseFromURI extracts the database name from the mongodb URI path.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return defaultDBName
}

// isDuplicateKey reports whether err is a unique index violation.
func isDuplicateKey(err error) bool {
	return mongodriver.IsDuplicateKeyError(err)
}
