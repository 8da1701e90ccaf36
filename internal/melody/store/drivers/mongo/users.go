package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/domain"
	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/store"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

type usersRepo struct {
	col *mongodriver.Collection
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	const op = "store/mongo/CreateUser"

	now := time.Now().UTC().Truncate(time.Millisecond)
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := r.col.InsertOne(ctx, u); err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%s: %w", op, store.ErrAlreadyExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	const op = "store/mongo/GetUserByID"

	var u domain.User
	if err := r.col.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&u); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return domain.User{}, fmt.Errorf("%s: %w", op, store.ErrNotFound)
		}
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	const op = "store/mongo/GetUserByUsername"

	var u domain.User
	if err := r.col.FindOne(ctx, bson.D{{Key: "username", Value: username}}).Decode(&u); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return domain.User{}, fmt.Errorf("%s: %w", op, store.ErrNotFound)
		}
		return domain.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (r *usersRepo) UpdateProfilePicture(ctx context.Context, userID, key string) error {
	const op = "store/mongo/UpdateProfilePicture"

	res, err := r.col.UpdateByID(ctx, userID, bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "profile_picture", Value: key},
			{Key: "updated_at", Value: time.Now().UTC()},
		}},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, store.ErrNotFound)
	}
	return nil
}
