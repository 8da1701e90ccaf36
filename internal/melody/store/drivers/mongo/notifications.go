package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/Natnae-l/AddisMelody-Backend/internal/melody/domain"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type notificationsRepo struct {
	col *mongodriver.Collection
}

func (r *notificationsRepo) CreateNotification(ctx context.Context, n domain.Notification) error {
	const op = "store/mongo/CreateNotification"

	n.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if _, err := r.col.InsertOne(ctx, n); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *notificationsRepo) ListByRecipient(ctx context.Context, to string) ([]domain.Notification, error) {
	const op = "store/mongo/ListByRecipient"

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	cur, err := r.col.Find(ctx, bson.D{{Key: "to", Value: to}}, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer cur.Close(ctx)

	var out []domain.Notification
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (r *notificationsRepo) MarkRead(ctx context.Context, to string, cutoff int64) (int64, error) {
	const op = "store/mongo/MarkRead"

	res, err := r.col.UpdateMany(ctx,
		bson.D{
			{Key: "to", Value: to},
			{Key: "time", Value: bson.D{{Key: "$lte", Value: cutoff}}},
			{Key: "read", Value: false},
		},
		bson.D{{Key: "$set", Value: bson.D{{Key: "read", Value: true}}}},
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return res.ModifiedCount, nil
}
