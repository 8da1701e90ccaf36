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
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultPageSize = 20

type songsRepo struct {
	col *mongodriver.Collection
}

func (r *songsRepo) CreateSong(ctx context.Context, s domain.Song) error {
	const op = "store/mongo/CreateSong"

	now := time.Now().UTC().Truncate(time.Millisecond)
	s.CreatedAt = now
	s.UpdatedAt = now

	if _, err := r.col.InsertOne(ctx, s); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *songsRepo) GetSongByID(ctx context.Context, id string) (domain.Song, error) {
	const op = "store/mongo/GetSongByID"

	var s domain.Song
	if err := r.col.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&s); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return domain.Song{}, fmt.Errorf("%s: %w", op, store.ErrNotFound)
		}
		return domain.Song{}, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

func (r *songsRepo) ListByOwner(ctx context.Context, ownerID string, p store.SongListParams) ([]domain.Song, error) {
	const op = "store/mongo/ListByOwner"

	filter := bson.D{{Key: "created_by", Value: ownerID}}
	if p.Genre != "" {
		filter = append(filter, bson.E{Key: "genre", Value: p.Genre})
	}

	page := p.Page
	if page < 1 {
		page = 1
	}
	size := p.PageSize
	if size < 1 {
		size = defaultPageSize
	}

	// ULID _id embeds the creation time, so _id DESC is newest first.
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetSkip((page - 1) * size).
		SetLimit(size)

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer cur.Close(ctx)

	var out []domain.Song
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (r *songsRepo) UpdateSong(ctx context.Context, s domain.Song) error {
	const op = "store/mongo/UpdateSong"

	res, err := r.col.UpdateByID(ctx, s.ID, bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "title", Value: s.Title},
			{Key: "artist", Value: s.Artist},
			{Key: "album", Value: s.Album},
			{Key: "genre", Value: s.Genre},
			{Key: "private", Value: s.Private},
			{Key: "banner", Value: s.Banner},
			{Key: "audio", Value: s.Audio},
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

func (r *songsRepo) DeleteSong(ctx context.Context, id string) error {
	const op = "store/mongo/DeleteSong"

	res, err := r.col.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, store.ErrNotFound)
	}
	return nil
}

func (r *songsRepo) SetFavourite(ctx context.Context, songID, userID string, favourite bool) error {
	const op = "store/mongo/SetFavourite"

	verb := "$pull"
	if favourite {
		verb = "$addToSet"
	}

	res, err := r.col.UpdateByID(ctx, songID, bson.D{
		{Key: verb, Value: bson.D{{Key: "favourited_by", Value: userID}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, store.ErrNotFound)
	}
	return nil
}

func (r *songsRepo) ListFavouritedBy(ctx context.Context, userID string) ([]domain.Song, error) {
	const op = "store/mongo/ListFavouritedBy"

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	cur, err := r.col.Find(ctx, bson.D{{Key: "favourited_by", Value: userID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer cur.Close(ctx)

	var out []domain.Song
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// statisticsFacets is the $facet result document of the statistics pipeline.
type statisticsFacets struct {
	Totals []struct {
		Count int64 `bson:"count"`
	} `bson:"totals"`
	Genres       []domain.KeyCount `bson:"genres"`
	Artists      []domain.KeyCount `bson:"artists"`
	Albums       []domain.KeyCount `bson:"albums"`
	ArtistAlbums []struct {
		ID struct {
			Artist string `bson:"artist"`
			Album  string `bson:"album"`
		} `bson:"_id"`
		Count int64 `bson:"count"`
	} `bson:"artist_albums"`
	Favourites []struct {
		Count int64 `bson:"count"`
	} `bson:"favourites"`
}

// Statistics runs a single $facet aggregation over the owner's songs and
// derives the distinct-entity totals from the per-bucket counts in Go.
func (r *songsRepo) Statistics(ctx context.Context, ownerID string) (domain.Statistics, error) {
	const op = "store/mongo/Statistics"

	groupCount := func(key string) bson.A {
		return bson.A{
			bson.D{{Key: "$group", Value: bson.D{
				{Key: "_id", Value: "$" + key},
				{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			}}},
			bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		}
	}

	pipeline := mongodriver.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "created_by", Value: ownerID}}}},
		bson.D{{Key: "$facet", Value: bson.D{
			{Key: "totals", Value: bson.A{
				bson.D{{Key: "$count", Value: "count"}},
			}},
			{Key: "genres", Value: groupCount("genre")},
			{Key: "artists", Value: groupCount("artist")},
			{Key: "albums", Value: groupCount("album")},
			{Key: "artist_albums", Value: bson.A{
				bson.D{{Key: "$group", Value: bson.D{
					{Key: "_id", Value: bson.D{
						{Key: "artist", Value: "$artist"},
						{Key: "album", Value: "$album"},
					}},
					{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
				}}},
			}},
			{Key: "favourites", Value: bson.A{
				bson.D{{Key: "$match", Value: bson.D{
					{Key: "favourited_by.0", Value: bson.D{{Key: "$exists", Value: true}}},
				}}},
				bson.D{{Key: "$count", Value: "count"}},
			}},
		}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return domain.Statistics{}, fmt.Errorf("%s: %w", op, err)
	}
	defer cur.Close(ctx)

	var facets []statisticsFacets
	if err := cur.All(ctx, &facets); err != nil {
		return domain.Statistics{}, fmt.Errorf("%s: %w", op, err)
	}
	if len(facets) == 0 {
		return domain.Statistics{}, nil
	}
	f := facets[0]

	stats := domain.Statistics{
		TotalArtists:     int64(len(f.Artists)),
		TotalAlbums:      int64(len(f.Albums)),
		TotalGenres:      int64(len(f.Genres)),
		GenreSongCounts:  f.Genres,
		ArtistSongCounts: f.Artists,
		AlbumSongCounts:  f.Albums,
	}
	if len(f.Totals) > 0 {
		stats.TotalSongs = f.Totals[0].Count
	}
	if len(f.Favourites) > 0 {
		stats.FavouriteSongs = f.Favourites[0].Count
	}
	for _, aa := range f.ArtistAlbums {
		stats.ArtistAlbumCounts = append(stats.ArtistAlbumCounts, domain.ArtistAlbumCount{
			Artist: aa.ID.Artist,
			Album:  aa.ID.Album,
			Count:  aa.Count,
		})
	}

	return stats, nil
}
