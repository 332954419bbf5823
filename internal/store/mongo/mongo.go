// Package mongo stores sketchbooks as nested documents in MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"tripRecapAPI/internal/logging"
	"tripRecapAPI/internal/store"
	"tripRecapAPI/internal/types/canvas"
	"tripRecapAPI/internal/types/coordinates"
	"tripRecapAPI/internal/types/sketchbook"
	"tripRecapAPI/internal/user"
)

const (
	sketchbooksCollection = "sketchbooks"
	coordinatesCollection = "coordinates"
	usersCollection       = "users"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	client      *mongo.Client
	sketchbooks *mongo.Collection
	coordinates *mongo.Collection
	users       *mongo.Collection
}

// Open connects to uri, verifies the connection and creates the unique indexes.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:      client,
		sketchbooks: db.Collection(sketchbooksCollection),
		coordinates: db.Collection(coordinatesCollection),
		users:       db.Collection(usersCollection),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	logging.Info().Str("database", database).Msg("connected to mongo")
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.sketchbooks, mongo.IndexModel{Keys: bson.D{{Key: "canvases._id", Value: 1}}}},
		{s.coordinates, mongo.IndexModel{Keys: bson.D{{Key: "canvasId", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.users, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func normalize(sb *sketchbook.Sketchbook) *sketchbook.Sketchbook {
	if sb.Canvases == nil {
		sb.Canvases = []*canvas.Canvas{}
	}
	for _, c := range sb.Canvases {
		if c.Elements == nil {
			c.Elements = []canvas.Element{}
		}
	}
	return sb
}

func (s *Store) CreateSketchbook(ctx context.Context, sb *sketchbook.Sketchbook) error {
	if _, err := s.sketchbooks.InsertOne(ctx, sb); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("failed to create sketchbook: %w", err)
	}
	return nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*sketchbook.Sketchbook, error) {
	var sb sketchbook.Sketchbook
	if err := s.sketchbooks.FindOne(ctx, filter).Decode(&sb); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return normalize(&sb), nil
}

func (s *Store) GetSketchbook(ctx context.Context, id string) (*sketchbook.Sketchbook, error) {
	sb, err := s.findOne(ctx, bson.M{"_id": id})
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to get sketchbook: %w", err)
	}
	return sb, err
}

func (s *Store) ListSketchbooks(ctx context.Context) ([]*sketchbook.Sketchbook, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.sketchbooks.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list sketchbooks: %w", err)
	}

	sketchbooks := []*sketchbook.Sketchbook{}
	if err := cursor.All(ctx, &sketchbooks); err != nil {
		return nil, fmt.Errorf("failed to decode sketchbooks: %w", err)
	}
	for _, sb := range sketchbooks {
		normalize(sb)
	}
	return sketchbooks, nil
}

func (s *Store) SaveSketchbook(ctx context.Context, sb *sketchbook.Sketchbook) error {
	res, err := s.sketchbooks.ReplaceOne(ctx, bson.M{"_id": sb.ID}, sb)
	if err != nil {
		return fmt.Errorf("failed to save sketchbook: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteSketchbook(ctx context.Context, id string) error {
	res, err := s.sketchbooks.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete sketchbook: %w", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) FindSketchbookByCanvas(ctx context.Context, canvasID string) (*sketchbook.Sketchbook, error) {
	sb, err := s.findOne(ctx, bson.M{"canvases._id": canvasID})
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to find canvas: %w", err)
	}
	return sb, err
}

type recentRow struct {
	SketchbookID    string        `bson:"sketchbookId"`
	SketchbookTitle string        `bson:"sketchbookTitle"`
	Canvas          canvas.Canvas `bson:"canvas"`
}

func (s *Store) RecentCanvases(ctx context.Context, limit int) ([]*sketchbook.CanvasRef, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$unwind", Value: "$canvases"}},
		{{Key: "$sort", Value: bson.D{{Key: "canvases.lastModified", Value: -1}}}},
		{{Key: "$limit", Value: int64(limit)}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "sketchbookId", Value: "$_id"},
			{Key: "sketchbookTitle", Value: "$title"},
			{Key: "canvas", Value: "$canvases"},
		}}},
	}

	cursor, err := s.sketchbooks.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent canvases: %w", err)
	}

	var rows []recentRow
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode recent canvases: %w", err)
	}

	refs := make([]*sketchbook.CanvasRef, 0, len(rows))
	for _, row := range rows {
		if row.Canvas.Elements == nil {
			row.Canvas.Elements = []canvas.Element{}
		}
		refs = append(refs, &sketchbook.CanvasRef{
			Canvas:          row.Canvas,
			SketchbookID:    row.SketchbookID,
			SketchbookTitle: row.SketchbookTitle,
		})
	}
	return refs, nil
}

func (s *Store) UpsertCoordinates(ctx context.Context, rec *coordinates.Record) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coordinates.ReplaceOne(ctx, bson.M{"canvasId": rec.CanvasID}, rec, opts); err != nil {
		return fmt.Errorf("failed to upsert coordinates: %w", err)
	}
	return nil
}

func (s *Store) GetCoordinates(ctx context.Context, canvasID string) (*coordinates.Record, error) {
	var rec coordinates.Record
	if err := s.coordinates.FindOne(ctx, bson.M{"canvasId": canvasID}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get coordinates: %w", err)
	}
	return &rec, nil
}

func (s *Store) ListCoordinates(ctx context.Context) ([]*coordinates.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "canvasId", Value: 1}})
	cursor, err := s.coordinates.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list coordinates: %w", err)
	}

	records := []*coordinates.Record{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode coordinates: %w", err)
	}
	return records, nil
}

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	if _, err := s.users.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	var u user.User
	if err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
