package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/schoolfinder/schoolfinder/internal/catalog"
)

// MongoRepo reads the catalog from a MongoDB collection. Documents carry a
// "position" field that defines catalog order and a unique "slug".
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(ctx context.Context, col *mongo.Collection) (*MongoRepo, error) {
	idx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "position", Value: 1}}},
	}
	if _, err := col.Indexes().CreateMany(ctx, idx); err != nil {
		return nil, fmt.Errorf("create catalog indexes: %w", err)
	}
	return &MongoRepo{col: col}, nil
}

func (m *MongoRepo) List(ctx context.Context) ([]catalog.School, error) {
	cur, err := m.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "position", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list schools: %w", err)
	}
	defer cur.Close(ctx)
	out := []catalog.School{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode schools: %w", err)
	}
	return out, nil
}

func (m *MongoRepo) Get(ctx context.Context, slug string) (*catalog.School, error) {
	var s catalog.School
	err := m.col.FindOne(ctx, bson.M{"slug": slug}).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("get school %s: %w", slug, err)
	}
	return &s, nil
}

// Seed upserts schools by slug, keeping their document order as catalog order.
// It returns the number of inserted and modified documents.
func (m *MongoRepo) Seed(ctx context.Context, schools []catalog.School) (inserted, modified int64, err error) {
	if len(schools) == 0 {
		return 0, 0, nil
	}
	models := make([]mongo.WriteModel, 0, len(schools))
	for i, s := range schools {
		s.Position = i
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"slug": s.Slug}).
			SetReplacement(s).
			SetUpsert(true))
	}
	res, err := m.col.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return 0, 0, fmt.Errorf("seed catalog: %w", err)
	}
	return res.UpsertedCount, res.ModifiedCount, nil
}
