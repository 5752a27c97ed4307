package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/schoolfinder/schoolfinder/internal/admission"
)

// MongoRepo stores one document per application, keyed by the application id.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(ctx context.Context, col *mongo.Collection) (*MongoRepo, error) {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "parentId", Value: 1}, {Key: "createdAt", Value: -1}}}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, fmt.Errorf("create application index: %w", err)
	}
	return &MongoRepo{col: col}, nil
}

// Create stores app. Nil lists are written as empty arrays so later $push updates apply.
func (m *MongoRepo) Create(ctx context.Context, app *admission.ApplicationData) error {
	doc := app.Clone()
	if doc.Documents == nil {
		doc.Documents = []admission.DocumentUpload{}
	}
	if doc.Matches == nil {
		doc.Matches = []admission.SchoolMatch{}
	}
	if doc.Messages == nil {
		doc.Messages = []admission.ChatMessage{}
	}
	if _, err := m.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*admission.ApplicationData, error) {
	var a admission.ApplicationData
	if err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, admission.ErrNotFound
		}
		return nil, fmt.Errorf("get application %s: %w", id, err)
	}
	return &a, nil
}

func (m *MongoRepo) ListByParent(ctx context.Context, parentID string) ([]admission.ApplicationData, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := m.col.Find(ctx, bson.M{"parentId": parentID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer cur.Close(ctx)
	out := []admission.ApplicationData{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode applications: %w", err)
	}
	return out, nil
}

func (m *MongoRepo) update(ctx context.Context, id string, update bson.M) error {
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("update application %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return admission.ErrNotFound
	}
	return nil
}

func (m *MongoRepo) UpdateStatus(ctx context.Context, id string, status admission.ApplicationStatus, at time.Time) error {
	return m.update(ctx, id, bson.M{"$set": bson.M{"status": status, "updatedAt": at}})
}

func (m *MongoRepo) AddDocument(ctx context.Context, id string, doc admission.DocumentUpload, at time.Time) error {
	return m.update(ctx, id, bson.M{
		"$push": bson.M{"documents": doc},
		"$set":  bson.M{"updatedAt": at},
	})
}

func (m *MongoRepo) AppendMessage(ctx context.Context, id string, msg admission.ChatMessage, at time.Time) error {
	return m.update(ctx, id, bson.M{
		"$push": bson.M{"messages": msg},
		"$set":  bson.M{"updatedAt": at},
	})
}

func (m *MongoRepo) SetMatches(ctx context.Context, id string, matches []admission.SchoolMatch, at time.Time) error {
	if matches == nil {
		matches = []admission.SchoolMatch{}
	}
	return m.update(ctx, id, bson.M{"$set": bson.M{"matches": matches, "updatedAt": at}})
}
