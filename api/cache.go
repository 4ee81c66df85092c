package main

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cropsight/api/models"
)

// analysisLookup identifies a reusable analysis. Key covers geometry, dates,
// crop and index set. Area and sowing age feed the carbon figures and the
// cloud cover limit decides which scenes are used, so they are matched too.
type analysisLookup struct {
	OwnerID         primitive.ObjectID
	FieldID         primitive.ObjectID
	Key             string
	AreaHa          float64
	DaysSinceSowing int
	MaxCloudCover   float64
}

// analysisStore keeps analyses append-only: stored documents are never updated.
type analysisStore interface {
	Find(ctx context.Context, l analysisLookup) (*models.Analysis, error)
	Insert(ctx context.Context, an models.Analysis) error
	List(ctx context.Context, owner, field primitive.ObjectID, limit int64) ([]models.Analysis, error)
	Latest(ctx context.Context, owner, field primitive.ObjectID) (*models.Analysis, error)
}

type mongoAnalysisStore struct {
	coll *mongo.Collection
}

func newMongoAnalysisStore(ctx context.Context, coll *mongo.Collection) (*mongoAnalysisStore, error) {
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "fieldId", Value: 1}, {Key: "key", Value: 1}}},
		{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "fieldId", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("analysis indexes: %w", err)
	}
	return &mongoAnalysisStore{coll: coll}, nil
}

func (s *mongoAnalysisStore) Find(ctx context.Context, l analysisLookup) (*models.Analysis, error) {
	filter := bson.M{
		"ownerId":         l.OwnerID,
		"fieldId":         l.FieldID,
		"key":             l.Key,
		"areaHa":          l.AreaHa,
		"daysSinceSowing": l.DaysSinceSowing,
		"maxCloudCover":   l.MaxCloudCover,
	}
	return s.findOne(ctx, filter)
}

func (s *mongoAnalysisStore) Insert(ctx context.Context, an models.Analysis) error {
	if _, err := s.coll.InsertOne(ctx, &an); err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

func (s *mongoAnalysisStore) List(ctx context.Context, owner, field primitive.ObjectID, limit int64) ([]models.Analysis, error) {
	cur, err := s.coll.Find(ctx,
		bson.M{"ownerId": owner, "fieldId": field},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.Analysis{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode analyses: %w", err)
	}
	return out, nil
}

func (s *mongoAnalysisStore) Latest(ctx context.Context, owner, field primitive.ObjectID) (*models.Analysis, error) {
	return s.findOne(ctx, bson.M{"ownerId": owner, "fieldId": field})
}

// findOne returns the newest match, or nil when there is none.
func (s *mongoAnalysisStore) findOne(ctx context.Context, filter bson.M) (*models.Analysis, error) {
	var an models.Analysis
	err := s.coll.FindOne(ctx, filter, options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})).Decode(&an)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find analysis: %w", err)
	}
	return &an, nil
}
