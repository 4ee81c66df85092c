package main

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"cropsight/internal/crops"
	"cropsight/internal/engine"
	"cropsight/internal/imagery"
)

type App struct {
	cfg     Config
	log     *zap.Logger
	metrics *metrics

	mongo  *mongo.Client
	db     *mongo.Database
	users  *mongo.Collection
	fields *mongo.Collection

	crops    *crops.Table
	engine   *engine.Engine
	imagery  imagery.Provider
	analyses analysisStore
}

func newApp(ctx context.Context, cfg Config, log *zap.Logger) (*App, error) {
	table := crops.Default()
	if cfg.CropTablePath != "" {
		t, err := crops.Load(cfg.CropTablePath)
		if err != nil {
			return nil, err
		}
		table = t
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	db := client.Database(cfg.MongoDB)

	app := &App{
		cfg:     cfg,
		log:     log,
		metrics: newMetrics(),
		mongo:   client,
		db:      db,
		users:   db.Collection("users"),
		fields:  db.Collection("fields"),
		crops:   table,
		engine:  engine.New(table),
		imagery: imagery.NewClient(imagery.Options{
			BaseURL:    cfg.ProcessorURI,
			RetryCount: 2,
		}),
	}
	// Indexes
	if _, err := app.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return nil, err
	}
	if _, err := app.fields.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}},
	}); err != nil {
		return nil, err
	}

	store, err := newMongoAnalysisStore(ctx, db.Collection("analyses"))
	if err != nil {
		return nil, err
	}
	app.analyses = store
	return app, nil
}

func (a *App) close(ctx context.Context) { _ = a.mongo.Disconnect(ctx) }
