package repository

import (
	"context"
	"fmt"

	"studiobook/pkg/config"
	"studiobook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoHistoryRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func newMongoHistoryRepository(cfg *config.Config, db *mongo.Database) HistoryRepository {
	return &mongoHistoryRepository{
		cfg:        cfg,
		collection: db.Collection(HistoryCollection),
	}
}

func (r *mongoHistoryRepository) Append(ctx context.Context, entry *model.StatusHistoryEntry) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to append status history: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		entry.ID = oid.Hex()
	}
	return nil
}

func (r *mongoHistoryRepository) FindByReservation(ctx context.Context, reservationID string) ([]*model.StatusHistoryEntry, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{
		{Key: "changed_at", Value: 1},
		{Key: "_id", Value: 1},
	})
	cursor, err := r.collection.Find(ctx, bson.M{"reservation_id": reservationID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find status history: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*model.StatusHistoryEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode status history: %w", err)
	}
	return entries, nil
}
