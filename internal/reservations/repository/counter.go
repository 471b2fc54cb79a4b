package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoCounterRepository struct {
	collection *mongo.Collection
}

func newMongoCounterRepository(db *mongo.Database) CounterRepository {
	return &mongoCounterRepository{collection: db.Collection(CountersCollection)}
}

func CounterID(prefix string, year int) string {
	return fmt.Sprintf("%s-%d", prefix, year)
}

// Next bumps the counter with a pipeline upsert so a missing or lagging counter
// catches up with floor in the same write.
func (r *mongoCounterRepository) Next(ctx context.Context, prefix string, year int, floor int) (int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"prefix": prefix,
			"year":   year,
			"seq": bson.M{"$add": bson.A{
				bson.M{"$max": bson.A{bson.M{"$ifNull": bson.A{"$seq", 0}}, floor}},
				1,
			}},
		}}},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc struct {
		Seq int `bson:"seq"`
	}
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": CounterID(prefix, year)}, pipeline, opts).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("failed to advance confirmation counter: %w", err)
	}
	return doc.Seq, nil
}
