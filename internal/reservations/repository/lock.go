package repository

import (
	"context"
	"fmt"
	"time"

	reservationserrors "studiobook/internal/reservations/errors"
	"studiobook/pkg/config"
	"studiobook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func newMongoLockRepository(cfg *config.Config, db *mongo.Database) LockRepository {
	return &mongoLockRepository{
		cfg:        cfg,
		collection: db.Collection(LocksCollection),
	}
}

// Acquire inserts the lock document. The TTL monitor only sweeps once a minute,
// so an expired lock that is still present is removed and the insert retried once.
func (r *mongoLockRepository) Acquire(ctx context.Context, lockID, owner string, ttl time.Duration) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	for attempt := 0; attempt < 2; attempt++ {
		now := time.Now().UTC()
		lock := model.ReservationLock{
			ID:        lockID,
			Owner:     owner,
			ExpiresAt: now.Add(ttl),
			CreatedAt: now,
		}
		_, err := r.collection.InsertOne(ctx, lock)
		if err == nil {
			return nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("failed to acquire lock: %w", err)
		}

		res, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID, "expires_at": bson.M{"$lte": now}})
		if err != nil {
			return fmt.Errorf("failed to clear expired lock: %w", err)
		}
		if res.DeletedCount == 0 {
			return reservationserrors.ErrLockHeld
		}
	}
	return reservationserrors.ErrLockHeld
}

func (r *mongoLockRepository) Release(ctx context.Context, lockID, owner string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID, "owner": owner})
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

type mongoAdmissionGuard struct {
	collection *mongo.Collection
}

func newMongoAdmissionGuard(db *mongo.Database) AdmissionGuard {
	return &mongoAdmissionGuard{collection: db.Collection(GuardsCollection)}
}

func (g *mongoAdmissionGuard) Touch(ctx context.Context, studioID string) error {
	update := bson.M{
		"$inc": bson.M{"seq": 1},
		"$set": bson.M{"touched_at": time.Now().UTC()},
	}
	_, err := g.collection.UpdateOne(ctx, bson.M{"_id": studioID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to touch admission guard: %w", err)
	}
	return nil
}
