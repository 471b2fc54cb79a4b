package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	availabilityerrors "studiobook/internal/availability/errors"
	"studiobook/pkg/config"
	"studiobook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Availability_config"

	studioConfigID = "studio"
)

// ConfigRepository persists the single studio availability configuration.
type ConfigRepository interface {
	Get(ctx context.Context) (*model.AvailabilityConfig, error)
	// Save stores cfg if the persisted version still equals expectedVersion, or
	// if nothing is persisted yet.
	Save(ctx context.Context, cfg *model.AvailabilityConfig, expectedVersion int64) error
}

type mongoConfigRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoConfigRepository(cfg *config.Config) ConfigRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoConfigRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoConfigRepository) Get(ctx context.Context) (*model.AvailabilityConfig, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var doc model.AvailabilityConfig
	err := r.collection.FindOne(ctx, bson.M{"_id": studioConfigID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, availabilityerrors.ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to load availability config: %w", err)
	}
	return &doc, nil
}

// Save upserts on {_id, version}. When another writer already advanced the
// version the upsert collides on _id and reports a version mismatch.
func (r *mongoConfigRepository) Save(ctx context.Context, cfg *model.AvailabilityConfig, expectedVersion int64) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	doc := *cfg
	doc.ID = studioConfigID

	filter := bson.M{"_id": studioConfigID, "version": expectedVersion}
	_, err := r.collection.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return availabilityerrors.ErrVersionMismatch
		}
		return fmt.Errorf("failed to save availability config: %w", err)
	}
	return nil
}

type memoryConfigRepository struct {
	mu  sync.Mutex
	doc *model.AvailabilityConfig
}

func NewMemoryConfigRepository() ConfigRepository {
	return &memoryConfigRepository{}
}

func (r *memoryConfigRepository) Get(_ context.Context) (*model.AvailabilityConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.doc == nil {
		return nil, availabilityerrors.ErrConfigNotFound
	}
	return r.doc.Clone(), nil
}

func (r *memoryConfigRepository) Save(_ context.Context, cfg *model.AvailabilityConfig, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.doc != nil && r.doc.Version != expectedVersion {
		return availabilityerrors.ErrVersionMismatch
	}
	doc := cfg.Clone()
	doc.ID = studioConfigID
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = time.Now().UTC()
	}
	r.doc = doc
	return nil
}
