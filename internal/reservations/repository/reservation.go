package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	reservationserrors "studiobook/internal/reservations/errors"
	"studiobook/pkg/config"
	"studiobook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoReservationRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func newMongoReservationRepository(cfg *config.Config, db *mongo.Database) ReservationRepository {
	return &mongoReservationRepository{
		cfg:        cfg,
		collection: db.Collection(ReservationsCollection),
	}
}

func (r *mongoReservationRepository) Insert(ctx context.Context, reservation *model.Reservation) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, reservation)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %v", reservationserrors.ErrDuplicateConfirmation, err)
		}
		return fmt.Errorf("failed to insert reservation: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		reservation.ID = oid.Hex()
	}
	return nil
}

func (r *mongoReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", reservationserrors.ErrInvalidID, id)
	}

	var reservation model.Reservation
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&reservation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reservationserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}
	return &reservation, nil
}

func overlapFilter(start, end time.Time) bson.M {
	return bson.M{
		"status":   model.StatusConfirmed,
		"start_at": bson.M{"$lt": end},
		"end_at":   bson.M{"$gt": start},
	}
}

func (r *mongoReservationRepository) FindConfirmedOverlapping(ctx context.Context, start, end time.Time, excludeID string) ([]*model.Reservation, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := overlapFilter(start, end)
	if excludeID != "" {
		objectID, err := primitive.ObjectIDFromHex(excludeID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", reservationserrors.ErrInvalidID, excludeID)
		}
		filter["_id"] = bson.M{"$ne": objectID}
	}

	opts := options.Find().SetSort(bson.D{{Key: "start_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping reservations: %w", err)
	}
	defer cursor.Close(ctx)

	var reservations []*model.Reservation
	if err = cursor.All(ctx, &reservations); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}
	return reservations, nil
}

func (r *mongoReservationRepository) FindConfirmedReservationsForDate(ctx context.Context, from, to time.Time) ([]model.BlockedInterval, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "start_at", Value: 1}}).
		SetProjection(bson.M{"start_at": 1, "end_at": 1})

	cursor, err := r.collection.Find(ctx, overlapFilter(from, to), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find blocked intervals: %w", err)
	}
	defer cursor.Close(ctx)

	var blocked []model.BlockedInterval
	if err = cursor.All(ctx, &blocked); err != nil {
		return nil, fmt.Errorf("failed to decode blocked intervals: %w", err)
	}
	return blocked, nil
}

func (r *mongoReservationRepository) UpdateSchedule(ctx context.Context, id string, expected model.ReservationStatus, change model.ScheduleChange) (*model.Reservation, error) {
	update := bson.M{"$set": bson.M{
		"start_at":       change.StartAt,
		"end_at":         change.EndAt,
		"duration_hours": change.DurationHours,
		"updated_at":     change.UpdatedAt,
	}}
	return r.updateGuarded(ctx, id, expected, update)
}

func (r *mongoReservationRepository) UpdateStatus(ctx context.Context, id string, expected model.ReservationStatus, change model.StatusChange) (*model.Reservation, error) {
	set := bson.M{
		"status":     change.Status,
		"updated_at": change.UpdatedAt,
	}
	if change.ConfirmationID != nil {
		set["confirmation_id"] = *change.ConfirmationID
		set["confirmation_year"] = change.ConfirmationYear
		set["confirmation_seq"] = change.ConfirmationSeq
	}
	if change.ConfirmedAt != nil {
		set["confirmed_at"] = *change.ConfirmedAt
	}
	return r.updateGuarded(ctx, id, expected, bson.M{"$set": set})
}

func (r *mongoReservationRepository) updateGuarded(ctx context.Context, id string, expected model.ReservationStatus, update bson.M) (*model.Reservation, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", reservationserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "status": expected}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated model.Reservation
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("%w: %v", reservationserrors.ErrDuplicateConfirmation, err)
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update reservation: %w", err)
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID})
	if err != nil {
		return nil, fmt.Errorf("failed to check reservation: %w", err)
	}
	if count == 0 {
		return nil, reservationserrors.ErrNotFound
	}
	return nil, reservationserrors.ErrStaleStatus
}

func (r *mongoReservationRepository) MaxConfirmationSequenceForYear(ctx context.Context, year int, prefix string) (int, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"confirmation_year": year,
		"confirmation_id":   bson.M{"$regex": "^" + regexp.QuoteMeta(prefix) + "-"},
	}
	opts := options.FindOne().
		SetSort(bson.D{{Key: "confirmation_seq", Value: -1}}).
		SetProjection(bson.M{"confirmation_seq": 1})

	var doc struct {
		Seq int `bson:"confirmation_seq"`
	}
	err := r.collection.FindOne(ctx, filter, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read confirmation sequence: %w", err)
	}
	return doc.Seq, nil
}
