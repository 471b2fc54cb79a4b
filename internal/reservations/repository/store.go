package repository

import (
	"context"
	"time"

	"studiobook/pkg/config"
	mongotx "studiobook/pkg/db/mongo"
	"studiobook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	ReservationsCollection = "Reservations"
	HistoryCollection      = "Reservation_history"
	LocksCollection        = "Reservation_locks"
	GuardsCollection       = "Admission_guards"
	CountersCollection     = "Confirmation_counters"
)

type ReservationRepository interface {
	Insert(ctx context.Context, r *model.Reservation) error
	FindByID(ctx context.Context, id string) (*model.Reservation, error)
	// FindConfirmedOverlapping returns confirmed reservations whose [start_at, end_at)
	// overlaps [start, end), skipping excludeID when set.
	FindConfirmedOverlapping(ctx context.Context, start, end time.Time, excludeID string) ([]*model.Reservation, error)
	FindConfirmedReservationsForDate(ctx context.Context, from, to time.Time) ([]model.BlockedInterval, error)
	// UpdateSchedule and UpdateStatus only apply while the stored status equals
	// expected, returning ErrStaleStatus otherwise.
	UpdateSchedule(ctx context.Context, id string, expected model.ReservationStatus, change model.ScheduleChange) (*model.Reservation, error)
	UpdateStatus(ctx context.Context, id string, expected model.ReservationStatus, change model.StatusChange) (*model.Reservation, error)
	MaxConfirmationSequenceForYear(ctx context.Context, year int, prefix string) (int, error)
}

type HistoryRepository interface {
	Append(ctx context.Context, entry *model.StatusHistoryEntry) error
	FindByReservation(ctx context.Context, reservationID string) ([]*model.StatusHistoryEntry, error)
}

// LockRepository is an advisory lock with expiry. Acquire returns ErrLockHeld
// when a live lock with the same id exists.
type LockRepository interface {
	Acquire(ctx context.Context, lockID, owner string, ttl time.Duration) error
	Release(ctx context.Context, lockID, owner string) error
}

// AdmissionGuard writes a per-studio document inside the admission
// transaction so concurrent admissions conflict at commit.
type AdmissionGuard interface {
	Touch(ctx context.Context, studioID string) error
}

// CounterRepository hands out confirmation sequence numbers. The returned
// value is strictly greater than both the previous value and floor.
type CounterRepository interface {
	Next(ctx context.Context, prefix string, year int, floor int) (int, error)
}

type Store struct {
	Reservations ReservationRepository
	History      HistoryRepository
	Locks        LockRepository
	Guard        AdmissionGuard
	Counters     CounterRepository
	Tx           mongotx.TransactionManager
}

func NewMongoStore(cfg *config.Config) *Store {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &Store{
		Reservations: newMongoReservationRepository(cfg, db),
		History:      newMongoHistoryRepository(cfg, db),
		Locks:        newMongoLockRepository(cfg, db),
		Guard:        newMongoAdmissionGuard(db),
		Counters:     newMongoCounterRepository(db),
		Tx:           mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// A SessionContext cannot be wrapped without detaching it from its session.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}

	return context.WithTimeout(ctx, timeout)
}
