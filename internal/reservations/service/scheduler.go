package service

import (
	"context"
	"errors"
	"time"

	reservationserrors "studiobook/internal/reservations/errors"
	"studiobook/internal/reservations/repository"
	"studiobook/pkg/config"
	mongotx "studiobook/pkg/db/mongo"
	apperrors "studiobook/pkg/errors"
	"studiobook/pkg/logger"

	"github.com/google/uuid"
)

const (
	// StudioID keys the admission lock and guard. The engine schedules a single studio.
	StudioID = "studio"

	lockAttempts = 5
	lockBackoff  = 20 * time.Millisecond
)

var windowLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// Scheduler validates reservation windows and runs admission decisions.
type Scheduler struct {
	store    *repository.Store
	location *time.Location
	lockTTL  time.Duration
	log      *logger.Logger
}

func NewScheduler(store *repository.Store, cfg *config.Config) *Scheduler {
	return &Scheduler{
		store:    store,
		location: cfg.Location(),
		lockTTL:  cfg.AdmissionLockTTL,
		log:      cfg.Log,
	}
}

// ParseWindow parses RFC3339 instants, or local date-times in loc when no
// offset is given. Results are UTC.
func (s *Scheduler) ParseWindow(startRaw, endRaw string, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = s.location
	}
	start, err := parseInstant("start_at", startRaw, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseInstant("end_at", endRaw, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func parseInstant(field, raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range windowLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperrors.InvalidTimeFormat(field, raw)
}

// ValidateWindow short-circuits on the first failure. An unaligned start is a
// slot error; an aligned start with a fractional-hour length is a duration error.
func (s *Scheduler) ValidateWindow(start, end time.Time) error {
	if !start.Before(end) {
		return apperrors.ValidationFields("Invalid reservation window",
			apperrors.FieldError{Field: "start_at", Message: "start_at must be before end_at"})
	}
	if !onTheHour(start.In(s.location)) {
		return apperrors.InvalidTimeSlot("Reservations must start on the hour")
	}
	d := end.Sub(start)
	if d < time.Hour || d%time.Hour != 0 {
		return apperrors.InvalidDuration("Reservations must last a whole number of hours")
	}
	if !onTheHour(end.In(s.location)) {
		return apperrors.InvalidTimeSlot("Reservations must end on the hour")
	}
	return nil
}

func onTheHour(t time.Time) bool {
	return t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

// CheckSlotAvailable reports SlotAlreadyBooked when [start, end) overlaps a
// confirmed reservation other than excludeID.
func (s *Scheduler) CheckSlotAvailable(ctx context.Context, start, end time.Time, excludeID string) error {
	return s.translate(s.checkOverlap(ctx, start, end, excludeID), "check slot")
}

// ValidateAndCheckSlot parses, validates and checks a window in one call.
func (s *Scheduler) ValidateAndCheckSlot(ctx context.Context, startRaw, endRaw, excludeID string) error {
	start, end, err := s.ParseWindow(startRaw, endRaw, s.location)
	if err != nil {
		return err
	}
	if err := s.ValidateWindow(start, end); err != nil {
		return err
	}
	return s.CheckSlotAvailable(ctx, start, end, excludeID)
}

// checkOverlap returns repository errors untranslated so a transaction can
// still recognise transient failures.
func (s *Scheduler) checkOverlap(ctx context.Context, start, end time.Time, excludeID string) error {
	overlapping, err := s.store.Reservations.FindConfirmedOverlapping(ctx, start, end, excludeID)
	if err != nil {
		return err
	}
	if len(overlapping) > 0 {
		return apperrors.SlotAlreadyBooked(overlapping[0].StartAt, overlapping[0].EndAt)
	}
	return nil
}

// admit runs fn as an admission decision: under the studio lock, inside a
// transaction that first touches the studio guard document.
func (s *Scheduler) admit(ctx context.Context, fn mongotx.TransactionFunc) error {
	owner := uuid.NewString()
	if err := s.acquire(ctx, owner); err != nil {
		return err
	}
	defer func() {
		if err := s.store.Locks.Release(context.WithoutCancel(ctx), StudioID, owner); err != nil {
			s.log.Warn("Failed to release admission lock", "owner", owner, "error", err)
		}
	}()

	return s.store.Tx.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.store.Guard.Touch(txCtx, StudioID); err != nil {
			return err
		}
		return fn(txCtx)
	})
}

func (s *Scheduler) acquire(ctx context.Context, owner string) error {
	var err error
	for attempt := 1; attempt <= lockAttempts; attempt++ {
		err = s.store.Locks.Acquire(ctx, StudioID, owner, s.lockTTL)
		if !errors.Is(err, reservationserrors.ErrLockHeld) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * lockBackoff):
		}
	}
	return err
}

// translate maps repository and transaction failures onto the API error set.
func (s *Scheduler) translate(err error, operation string) error {
	if err == nil || apperrors.IsAppError(err) {
		return err
	}

	switch {
	case errors.Is(err, reservationserrors.ErrNotFound):
		return apperrors.NotFound("Reservation")
	case errors.Is(err, reservationserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid reservation ID format")
	case errors.Is(err, reservationserrors.ErrLockHeld),
		errors.Is(err, reservationserrors.ErrStaleStatus),
		errors.Is(err, reservationserrors.ErrDuplicateConfirmation),
		mongotx.IsWriteConflict(err):
		s.log.Info("Admission conflict", "operation", operation, "error", err)
		return apperrors.ConcurrencyConflict(err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout("The request took too long to process")
	}

	s.log.Error("Reservation operation failed", "operation", operation, "error", err)
	return apperrors.Internal("Failed to process reservation", err)
}
