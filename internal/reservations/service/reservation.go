package service

import (
	"context"
	"time"

	"studiobook/internal/reservations/events"
	"studiobook/internal/reservations/repository"
	"studiobook/internal/reservations/validator"
	"studiobook/pkg/cache"
	"studiobook/pkg/clock"
	"studiobook/pkg/config"
	apperrors "studiobook/pkg/errors"
	"studiobook/pkg/model"
	"studiobook/pkg/sanitizer"
)

const dateLayout = "2006-01-02"

type ReservationService interface {
	ValidateAndCheckSlot(ctx context.Context, req *model.SlotCheckRequest) error
	Submit(ctx context.Context, req *model.ReservationRequest, actor string) (*model.Reservation, error)
	CreateByAdmin(ctx context.Context, req *model.ReservationRequest, actor string) (*model.Reservation, error)
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	History(ctx context.Context, id string) ([]*model.StatusHistoryEntry, error)
	TransitionReservation(ctx context.Context, id string, req *model.TransitionRequest, actor string) (*model.Reservation, error)
	RescheduleReservation(ctx context.Context, id string, req *model.ScheduleRequest, actor string) (*model.Reservation, error)
}

type reservationService struct {
	store         *repository.Store
	scheduler     *Scheduler
	confirmations *ConfirmationGenerator
	validator     *validator.ReservationValidator
	events        events.Publisher
	cache         cache.AvailabilityCache
	clock         clock.Clock
	cfg           *config.Config
}

func NewReservationService(
	store *repository.Store,
	validator *validator.ReservationValidator,
	events events.Publisher,
	cache cache.AvailabilityCache,
	clock clock.Clock,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		store:         store,
		scheduler:     NewScheduler(store, cfg),
		confirmations: NewConfirmationGenerator(store, cfg),
		validator:     validator,
		events:        events,
		cache:         cache,
		clock:         clock,
		cfg:           cfg,
	}
}

func (s *reservationService) ValidateAndCheckSlot(ctx context.Context, req *model.SlotCheckRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return validator.AsAppError("Slot check validation failed", err)
	}
	return s.scheduler.ValidateAndCheckSlot(ctx, req.StartAt, req.EndAt, req.ExcludeID)
}

// Submit records a client request as pending. Pending reservations never block
// availability; the window is re-checked when an admin confirms it.
func (s *reservationService) Submit(ctx context.Context, req *model.ReservationRequest, actor string) (*model.Reservation, error) {
	if req.Status != "" && req.Status != model.StatusPending {
		return nil, apperrors.ValidationFields("Reservation request validation failed",
			apperrors.FieldError{Field: "status", Message: "client submissions are always pending"})
	}

	draft, err := s.prepare(req, model.SourceClient, model.StatusPending, actor)
	if err != nil {
		return nil, err
	}
	if draft.StartAt.Before(s.clock.Now()) {
		return nil, apperrors.ValidationFields("Reservation request validation failed",
			apperrors.FieldError{Field: "start_at", Message: "start_at must not be in the past"})
	}

	var reservation *model.Reservation
	err = s.store.Tx.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		r := draft.Clone()
		if err := s.scheduler.checkOverlap(txCtx, r.StartAt, r.EndAt, ""); err != nil {
			return err
		}
		if err := s.insert(txCtx, r, actor); err != nil {
			return err
		}
		reservation = r
		return nil
	})
	if err != nil {
		return nil, s.scheduler.translate(err, "submit")
	}

	s.cfg.Log.Info("Reservation submitted",
		"reservation_id", reservation.ID,
		"start_at", reservation.StartAt,
		"end_at", reservation.EndAt,
	)
	s.events.Publish(ctx, events.ReservationCreated, reservation, "", actor)
	return reservation, nil
}

// CreateByAdmin records a reservation in any status, confirmed by default.
// Confirmed reservations are admitted atomically and receive a code.
func (s *reservationService) CreateByAdmin(ctx context.Context, req *model.ReservationRequest, actor string) (*model.Reservation, error) {
	status := req.Status
	if status == "" {
		status = model.StatusConfirmed
	}

	draft, err := s.prepare(req, model.SourceAdmin, status, actor)
	if err != nil {
		return nil, err
	}

	var reservation *model.Reservation
	create := func(txCtx context.Context) error {
		r := draft.Clone()
		if !status.Terminal() {
			if err := s.scheduler.checkOverlap(txCtx, r.StartAt, r.EndAt, ""); err != nil {
				return err
			}
		}
		if status == model.StatusConfirmed {
			if err := s.confirm(txCtx, r); err != nil {
				return err
			}
		}
		if err := s.insert(txCtx, r, actor); err != nil {
			return err
		}
		reservation = r
		return nil
	}

	if status == model.StatusConfirmed {
		err = s.scheduler.admit(ctx, create)
	} else {
		err = s.store.Tx.ExecuteTransaction(ctx, create)
	}
	if err != nil {
		return nil, s.scheduler.translate(err, "create")
	}

	if status.BlocksTime() {
		s.invalidate(ctx, reservation)
	}
	s.cfg.Log.Info("Reservation created by admin",
		"reservation_id", reservation.ID,
		"status", reservation.Status,
		"actor", actor,
	)
	s.events.Publish(ctx, events.ReservationCreated, reservation, "", actor)
	return reservation, nil
}

func (s *reservationService) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	reservation, err := s.store.Reservations.FindByID(ctx, id)
	if err != nil {
		return nil, s.scheduler.translate(err, "get")
	}
	return reservation, nil
}

func (s *reservationService) History(ctx context.Context, id string) ([]*model.StatusHistoryEntry, error) {
	if _, err := s.store.Reservations.FindByID(ctx, id); err != nil {
		return nil, s.scheduler.translate(err, "history")
	}
	entries, err := s.store.History.FindByReservation(ctx, id)
	if err != nil {
		return nil, s.scheduler.translate(err, "history")
	}
	if entries == nil {
		entries = []*model.StatusHistoryEntry{}
	}
	return entries, nil
}

// prepare sanitises and validates req and builds the unsaved reservation.
func (s *reservationService) prepare(req *model.ReservationRequest, source model.Source, status model.ReservationStatus, actor string) (*model.Reservation, error) {
	sanitizer.SanitizeReservationRequest(req, s.cfg.PhoneRegions)
	if err := s.validator.Validate(req); err != nil {
		s.cfg.Log.Warn("Reservation request validation failed", "actor", actor, "error", err)
		return nil, validator.AsAppError("Reservation request validation failed", err)
	}

	loc, tz := s.location(req.Timezone)
	start, end, err := s.scheduler.ParseWindow(req.StartAt, req.EndAt, loc)
	if err != nil {
		return nil, err
	}
	if err := s.scheduler.ValidateWindow(start, end); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	return &model.Reservation{
		Status:        status,
		StartAt:       start,
		EndAt:         end,
		Timezone:      tz,
		DurationHours: durationHours(start, end),
		Source:        source,
		ClientName:    req.ClientName,
		ClientEmail:   req.ClientEmail,
		ClientPhone:   req.ClientPhone,
		Notes:         req.Notes,
		CreatedBy:     actor,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// confirm assigns a confirmation code to r. Must run inside the admission transaction.
func (s *reservationService) confirm(ctx context.Context, r *model.Reservation) error {
	now := s.clock.Now()
	c, err := s.confirmations.Next(ctx, now.In(s.scheduler.location).Year())
	if err != nil {
		return err
	}
	r.ConfirmationID = &c.Code
	r.ConfirmationYear = c.Year
	r.ConfirmationSeq = c.Seq
	r.ConfirmedAt = &now
	return nil
}

func (s *reservationService) insert(ctx context.Context, r *model.Reservation, actor string) error {
	if err := s.store.Reservations.Insert(ctx, r); err != nil {
		return err
	}
	return s.store.History.Append(ctx, &model.StatusHistoryEntry{
		ReservationID: r.ID,
		NewStatus:     r.Status,
		ChangedBy:     actor,
		ChangedAt:     r.CreatedAt,
	})
}

// invalidate drops cached availability for every studio-local date r touches.
func (s *reservationService) invalidate(ctx context.Context, reservations ...*model.Reservation) {
	var dates []string
	for _, r := range reservations {
		dates = append(dates, datesOf(r.StartAt, r.EndAt, s.scheduler.location)...)
	}
	if err := s.cache.Invalidate(ctx, dates...); err != nil {
		s.cfg.Log.Warn("Failed to invalidate availability cache", "dates", dates, "error", err)
	}
}

func (s *reservationService) location(tz string) (*time.Location, string) {
	if tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc, tz
		}
	}
	return s.scheduler.location, s.scheduler.location.String()
}

func durationHours(start, end time.Time) int {
	return int(end.Sub(start) / time.Hour)
}

func datesOf(start, end time.Time, loc *time.Location) []string {
	var dates []string
	last := end.Add(-time.Nanosecond).In(loc).Format(dateLayout)
	for day := start.In(loc); ; day = day.AddDate(0, 0, 1) {
		date := day.Format(dateLayout)
		dates = append(dates, date)
		if date >= last {
			return dates
		}
	}
}
