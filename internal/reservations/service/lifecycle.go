package service

import (
	"context"
	"slices"

	reservationserrors "studiobook/internal/reservations/errors"
	"studiobook/internal/reservations/events"
	"studiobook/internal/reservations/validator"
	apperrors "studiobook/pkg/errors"
	"studiobook/pkg/model"
)

var transitions = map[model.ReservationStatus][]model.ReservationStatus{
	model.StatusPending:   {model.StatusConfirmed, model.StatusCancelled, model.StatusCompleted},
	model.StatusConfirmed: {model.StatusCancelled, model.StatusCompleted},
}

// CheckTransition reports NotEditable for terminal sources and a field
// validation error for any other pair outside the table.
func CheckTransition(r *model.Reservation, to model.ReservationStatus) error {
	if r.Status.Terminal() {
		return apperrors.NotEditable(r.ID, string(r.Status))
	}
	if !slices.Contains(transitions[r.Status], to) {
		return apperrors.ValidationFields("Invalid status transition",
			apperrors.FieldError{Field: "status", Message: "cannot change status from " + string(r.Status) + " to " + string(to)})
	}
	return nil
}

func (s *reservationService) TransitionReservation(ctx context.Context, id string, req *model.TransitionRequest, actor string) (*model.Reservation, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, validator.AsAppError("Transition validation failed", err)
	}
	target := req.Status

	var (
		updated  *model.Reservation
		previous model.ReservationStatus
	)
	apply := func(txCtx context.Context) error {
		current, err := s.store.Reservations.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := CheckTransition(current, target); err != nil {
			return err
		}

		now := s.clock.Now()
		change := model.StatusChange{Status: target, UpdatedAt: now}
		if target == model.StatusConfirmed {
			if err := s.scheduler.checkOverlap(txCtx, current.StartAt, current.EndAt, id); err != nil {
				return err
			}
			if err := s.confirm(txCtx, current); err != nil {
				return err
			}
			change.ConfirmationID = current.ConfirmationID
			change.ConfirmationYear = current.ConfirmationYear
			change.ConfirmationSeq = current.ConfirmationSeq
			change.ConfirmedAt = current.ConfirmedAt
		}

		result, err := s.store.Reservations.UpdateStatus(txCtx, id, current.Status, change)
		if err != nil {
			return err
		}
		if err := s.store.History.Append(txCtx, &model.StatusHistoryEntry{
			ReservationID: id,
			OldStatus:     current.Status,
			NewStatus:     target,
			ChangedBy:     actor,
			ChangedAt:     now,
			Notes:         req.Notes,
		}); err != nil {
			return err
		}

		updated, previous = result, current.Status
		return nil
	}

	var err error
	if target == model.StatusConfirmed {
		err = s.scheduler.admit(ctx, apply)
	} else {
		err = s.store.Tx.ExecuteTransaction(ctx, apply)
	}
	if err != nil {
		return nil, s.scheduler.translate(err, "transition")
	}

	if previous.BlocksTime() || target.BlocksTime() {
		s.invalidate(ctx, updated)
	}
	s.cfg.Log.Info("Reservation status changed",
		"reservation_id", id,
		"from", previous,
		"to", target,
		"actor", actor,
	)
	if eventType, ok := events.ForStatus(target); ok {
		s.events.Publish(ctx, eventType, updated, previous, actor)
	}
	return updated, nil
}

// RescheduleReservation moves a pending or confirmed reservation. A confirmed
// reservation is re-admitted against every other confirmed reservation.
func (s *reservationService) RescheduleReservation(ctx context.Context, id string, req *model.ScheduleRequest, actor string) (*model.Reservation, error) {
	original, err := s.store.Reservations.FindByID(ctx, id)
	if err != nil {
		return nil, s.scheduler.translate(err, "reschedule")
	}
	// Terminal reservations reject every reschedule, whatever the payload.
	if original.Status.Terminal() {
		return nil, apperrors.NotEditable(id, string(original.Status))
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, validator.AsAppError("Schedule validation failed", err)
	}

	loc, _ := s.location(original.Timezone)
	start, end, err := s.scheduler.ParseWindow(req.StartAt, req.EndAt, loc)
	if err != nil {
		return nil, err
	}
	if err := s.scheduler.ValidateWindow(start, end); err != nil {
		return nil, err
	}

	var updated *model.Reservation
	apply := func(txCtx context.Context) error {
		current, err := s.store.Reservations.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if current.Status.Terminal() {
			return apperrors.NotEditable(id, string(current.Status))
		}
		if current.Status != original.Status {
			return reservationserrors.ErrStaleStatus
		}
		if err := s.scheduler.checkOverlap(txCtx, start, end, id); err != nil {
			return err
		}

		updated, err = s.store.Reservations.UpdateSchedule(txCtx, id, current.Status, model.ScheduleChange{
			StartAt:       start,
			EndAt:         end,
			DurationHours: durationHours(start, end),
			UpdatedAt:     s.clock.Now(),
		})
		return err
	}

	if original.Status == model.StatusConfirmed {
		err = s.scheduler.admit(ctx, apply)
	} else {
		err = s.store.Tx.ExecuteTransaction(ctx, apply)
	}
	if err != nil {
		return nil, s.scheduler.translate(err, "reschedule")
	}

	if updated.Status.BlocksTime() {
		s.invalidate(ctx, original, updated)
	}
	s.cfg.Log.Info("Reservation rescheduled",
		"reservation_id", id,
		"start_at", updated.StartAt,
		"end_at", updated.EndAt,
		"actor", actor,
	)
	s.events.Publish(ctx, events.ReservationRescheduled, updated, "", actor)
	return updated, nil
}
