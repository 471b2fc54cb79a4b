package service

import (
	"context"
	"errors"
	"time"

	availabilityerrors "studiobook/internal/availability/errors"
	"studiobook/internal/availability/store"
	"studiobook/internal/availability/validator"
	"studiobook/pkg/cache"
	"studiobook/pkg/clock"
	"studiobook/pkg/config"
	apperrors "studiobook/pkg/errors"
	"studiobook/pkg/interval"
	"studiobook/pkg/model"
)

const DateLayout = "2006-01-02"

// BlockedIntervalSource lists confirmed reservations overlapping [from, to).
type BlockedIntervalSource interface {
	FindConfirmedReservationsForDate(ctx context.Context, from, to time.Time) ([]model.BlockedInterval, error)
}

type AvailabilityService interface {
	GetAvailableSlots(ctx context.Context, date string, durationMinutes int) ([]model.TimeSlot, error)
	GetConfig(ctx context.Context) *model.AvailabilityConfig
	UpdateConfig(ctx context.Context, update *model.AvailabilityConfigUpdate, actor string) (*model.AvailabilityConfig, error)
}

type availabilityService struct {
	store     *store.Store
	blocked   BlockedIntervalSource
	cache     cache.AvailabilityCache
	validator *validator.AvailabilityValidator
	clock     clock.Clock
	location  *time.Location
	cfg       *config.Config
}

func NewAvailabilityService(
	store *store.Store,
	blocked BlockedIntervalSource,
	cache cache.AvailabilityCache,
	validator *validator.AvailabilityValidator,
	clock clock.Clock,
	cfg *config.Config,
) AvailabilityService {
	return &availabilityService{
		store:     store,
		blocked:   blocked,
		cache:     cache,
		validator: validator,
		clock:     clock,
		location:  cfg.Location(),
		cfg:       cfg,
	}
}

func (s *availabilityService) GetAvailableSlots(ctx context.Context, date string, durationMinutes int) ([]model.TimeSlot, error) {
	day, err := time.ParseInLocation(DateLayout, date, s.location)
	if err != nil {
		return nil, apperrors.InvalidTimeFormat("date", date)
	}
	if durationMinutes < 0 {
		return nil, apperrors.ValidationFields("Invalid duration",
			apperrors.FieldError{Field: "duration", Message: "duration must not be negative"})
	}

	snapshot := s.store.Load()
	if durationMinutes == 0 {
		durationMinutes = snapshot.SlotDurationMinutes
	}

	// The generation is read before the reservations so a booking committed
	// while we compute makes the write below a no-op.
	slots, generation, hit, err := s.cache.Get(ctx, date, snapshot.Version, durationMinutes)
	if err != nil {
		s.cfg.Log.Warn("Availability cache read failed", "date", date, "error", err)
	}
	if !hit {
		slots, err = s.computeSlots(ctx, day, snapshot, durationMinutes)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, date, generation, snapshot.Version, durationMinutes, slots); err != nil {
			s.cfg.Log.Warn("Availability cache write failed", "date", date, "error", err)
		}
	}

	return s.markPast(day, slots), nil
}

func (s *availabilityService) computeSlots(ctx context.Context, day time.Time, snapshot *model.AvailabilityConfig, durationMinutes int) ([]model.TimeSlot, error) {
	hours := snapshot.OpeningHours.For(day.Weekday())
	slots, err := GenerateSlots(hours, snapshot.SlotDurationMinutes)
	if err != nil {
		return nil, apperrors.Internal("Invalid opening hours configuration", err)
	}
	if len(slots) == 0 {
		return slots, nil
	}
	// Longer than any day, so nothing fits. Returning early also keeps the
	// duration arithmetic below within time.Duration range.
	if durationMinutes > model.MinutesPerDay {
		for i := range slots {
			slots[i].Available = false
		}
		return slots, nil
	}

	_, closeMinutes, _ := hours.Minutes()
	dayEnd := at(day, closeMinutes)

	blockedRaw, err := s.blocked.FindConfirmedReservationsForDate(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		s.cfg.Log.Error("Failed to load confirmed reservations",
			"date", day.Format(DateLayout),
			"error", err,
		)
		return nil, apperrors.Internal("Failed to load reservations", err)
	}
	blocked := make([]interval.Interval, 0, len(blockedRaw))
	for _, b := range blockedRaw {
		blocked = append(blocked, b.Interval())
	}

	for i := range slots {
		startMinutes, _ := model.ParseClock(slots[i].StartTime)
		start := at(day, startMinutes)
		candidate := interval.New(start, start.Add(time.Duration(durationMinutes)*time.Minute))

		if candidate.End.After(dayEnd) {
			slots[i].Available = false
			continue
		}
		if _, conflict := interval.OverlapsAny(candidate, blocked); conflict {
			slots[i].Available = false
		}
	}
	return slots, nil
}

// markPast flags slots that have already started. Applied after the cache so
// cached entries never go stale on the clock.
func (s *availabilityService) markPast(day time.Time, slots []model.TimeSlot) []model.TimeSlot {
	now := s.clock.Now()
	out := make([]model.TimeSlot, len(slots))
	for i, slot := range slots {
		out[i] = slot
		startMinutes, err := model.ParseClock(slot.StartTime)
		if err == nil && at(day, startMinutes).Before(now) {
			out[i].Available = false
		}
	}
	return out
}

func (s *availabilityService) GetConfig(_ context.Context) *model.AvailabilityConfig {
	return s.store.Load().Clone()
}

func (s *availabilityService) UpdateConfig(ctx context.Context, update *model.AvailabilityConfigUpdate, actor string) (*model.AvailabilityConfig, error) {
	if err := s.validator.Validate(update); err != nil {
		s.cfg.Log.Warn("Availability config validation failed", "actor", actor, "error", err)
		var fields validator.ValidationErrors
		if errors.As(err, &fields) {
			return nil, apperrors.ValidationFields("Availability config validation failed", fields...)
		}
		return nil, apperrors.Validation("Availability config validation failed", map[string]any{"error": err.Error()})
	}

	next := &model.AvailabilityConfig{
		SlotDurationMinutes: update.SlotDurationMinutes,
		OpeningHours:        update.OpeningHours.Clone(),
		UpdatedAt:           s.clock.Now(),
		UpdatedBy:           actor,
	}

	saved, err := s.store.Update(ctx, next, update.ExpectedVersion)
	if err != nil {
		if errors.Is(err, availabilityerrors.ErrVersionMismatch) {
			return nil, apperrors.ConcurrencyConflict(err)
		}
		s.cfg.Log.Error("Failed to update availability config", "actor", actor, "error", err)
		return nil, apperrors.Internal("Failed to update availability config", err)
	}

	s.cfg.Log.Info("Availability config updated",
		"version", saved.Version,
		"slot_duration_minutes", saved.SlotDurationMinutes,
		"actor", actor,
	)
	return saved.Clone(), nil
}

// at returns the instant minutes after local midnight of day. 24:00 rolls to
// the next midnight.
func at(day time.Time, minutes int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), minutes/60, minutes%60, 0, 0, day.Location())
}
