package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"studiobook/internal/reservations/events"
	"studiobook/internal/reservations/repository"
	"studiobook/internal/reservations/validator"
	"studiobook/pkg/clock"
	"studiobook/pkg/config"
	apperrors "studiobook/pkg/errors"
	"studiobook/pkg/logger"
	"studiobook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvent struct {
	Type     events.EventType
	ID       string
	Previous model.ReservationStatus
}

type recordingEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingEvents) Publish(_ context.Context, t events.EventType, res *model.Reservation, previous model.ReservationStatus, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{Type: t, ID: res.ID, Previous: previous})
}

func (r *recordingEvents) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.EventType
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type recordingCache struct {
	mu          sync.Mutex
	invalidated []string
}

func (c *recordingCache) Get(context.Context, string, int64, int) ([]model.TimeSlot, int64, bool, error) {
	return nil, 0, false, nil
}

func (c *recordingCache) Set(context.Context, string, int64, int64, int, []model.TimeSlot) error {
	return nil
}

func (c *recordingCache) Invalidate(_ context.Context, dates ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, dates...)
	return nil
}

type fixture struct {
	svc    ReservationService
	store  *repository.Store
	clock  *clock.Fixed
	events *recordingEvents
	cache  *recordingCache
}

func testConfig() *config.Config {
	return &config.Config{
		Log:                logger.Discard(),
		StudioTimezone:     "UTC",
		ConfirmationPrefix: "PSB",
		ConfirmationWidth:  4,
		AdmissionLockTTL:   10 * time.Second,
		PhoneRegions:       []string{"US"},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testConfig()
	f := &fixture{
		store:  repository.NewMemoryStore(),
		clock:  clock.NewFixed(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)),
		events: &recordingEvents{},
		cache:  &recordingCache{},
	}
	f.svc = NewReservationService(f.store, validator.NewReservationValidator(cfg.Log), f.events, f.cache, f.clock, cfg)
	return f
}

func request(start, end string) *model.ReservationRequest {
	return &model.ReservationRequest{
		StartAt:     start,
		EndAt:       end,
		ClientName:  "Pod Cast",
		ClientEmail: "pod@cast.fm",
	}
}

func (f *fixture) confirmed(t *testing.T, start, end string) *model.Reservation {
	t.Helper()
	r, err := f.svc.CreateByAdmin(context.Background(), request(start, end), "admin")
	require.NoError(t, err)
	return r
}

func (f *fixture) pending(t *testing.T, start, end string) *model.Reservation {
	t.Helper()
	r, err := f.svc.Submit(context.Background(), request(start, end), "client")
	require.NoError(t, err)
	return r
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, code), "error = %v, want code %s", err, code)
}

func TestValidateWindow(t *testing.T) {
	s := NewScheduler(repository.NewMemoryStore(), testConfig())

	tests := []struct {
		name     string
		start    string
		end      string
		wantCode string
	}{
		{name: "two aligned hours", start: "2024-05-06T10:00", end: "2024-05-06T12:00"},
		{name: "rfc3339 with offset", start: "2024-05-06T12:00:00+02:00", end: "2024-05-06T13:00:00+02:00"},
		{name: "with seconds", start: "2024-05-06T10:00:00", end: "2024-05-06T11:00:00"},
		{name: "unparseable start", start: "tomorrow", end: "2024-05-06T11:00", wantCode: apperrors.CodeInvalidTimeFormat},
		{name: "unparseable end", start: "2024-05-06T10:00", end: "2024-05-06", wantCode: apperrors.CodeInvalidTimeFormat},
		{name: "start after end", start: "2024-05-06T12:00", end: "2024-05-06T10:00", wantCode: apperrors.CodeValidation},
		{name: "empty window", start: "2024-05-06T10:00", end: "2024-05-06T10:00", wantCode: apperrors.CodeValidation},
		{name: "half past start", start: "2024-05-06T10:30", end: "2024-05-06T11:30", wantCode: apperrors.CodeInvalidTimeSlot},
		{name: "ninety minutes", start: "2024-05-06T10:00", end: "2024-05-06T11:30", wantCode: apperrors.CodeInvalidDuration},
		{name: "stray seconds on start", start: "2024-05-06T10:00:30", end: "2024-05-06T11:00:00", wantCode: apperrors.CodeInvalidTimeSlot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := s.ParseWindow(tt.start, tt.end, nil)
			if err == nil {
				err = s.ValidateWindow(start, end)
			}
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			assertCode(t, err, tt.wantCode)
		})
	}
}

func TestValidateWindow_StartAtFieldDetail(t *testing.T) {
	s := NewScheduler(repository.NewMemoryStore(), testConfig())
	start := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)

	err := s.ValidateWindow(start, start.Add(-time.Hour))
	appErr := apperrors.AsAppError(err)
	fields, ok := appErr.Details["fields"].([]apperrors.FieldError)
	require.True(t, ok)
	assert.Equal(t, "start_at", fields[0].Field)
}

func TestValidateWindow_AlignedInStudioZone(t *testing.T) {
	cfg := testConfig()
	cfg.StudioTimezone = "Asia/Kolkata"
	s := NewScheduler(repository.NewMemoryStore(), cfg)

	start, end, err := s.ParseWindow("2024-05-06T10:00", "2024-05-06T11:00", nil)
	require.NoError(t, err)
	assert.NoError(t, s.ValidateWindow(start, end))
	assert.Equal(t, 30, start.Minute(), "stored as UTC")
}

func TestSubmit(t *testing.T) {
	f := newFixture(t)

	r := f.pending(t, "2024-05-06T10:00", "2024-05-06T12:00")

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, model.StatusPending, r.Status)
	assert.Equal(t, model.SourceClient, r.Source)
	assert.Equal(t, 2, r.DurationHours)
	assert.Nil(t, r.ConfirmationID)
	assert.Equal(t, "UTC", r.Timezone)
	assert.Equal(t, []events.EventType{events.ReservationCreated}, f.events.types())
	assert.Empty(t, f.cache.invalidated, "pending reservations do not change availability")

	history, err := f.svc.History(context.Background(), r.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.ReservationStatus(""), history[0].OldStatus)
	assert.Equal(t, model.StatusPending, history[0].NewStatus)
}

func TestSubmit_Rejections(t *testing.T) {
	f := newFixture(t)
	f.confirmed(t, "2024-05-06T14:00", "2024-05-06T16:00")

	tests := []struct {
		name     string
		req      *model.ReservationRequest
		wantCode string
	}{
		{name: "in the past", req: request("2024-04-30T10:00", "2024-04-30T11:00"), wantCode: apperrors.CodeValidation},
		{name: "overlaps confirmed", req: request("2024-05-06T15:00", "2024-05-06T17:00"), wantCode: apperrors.CodeSlotAlreadyBooked},
		{name: "not on the hour", req: request("2024-05-06T10:30", "2024-05-06T11:30"), wantCode: apperrors.CodeInvalidTimeSlot},
		{name: "ninety minutes", req: request("2024-05-06T10:00", "2024-05-06T11:30"), wantCode: apperrors.CodeInvalidDuration},
		{name: "missing email", req: func() *model.ReservationRequest {
			r := request("2024-05-06T10:00", "2024-05-06T11:00")
			r.ClientEmail = ""
			return r
		}(), wantCode: apperrors.CodeValidation},
		{name: "client asks for confirmed", req: func() *model.ReservationRequest {
			r := request("2024-05-06T10:00", "2024-05-06T11:00")
			r.Status = model.StatusConfirmed
			return r
		}(), wantCode: apperrors.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Submit(context.Background(), tt.req, "client")
			assertCode(t, err, tt.wantCode)
		})
	}
}

func TestSubmit_PendingNeverBlocks(t *testing.T) {
	f := newFixture(t)

	f.pending(t, "2024-05-06T10:00", "2024-05-06T12:00")
	f.pending(t, "2024-05-06T10:00", "2024-05-06T12:00")
	f.confirmed(t, "2024-05-06T10:00", "2024-05-06T12:00")
}

func TestSubmit_SanitizesContact(t *testing.T) {
	f := newFixture(t)
	req := request("2024-05-06T10:00", "2024-05-06T11:00")
	req.ClientEmail = " Pod@Cast.FM "
	req.ClientPhone = "(650) 253-0000"

	r, err := f.svc.Submit(context.Background(), req, "client")
	require.NoError(t, err)
	assert.Equal(t, "pod@cast.fm", r.ClientEmail)
	assert.Equal(t, "+16502530000", r.ClientPhone)
}

func TestCreateByAdmin_AssignsSequentialCodes(t *testing.T) {
	f := newFixture(t)

	first := f.confirmed(t, "2024-05-06T10:00", "2024-05-06T11:00")
	second := f.confirmed(t, "2024-05-06T11:00", "2024-05-06T12:00")

	require.NotNil(t, first.ConfirmationID)
	require.NotNil(t, second.ConfirmationID)
	assert.Equal(t, "PSB-2024-0001", *first.ConfirmationID)
	assert.Equal(t, "PSB-2024-0002", *second.ConfirmationID)
	assert.Equal(t, model.SourceAdmin, first.Source)
	require.NotNil(t, first.ConfirmedAt)
	assert.Equal(t, f.clock.Now(), *first.ConfirmedAt)
	assert.Contains(t, f.cache.invalidated, "2024-05-06")
}

func TestCreateByAdmin_TerminalStatusSkipsOverlap(t *testing.T) {
	f := newFixture(t)
	f.confirmed(t, "2024-05-06T10:00", "2024-05-06T12:00")

	req := request("2024-05-06T10:00", "2024-05-06T12:00")
	req.Status = model.StatusCancelled
	r, err := f.svc.CreateByAdmin(context.Background(), req, "admin")

	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, r.Status)
	assert.Nil(t, r.ConfirmationID)
}

func TestCreateByAdmin_Overlap(t *testing.T) {
	f := newFixture(t)
	f.confirmed(t, "2024-05-06T14:00", "2024-05-06T16:00")

	_, err := f.svc.CreateByAdmin(context.Background(), request("2024-05-06T13:00", "2024-05-06T15:00"), "admin")
	assertCode(t, err, apperrors.CodeSlotAlreadyBooked)

	details := apperrors.AsAppError(err).Details
	assert.Equal(t, "2024-05-06T14:00:00Z", details["conflict_start"])
}

func TestConfirmation_FloorsOnExistingSequence(t *testing.T) {
	f := newFixture(t)
	code := "PSB-2024-0041"
	legacy := &model.Reservation{
		Status:           model.StatusCancelled,
		StartAt:          time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC),
		EndAt:            time.Date(2024, 1, 2, 11, 0, 0, 0, time.UTC),
		ConfirmationID:   &code,
		ConfirmationYear: 2024,
		ConfirmationSeq:  41,
	}
	require.NoError(t, f.store.Reservations.Insert(context.Background(), legacy))

	r := f.confirmed(t, "2024-05-06T10:00", "2024-05-06T11:00")
	assert.Equal(t, "PSB-2024-0042", *r.ConfirmationID)
}

func TestFormatConfirmation(t *testing.T) {
	assert.Equal(t, "PSB-2024-0007", FormatConfirmation("PSB", 2024, 7, 4))
	assert.Equal(t, "PSB-2024-12345", FormatConfirmation("PSB", 2024, 12345, 4))
}

func TestTransition_ConfirmPending(t *testing.T) {
	f := newFixture(t)
	r := f.pending(t, "2024-05-06T10:00", "2024-05-06T12:00")

	confirmed, err := f.svc.TransitionReservation(context.Background(), r.ID,
		&model.TransitionRequest{Status: model.StatusConfirmed, Notes: "deposit received"}, "admin")

	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.ConfirmationID)
	assert.Equal(t, "PSB-2024-0001", *confirmed.ConfirmationID)
	require.NotNil(t, confirmed.ConfirmedAt)

	history, err := f.svc.History(context.Background(), r.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.StatusPending, history[1].OldStatus)
	assert.Equal(t, model.StatusConfirmed, history[1].NewStatus)
	assert.Equal(t, "admin", history[1].ChangedBy)
	assert.Equal(t, "deposit received", history[1].Notes)

	assert.Equal(t, []events.EventType{events.ReservationCreated, events.ReservationConfirmed}, f.events.types())
	assert.Contains(t, f.cache.invalidated, "2024-05-06")
}

func TestTransition_ConfirmConflictRollsBack(t *testing.T) {
	f := newFixture(t)
	r := f.pending(t, "2024-05-06T10:00", "2024-05-06T12:00")
	f.confirmed(t, "2024-05-06T11:00", "2024-05-06T13:00")

	_, err := f.svc.TransitionReservation(context.Background(), r.ID,
		&model.TransitionRequest{Status: model.StatusConfirmed}, "admin")
	assertCode(t, err, apperrors.CodeSlotAlreadyBooked)

	stored, err := f.svc.GetByID(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, stored.Status)
	assert.Nil(t, stored.ConfirmationID)

	history, err := f.svc.History(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	next := f.confirmed(t, "2024-05-07T10:00", "2024-05-07T11:00")
	assert.Equal(t, "PSB-2024-0002", *next.ConfirmationID, "rolled back confirmation does not consume a sequence")
}

func TestTransition_Table(t *testing.T) {
	tests := []struct {
		name     string
		from     model.ReservationStatus
		to       model.ReservationStatus
		wantCode string
	}{
		{name: "pending to cancelled", from: model.StatusPending, to: model.StatusCancelled},
		{name: "pending to completed", from: model.StatusPending, to: model.StatusCompleted},
		{name: "confirmed to completed", from: model.StatusConfirmed, to: model.StatusCompleted},
		{name: "confirmed to cancelled", from: model.StatusConfirmed, to: model.StatusCancelled},
		{name: "confirmed to pending", from: model.StatusConfirmed, to: model.StatusPending, wantCode: apperrors.CodeValidation},
		{name: "pending to pending", from: model.StatusPending, to: model.StatusPending, wantCode: apperrors.CodeValidation},
		{name: "confirmed to confirmed", from: model.StatusConfirmed, to: model.StatusConfirmed, wantCode: apperrors.CodeValidation},
		{name: "cancelled to confirmed", from: model.StatusCancelled, to: model.StatusConfirmed, wantCode: apperrors.CodeNotEditable},
		{name: "completed to cancelled", from: model.StatusCompleted, to: model.StatusCancelled, wantCode: apperrors.CodeNotEditable},
		{name: "cancelled to cancelled", from: model.StatusCancelled, to: model.StatusCancelled, wantCode: apperrors.CodeNotEditable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckTransition(&model.Reservation{ID: "r1", Status: tt.from}, tt.to)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			assertCode(t, err, tt.wantCode)
		})
	}
}

func TestTerminalImmutability(t *testing.T) {
	for _, terminal := range []model.ReservationStatus{model.StatusCancelled, model.StatusCompleted} {
		t.Run(string(terminal), func(t *testing.T) {
			f := newFixture(t)
			r := f.confirmed(t, "2024-05-06T10:00", "2024-05-06T12:00")

			_, err := f.svc.TransitionReservation(context.Background(), r.ID, &model.TransitionRequest{Status: terminal}, "admin")
			require.NoError(t, err)

			for _, target := range []model.ReservationStatus{model.StatusPending, model.StatusConfirmed, model.StatusCancelled, model.StatusCompleted} {
				_, err := f.svc.TransitionReservation(context.Background(), r.ID, &model.TransitionRequest{Status: target}, "admin")
				assertCode(t, err, apperrors.CodeNotEditable)
			}

			_, err = f.svc.RescheduleReservation(context.Background(), r.ID,
				&model.ScheduleRequest{StartAt: "2024-05-07T10:00", EndAt: "2024-05-07T11:00"}, "admin")
			assertCode(t, err, apperrors.CodeNotEditable)
		})
	}
}

func TestReschedule_TerminalRejectsAnyPayload(t *testing.T) {
	tests := []struct {
		name string
		req  *model.ScheduleRequest
	}{
		{name: "empty request", req: &model.ScheduleRequest{}},
		{name: "malformed times", req: &model.ScheduleRequest{StartAt: "tomorrow", EndAt: "later"}},
		{name: "partial hour", req: &model.ScheduleRequest{StartAt: "2024-05-07T10:00", EndAt: "2024-05-07T10:30"}},
	}

	for _, terminal := range []model.ReservationStatus{model.StatusCancelled, model.StatusCompleted} {
		f := newFixture(t)
		r := f.confirmed(t, "2024-05-06T10:00", "2024-05-06T12:00")
		_, err := f.svc.TransitionReservation(context.Background(), r.ID, &model.TransitionRequest{Status: terminal}, "admin")
		require.NoError(t, err)

		for _, tt := range tests {
			t.Run(string(terminal)+"/"+tt.name, func(t *testing.T) {
				_, err := f.svc.RescheduleReservation(context.Background(), r.ID, tt.req, "admin")
				assertCode(t, err, apperrors.CodeNotEditable)
			})
		}
	}
}

func TestCancelFreesSlot(t *testing.T) {
	f := newFixture(t)
	r := f.confirmed(t, "2024-05-06T10:00", "2024-05-06T12:00")

	_, err := f.svc.TransitionReservation(context.Background(), r.ID, &model.TransitionRequest{Status: model.StatusCancelled}, "admin")
	require.NoError(t, err)

	f.confirmed(t, "2024-05-06T10:00", "2024-05-06T12:00")
}

func TestReschedule(t *testing.T) {
	f := newFixture(t)
	r := f.confirmed(t, "2024-05-06T10:00", "2024-05-06T12:00")
	f.confirmed(t, "2024-05-06T14:00", "2024-05-06T15:00")

	moved, err := f.svc.RescheduleReservation(context.Background(), r.ID,
		&model.ScheduleRequest{StartAt: "2024-05-06T11:00", EndAt: "2024-05-06T14:00"}, "admin")
	require.NoError(t, err, "overlapping its own old window is allowed")
	assert.Equal(t, 3, moved.DurationHours)
	assert.Equal(t, model.StatusConfirmed, moved.Status)
	assert.Equal(t, *r.ConfirmationID, *moved.ConfirmationID)

	_, err = f.svc.RescheduleReservation(context.Background(), r.ID,
		&model.ScheduleRequest{StartAt: "2024-05-06T13:00", EndAt: "2024-05-06T15:00"}, "admin")
	assertCode(t, err, apperrors.CodeSlotAlreadyBooked)

	history, err := f.svc.History(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1, "rescheduling is not a status change")
	assert.Contains(t, f.events.types(), events.ReservationRescheduled)
}

func TestReschedule_InvalidWindow(t *testing.T) {
	f := newFixture(t)
	r := f.pending(t, "2024-05-06T10:00", "2024-05-06T12:00")

	_, err := f.svc.RescheduleReservation(context.Background(), r.ID,
		&model.ScheduleRequest{StartAt: "2024-05-06T10:00", EndAt: "2024-05-06T11:30"}, "admin")
	assertCode(t, err, apperrors.CodeInvalidDuration)
}

func TestLookups(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetByID(context.Background(), "65a000000000000000000099")
	assertCode(t, err, apperrors.CodeNotFound)

	_, err = f.svc.History(context.Background(), "65a000000000000000000099")
	assertCode(t, err, apperrors.CodeNotFound)

	_, err = f.svc.GetByID(context.Background(), "not-an-id")
	assertCode(t, err, apperrors.CodeInvalidInput)

	_, err = f.svc.TransitionReservation(context.Background(), "65a000000000000000000099",
		&model.TransitionRequest{Status: model.StatusCancelled}, "admin")
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestValidateAndCheckSlot(t *testing.T) {
	f := newFixture(t)
	r := f.confirmed(t, "2024-05-06T14:00", "2024-05-06T16:00")

	ctx := context.Background()
	assert.NoError(t, f.svc.ValidateAndCheckSlot(ctx, &model.SlotCheckRequest{StartAt: "2024-05-06T16:00", EndAt: "2024-05-06T17:00"}))
	assertCode(t, f.svc.ValidateAndCheckSlot(ctx, &model.SlotCheckRequest{StartAt: "2024-05-06T15:00", EndAt: "2024-05-06T17:00"}), apperrors.CodeSlotAlreadyBooked)
	assert.NoError(t, f.svc.ValidateAndCheckSlot(ctx, &model.SlotCheckRequest{StartAt: "2024-05-06T15:00", EndAt: "2024-05-06T17:00", ExcludeID: r.ID}))
	assertCode(t, f.svc.ValidateAndCheckSlot(ctx, &model.SlotCheckRequest{StartAt: "2024-05-06T15:00", EndAt: "2024-05-06T17:00", ExcludeID: "bogus"}), apperrors.CodeValidation)
}

func TestConcurrentAdmissions_AtMostOneConfirmed(t *testing.T) {
	f := newFixture(t)
	const attempts = 20

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Alternate identical and partially overlapping windows.
			start, end := "2024-05-06T10:00", "2024-05-06T12:00"
			if i%2 == 1 {
				start, end = "2024-05-06T11:00", "2024-05-06T13:00"
			}
			_, err := f.svc.CreateByAdmin(context.Background(), request(start, end), "admin")
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			appErr := apperrors.AsAppError(err)
			assert.Contains(t, []string{apperrors.CodeSlotAlreadyBooked, apperrors.CodeConcurrencyConflict}, appErr.Code)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	blocked, err := f.store.Reservations.FindConfirmedOverlapping(context.Background(),
		time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC), "")
	require.NoError(t, err)
	assert.Len(t, blocked, 1)
}

func TestConcurrentConfirmations_UniqueCodes(t *testing.T) {
	f := newFixture(t)
	const n = 24

	pending := make([]*model.Reservation, n)
	for i := range pending {
		day := 6 + i/8
		hour := 9 + i%8
		start := time.Date(2024, 5, day, hour, 0, 0, 0, time.UTC)
		pending[i] = f.pending(t, start.Format(time.RFC3339), start.Add(time.Hour).Format(time.RFC3339))
	}

	codes := make(chan string, n)
	var wg sync.WaitGroup
	for _, r := range pending {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for {
				confirmed, err := f.svc.TransitionReservation(context.Background(), id,
					&model.TransitionRequest{Status: model.StatusConfirmed}, "admin")
				if apperrors.HasCode(err, apperrors.CodeConcurrencyConflict) {
					continue
				}
				if assert.NoError(t, err) {
					codes <- *confirmed.ConfirmationID
				}
				return
			}
		}(r.ID)
	}
	wg.Wait()
	close(codes)

	seen := make(map[string]bool)
	for code := range codes {
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
	assert.Len(t, seen, n)
	assert.True(t, seen["PSB-2024-0001"])
	assert.True(t, seen["PSB-2024-0024"])
}

func TestDatesOf(t *testing.T) {
	loc := time.UTC
	assert.Equal(t, []string{"2024-05-06"},
		datesOf(time.Date(2024, 5, 6, 22, 0, 0, 0, loc), time.Date(2024, 5, 7, 0, 0, 0, 0, loc), loc))
	assert.Equal(t, []string{"2024-05-06", "2024-05-07"},
		datesOf(time.Date(2024, 5, 6, 23, 0, 0, 0, loc), time.Date(2024, 5, 7, 1, 0, 0, 0, loc), loc))
}
