package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	reservationserrors "studiobook/internal/reservations/errors"
	"studiobook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour int) time.Time {
	return time.Date(2024, 5, 6, hour, 0, 0, 0, time.UTC)
}

func newReservation(status model.ReservationStatus, from, to int) *model.Reservation {
	return &model.Reservation{Status: status, StartAt: at(from), EndAt: at(to)}
}

func TestMemoryTransaction_RollsBackOnError(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	kept := newReservation(model.StatusConfirmed, 9, 10)
	require.NoError(t, store.Reservations.Insert(ctx, kept))

	var inserted *model.Reservation
	boom := errors.New("boom")
	err := store.Tx.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		inserted = newReservation(model.StatusConfirmed, 10, 11)
		if err := store.Reservations.Insert(txCtx, inserted); err != nil {
			return err
		}
		if _, err := store.Reservations.UpdateStatus(txCtx, kept.ID, model.StatusConfirmed, model.StatusChange{Status: model.StatusCancelled}); err != nil {
			return err
		}
		if _, err := store.Counters.Next(txCtx, "PSB", 2024, 0); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = store.Reservations.FindByID(ctx, inserted.ID)
	assert.ErrorIs(t, err, reservationserrors.ErrNotFound)

	got, err := store.Reservations.FindByID(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, got.Status)

	seq, err := store.Counters.Next(ctx, "PSB", 2024, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, seq)
}

func TestMemoryReservations_ConfirmedOverlap(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	confirmed := newReservation(model.StatusConfirmed, 14, 16)
	require.NoError(t, store.Reservations.Insert(ctx, confirmed))
	require.NoError(t, store.Reservations.Insert(ctx, newReservation(model.StatusPending, 10, 12)))
	require.NoError(t, store.Reservations.Insert(ctx, newReservation(model.StatusCancelled, 10, 12)))

	tests := []struct {
		name    string
		from    int
		to      int
		exclude string
		want    int
	}{
		{name: "inside", from: 14, to: 15, want: 1},
		{name: "straddles start", from: 13, to: 15, want: 1},
		{name: "abuts end", from: 16, to: 17, want: 0},
		{name: "abuts start", from: 12, to: 14, want: 0},
		{name: "pending and cancelled ignored", from: 10, to: 12, want: 0},
		{name: "excluded", from: 14, to: 16, exclude: confirmed.ID, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Reservations.FindConfirmedOverlapping(ctx, at(tt.from), at(tt.to), tt.exclude)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}

	blocked, err := store.Reservations.FindConfirmedReservationsForDate(ctx, at(0), at(24))
	require.NoError(t, err)
	require.Len(t, blocked, 1)
	assert.Equal(t, confirmed.ID, blocked[0].ReservationID)
}

func TestMemoryReservations_GuardedUpdates(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	r := newReservation(model.StatusPending, 10, 12)
	require.NoError(t, store.Reservations.Insert(ctx, r))

	_, err := store.Reservations.UpdateSchedule(ctx, r.ID, model.StatusConfirmed, model.ScheduleChange{StartAt: at(11), EndAt: at(12)})
	assert.ErrorIs(t, err, reservationserrors.ErrStaleStatus)

	updated, err := store.Reservations.UpdateSchedule(ctx, r.ID, model.StatusPending, model.ScheduleChange{StartAt: at(11), EndAt: at(13), DurationHours: 2})
	require.NoError(t, err)
	assert.Equal(t, at(11), updated.StartAt)

	_, err = store.Reservations.UpdateStatus(ctx, "65a000000000000000000099", model.StatusPending, model.StatusChange{Status: model.StatusCancelled})
	assert.ErrorIs(t, err, reservationserrors.ErrNotFound)

	_, err = store.Reservations.FindByID(ctx, "nope")
	assert.ErrorIs(t, err, reservationserrors.ErrInvalidID)
}

func TestMemoryReservations_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	r := newReservation(model.StatusPending, 10, 12)
	require.NoError(t, store.Reservations.Insert(ctx, r))
	r.Status = model.StatusConfirmed

	got, err := store.Reservations.FindByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
}

func TestMemoryLocks(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Locks.Acquire(ctx, "studio", "a", time.Minute))
	assert.ErrorIs(t, store.Locks.Acquire(ctx, "studio", "b", time.Minute), reservationserrors.ErrLockHeld)

	require.NoError(t, store.Locks.Release(ctx, "studio", "b"), "releasing someone else's lock is a no-op")
	assert.ErrorIs(t, store.Locks.Acquire(ctx, "studio", "b", time.Minute), reservationserrors.ErrLockHeld)

	require.NoError(t, store.Locks.Release(ctx, "studio", "a"))
	assert.NoError(t, store.Locks.Acquire(ctx, "studio", "b", time.Minute))
}

func TestMemoryLocks_ExpiredLockIsReplaced(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Locks.Acquire(ctx, "studio", "a", time.Nanosecond))
	time.Sleep(time.Millisecond)
	assert.NoError(t, store.Locks.Acquire(ctx, "studio", "b", time.Minute))
}

func TestMemoryCounters(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	seq, err := store.Counters.Next(ctx, "PSB", 2024, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, seq)

	seq, err = store.Counters.Next(ctx, "PSB", 2024, 10)
	require.NoError(t, err)
	assert.Equal(t, 11, seq)

	seq, err = store.Counters.Next(ctx, "PSB", 2024, 3)
	require.NoError(t, err)
	assert.Equal(t, 12, seq)

	seq, err = store.Counters.Next(ctx, "PSB", 2025, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, seq, "counters are per year")
}

func TestMemoryHistory_OrderedByTime(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.History.Append(ctx, &model.StatusHistoryEntry{ReservationID: "r1", NewStatus: model.StatusConfirmed, ChangedAt: at(11)}))
	require.NoError(t, store.History.Append(ctx, &model.StatusHistoryEntry{ReservationID: "r1", NewStatus: model.StatusPending, ChangedAt: at(10)}))
	require.NoError(t, store.History.Append(ctx, &model.StatusHistoryEntry{ReservationID: "r2", NewStatus: model.StatusPending, ChangedAt: at(9)}))

	entries, err := store.History.FindByReservation(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.StatusPending, entries[0].NewStatus)
	assert.Equal(t, model.StatusConfirmed, entries[1].NewStatus)
}
