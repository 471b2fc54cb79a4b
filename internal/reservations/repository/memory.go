package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	reservationserrors "studiobook/internal/reservations/errors"
	mongotx "studiobook/pkg/db/mongo"
	"studiobook/pkg/interval"
	"studiobook/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memoryDB backs every in-memory repository. Transactions are serialised on
// txMu and roll back to a snapshot on error. Reads outside a transaction may
// observe writes of a transaction that later rolls back.
type memoryDB struct {
	txMu sync.Mutex

	mu           sync.RWMutex
	reservations map[string]*model.Reservation
	history      []*model.StatusHistoryEntry
	counters     map[string]int
	guards       map[string]int
	locks        map[string]model.ReservationLock
}

type memorySnapshot struct {
	reservations map[string]*model.Reservation
	history      []*model.StatusHistoryEntry
	counters     map[string]int
	guards       map[string]int
}

// NewMemoryStore returns a Store kept entirely in process memory.
func NewMemoryStore() *Store {
	db := &memoryDB{
		reservations: make(map[string]*model.Reservation),
		counters:     make(map[string]int),
		guards:       make(map[string]int),
		locks:        make(map[string]model.ReservationLock),
	}
	return &Store{
		Reservations: &memoryReservationRepository{db: db},
		History:      &memoryHistoryRepository{db: db},
		Locks:        &memoryLockRepository{db: db},
		Guard:        &memoryAdmissionGuard{db: db},
		Counters:     &memoryCounterRepository{db: db},
		Tx:           &memoryTransactionManager{db: db},
	}
}

func (db *memoryDB) snapshot() memorySnapshot {
	db.mu.RLock()
	defer db.mu.RUnlock()

	s := memorySnapshot{
		reservations: make(map[string]*model.Reservation, len(db.reservations)),
		history:      slices.Clone(db.history),
		counters:     make(map[string]int, len(db.counters)),
		guards:       make(map[string]int, len(db.guards)),
	}
	for id, r := range db.reservations {
		s.reservations[id] = r.Clone()
	}
	for k, v := range db.counters {
		s.counters[k] = v
	}
	for k, v := range db.guards {
		s.guards[k] = v
	}
	return s
}

func (db *memoryDB) restore(s memorySnapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.reservations = s.reservations
	db.history = s.history
	db.counters = s.counters
	db.guards = s.guards
}

type memoryTransactionManager struct {
	db *memoryDB
}

func (m *memoryTransactionManager) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	m.db.txMu.Lock()
	defer m.db.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snap := m.db.snapshot()
	if err := fn(ctx); err != nil {
		m.db.restore(snap)
		return err
	}
	return nil
}

func parseID(id string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return fmt.Errorf("%w: %s", reservationserrors.ErrInvalidID, id)
	}
	return nil
}

type memoryReservationRepository struct {
	db *memoryDB
}

func (r *memoryReservationRepository) Insert(_ context.Context, reservation *model.Reservation) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if reservation.ConfirmationID != nil {
		for _, existing := range r.db.reservations {
			if existing.ConfirmationID != nil && *existing.ConfirmationID == *reservation.ConfirmationID {
				return fmt.Errorf("%w: %s", reservationserrors.ErrDuplicateConfirmation, *reservation.ConfirmationID)
			}
		}
	}

	reservation.ID = primitive.NewObjectID().Hex()
	r.db.reservations[reservation.ID] = reservation.Clone()
	return nil
}

func (r *memoryReservationRepository) FindByID(_ context.Context, id string) (*model.Reservation, error) {
	if err := parseID(id); err != nil {
		return nil, err
	}

	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	reservation, ok := r.db.reservations[id]
	if !ok {
		return nil, reservationserrors.ErrNotFound
	}
	return reservation.Clone(), nil
}

func (r *memoryReservationRepository) confirmedOverlapping(start, end time.Time, excludeID string) []*model.Reservation {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	window := interval.New(start, end)
	var found []*model.Reservation
	for id, reservation := range r.db.reservations {
		if id == excludeID || !reservation.Status.BlocksTime() {
			continue
		}
		if interval.Overlaps(window, reservation.Interval()) {
			found = append(found, reservation.Clone())
		}
	}
	slices.SortFunc(found, func(a, b *model.Reservation) int {
		return a.StartAt.Compare(b.StartAt)
	})
	return found
}

func (r *memoryReservationRepository) FindConfirmedOverlapping(_ context.Context, start, end time.Time, excludeID string) ([]*model.Reservation, error) {
	if excludeID != "" {
		if err := parseID(excludeID); err != nil {
			return nil, err
		}
	}
	return r.confirmedOverlapping(start, end, excludeID), nil
}

func (r *memoryReservationRepository) FindConfirmedReservationsForDate(_ context.Context, from, to time.Time) ([]model.BlockedInterval, error) {
	found := r.confirmedOverlapping(from, to, "")
	blocked := make([]model.BlockedInterval, 0, len(found))
	for _, reservation := range found {
		blocked = append(blocked, model.BlockedInterval{
			ReservationID: reservation.ID,
			Start:         reservation.StartAt,
			End:           reservation.EndAt,
		})
	}
	return blocked, nil
}

func (r *memoryReservationRepository) update(id string, expected model.ReservationStatus, apply func(*model.Reservation)) (*model.Reservation, error) {
	if err := parseID(id); err != nil {
		return nil, err
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	reservation, ok := r.db.reservations[id]
	if !ok {
		return nil, reservationserrors.ErrNotFound
	}
	if reservation.Status != expected {
		return nil, reservationserrors.ErrStaleStatus
	}
	apply(reservation)
	return reservation.Clone(), nil
}

func (r *memoryReservationRepository) UpdateSchedule(_ context.Context, id string, expected model.ReservationStatus, change model.ScheduleChange) (*model.Reservation, error) {
	return r.update(id, expected, func(res *model.Reservation) {
		res.StartAt = change.StartAt
		res.EndAt = change.EndAt
		res.DurationHours = change.DurationHours
		res.UpdatedAt = change.UpdatedAt
	})
}

func (r *memoryReservationRepository) UpdateStatus(_ context.Context, id string, expected model.ReservationStatus, change model.StatusChange) (*model.Reservation, error) {
	return r.update(id, expected, func(res *model.Reservation) {
		res.Status = change.Status
		res.UpdatedAt = change.UpdatedAt
		if change.ConfirmationID != nil {
			code := *change.ConfirmationID
			res.ConfirmationID = &code
			res.ConfirmationYear = change.ConfirmationYear
			res.ConfirmationSeq = change.ConfirmationSeq
		}
		if change.ConfirmedAt != nil {
			at := *change.ConfirmedAt
			res.ConfirmedAt = &at
		}
	})
}

func (r *memoryReservationRepository) MaxConfirmationSequenceForYear(_ context.Context, year int, prefix string) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	maxSeq := 0
	for _, reservation := range r.db.reservations {
		if reservation.ConfirmationID == nil || reservation.ConfirmationYear != year {
			continue
		}
		if !strings.HasPrefix(*reservation.ConfirmationID, prefix+"-") {
			continue
		}
		maxSeq = max(maxSeq, reservation.ConfirmationSeq)
	}
	return maxSeq, nil
}

type memoryHistoryRepository struct {
	db *memoryDB
}

func (r *memoryHistoryRepository) Append(_ context.Context, entry *model.StatusHistoryEntry) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	entry.ID = primitive.NewObjectID().Hex()
	stored := *entry
	r.db.history = append(r.db.history, &stored)
	return nil
}

func (r *memoryHistoryRepository) FindByReservation(_ context.Context, reservationID string) ([]*model.StatusHistoryEntry, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var entries []*model.StatusHistoryEntry
	for _, e := range r.db.history {
		if e.ReservationID == reservationID {
			c := *e
			entries = append(entries, &c)
		}
	}
	slices.SortStableFunc(entries, func(a, b *model.StatusHistoryEntry) int {
		return a.ChangedAt.Compare(b.ChangedAt)
	})
	return entries, nil
}

type memoryLockRepository struct {
	db *memoryDB
}

func (r *memoryLockRepository) Acquire(_ context.Context, lockID, owner string, ttl time.Duration) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := time.Now().UTC()
	if held, ok := r.db.locks[lockID]; ok && held.ExpiresAt.After(now) {
		return reservationserrors.ErrLockHeld
	}
	r.db.locks[lockID] = model.ReservationLock{
		ID:        lockID,
		Owner:     owner,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	return nil
}

func (r *memoryLockRepository) Release(_ context.Context, lockID, owner string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if held, ok := r.db.locks[lockID]; ok && held.Owner == owner {
		delete(r.db.locks, lockID)
	}
	return nil
}

type memoryAdmissionGuard struct {
	db *memoryDB
}

func (g *memoryAdmissionGuard) Touch(_ context.Context, studioID string) error {
	g.db.mu.Lock()
	defer g.db.mu.Unlock()

	g.db.guards[studioID]++
	return nil
}

type memoryCounterRepository struct {
	db *memoryDB
}

func (r *memoryCounterRepository) Next(_ context.Context, prefix string, year int, floor int) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	key := CounterID(prefix, year)
	next := max(r.db.counters[key], floor) + 1
	r.db.counters[key] = next
	return next, nil
}
