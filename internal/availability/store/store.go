package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	availabilityerrors "studiobook/internal/availability/errors"
	"studiobook/internal/availability/repository"
	"studiobook/pkg/logger"
	"studiobook/pkg/model"
)

// Store holds the live availability configuration. Readers get an immutable
// snapshot without locking; Update is single-writer and swaps the snapshot
// only after the new version is persisted. Run keeps the snapshot in step with
// updates made by other replicas.
type Store struct {
	current atomic.Pointer[model.AvailabilityConfig]
	mu      sync.Mutex
	repo    repository.ConfigRepository
	log     *logger.Logger
}

// New seeds the store from the persisted configuration, falling back to defaults.
func New(ctx context.Context, repo repository.ConfigRepository, defaults *model.AvailabilityConfig, log *logger.Logger) (*Store, error) {
	s := &Store{repo: repo, log: log}

	persisted, err := repo.Get(ctx)
	switch {
	case err == nil:
		s.current.Store(persisted)
		log.Info("Availability config loaded", "version", persisted.Version)
	case errors.Is(err, availabilityerrors.ErrConfigNotFound):
		seed := defaults.Clone()
		if seed.Version == 0 {
			seed.Version = 1
		}
		s.current.Store(seed)
		log.Info("Availability config not persisted, using defaults", "version", seed.Version)
	default:
		return nil, fmt.Errorf("failed to seed availability config: %w", err)
	}

	return s, nil
}

// Load returns the current snapshot. Callers must not mutate it.
func (s *Store) Load() *model.AvailabilityConfig {
	return s.current.Load()
}

// Update installs next as version expectedVersion+1. next must already be validated.
func (s *Store) Update(ctx context.Context, next *model.AvailabilityConfig, expectedVersion int64) (*model.AvailabilityConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current.Load()
	if cur.Version != expectedVersion {
		return nil, availabilityerrors.ErrVersionMismatch
	}

	candidate := next.Clone()
	candidate.Version = cur.Version + 1

	if err := s.repo.Save(ctx, candidate, cur.Version); err != nil {
		if errors.Is(err, availabilityerrors.ErrVersionMismatch) {
			if _, syncErr := s.syncLocked(ctx); syncErr != nil {
				s.log.Warn("Failed to refresh availability config", "error", syncErr)
			}
		}
		return nil, err
	}

	s.current.Store(candidate)
	return candidate, nil
}

// Sync adopts the persisted configuration when it is newer than the snapshot
// and reports whether the snapshot changed. A missing document keeps the
// seeded defaults.
func (s *Store) Sync(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncLocked(ctx)
}

func (s *Store) syncLocked(ctx context.Context) (bool, error) {
	persisted, err := s.repo.Get(ctx)
	if errors.Is(err, availabilityerrors.ErrConfigNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if persisted.Version <= s.current.Load().Version {
		return false, nil
	}
	s.current.Store(persisted)
	return true, nil
}

// Run syncs every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			changed, err := s.Sync(ctx)
			if err != nil {
				if ctx.Err() == nil {
					s.log.Warn("Failed to refresh availability config", "error", err)
				}
				continue
			}
			if changed {
				s.log.Info("Availability config refreshed", "version", s.Load().Version)
			}
		case <-ctx.Done():
			return
		}
	}
}
