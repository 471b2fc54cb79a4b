package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"studiobook/pkg/model"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix        = "availability:"
	generationPrefix = "availability:gen:"

	// Generations outlive entries by far so a reset counter cannot match a
	// generation read by a request still in flight.
	generationTTL = 7 * 24 * time.Hour
)

var errGenerationChanged = errors.New("availability generation changed")

// AvailabilityCache stores computed slot lists per studio-local date. Entries
// are scoped by configuration version so a config update never serves stale
// slot shapes.
//
// Every date carries a generation that Invalidate bumps. Get reports the
// generation it observed and Set only writes when the date still has it, so a
// list computed before a booking committed is never stored after that
// booking's invalidation.
type AvailabilityCache interface {
	Get(ctx context.Context, date string, version int64, durationMinutes int) (slots []model.TimeSlot, generation int64, hit bool, err error)
	Set(ctx context.Context, date string, generation, version int64, durationMinutes int, slots []model.TimeSlot) error
	Invalidate(ctx context.Context, dates ...string) error
}

type redisAvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAvailabilityCache returns a Redis-backed cache, or a no-op cache when client is nil.
func NewAvailabilityCache(client *redis.Client, ttl time.Duration) AvailabilityCache {
	if client == nil {
		return Noop{}
	}
	return &redisAvailabilityCache{client: client, ttl: ttl}
}

func Key(date string) string {
	return keyPrefix + date
}

func GenerationKey(date string) string {
	return generationPrefix + date
}

func Field(version int64, durationMinutes int) string {
	return fmt.Sprintf("%d:%d", version, durationMinutes)
}

func (c *redisAvailabilityCache) Get(ctx context.Context, date string, version int64, durationMinutes int) ([]model.TimeSlot, int64, bool, error) {
	pipe := c.client.TxPipeline()
	genCmd := pipe.Get(ctx, GenerationKey(date))
	slotsCmd := pipe.HGet(ctx, Key(date), Field(version, durationMinutes))
	_, _ = pipe.Exec(ctx)

	generation, err := generationOf(genCmd)
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to read availability generation: %w", err)
	}

	raw, err := slotsCmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, generation, false, nil
	}
	if err != nil {
		return nil, generation, false, fmt.Errorf("failed to read availability cache: %w", err)
	}

	var slots []model.TimeSlot
	if err := json.Unmarshal(raw, &slots); err != nil {
		return nil, generation, false, fmt.Errorf("failed to decode cached availability: %w", err)
	}
	return slots, generation, true, nil
}

// Set stores slots unless date was invalidated since generation was read. A
// skipped write is not an error.
func (c *redisAvailabilityCache) Set(ctx context.Context, date string, generation, version int64, durationMinutes int, slots []model.TimeSlot) error {
	raw, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("failed to encode availability: %w", err)
	}

	key, genKey := Key(date), GenerationKey(date)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := generationOf(tx.Get(ctx, genKey))
		if err != nil {
			return err
		}
		if current != generation {
			return errGenerationChanged
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, Field(version, durationMinutes), raw)
			pipe.Expire(ctx, key, c.ttl)
			return nil
		})
		return err
	}, genKey)

	if errors.Is(err, errGenerationChanged) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to write availability cache: %w", err)
	}
	return nil
}

func (c *redisAvailabilityCache) Invalidate(ctx context.Context, dates ...string) error {
	if len(dates) == 0 {
		return nil
	}
	pipe := c.client.TxPipeline()
	for _, d := range dates {
		pipe.Incr(ctx, GenerationKey(d))
		pipe.Expire(ctx, GenerationKey(d), generationTTL)
		pipe.Del(ctx, Key(d))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to invalidate availability cache: %w", err)
	}
	return nil
}

func generationOf(cmd *redis.StringCmd) (int64, error) {
	generation, err := cmd.Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return generation, err
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string, int64, int) ([]model.TimeSlot, int64, bool, error) {
	return nil, 0, false, nil
}

func (Noop) Set(context.Context, string, int64, int64, int, []model.TimeSlot) error { return nil }

func (Noop) Invalidate(context.Context, ...string) error { return nil }
