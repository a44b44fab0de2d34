package duplicate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"form-shield/internal/submission"
	"form-shield/pkg/utils"
)

// SimilarCounter is satisfied by submission.Service.
type SimilarCounter interface {
	CountSimilarSince(ctx context.Context, sub submission.Submission, since time.Time) (int, error)
}

// StoreCounter counts persisted records with the same normalized content.
// The submission under evaluation is not persisted yet, so one is added.
type StoreCounter struct {
	store SimilarCounter
	clock func() time.Time
}

func NewStoreCounter(store SimilarCounter) *StoreCounter {
	return &StoreCounter{store: store, clock: time.Now}
}

func (c *StoreCounter) Count(ctx context.Context, sub submission.Submission, window time.Duration) (int, error) {
	n, err := c.store.CountSimilarSince(ctx, sub, c.clock().UTC().Add(-window))
	if err != nil {
		return 0, fmt.Errorf("duplicate: count: %w", err)
	}
	return n + 1, nil
}

const redisKeyPrefix = "sfs_dup_"

// RedisCounter keeps one sorted set of sightings per normalized content and
// counts those inside the trailing window. Every Count call is a sighting.
type RedisCounter struct {
	rdb   redis.Scripter
	clock func() time.Time
}

func NewRedisCounter(rdb redis.Scripter) *RedisCounter {
	return &RedisCounter{rdb: rdb, clock: time.Now}
}

func (c *RedisCounter) Count(ctx context.Context, sub submission.Submission, window time.Duration) (int, error) {
	key := redisKeyPrefix + submission.NormalizedHash(sub)
	n, err := utils.CountTrailing(ctx, c.rdb, key, uuid.NewString(), c.clock(), window)
	if err != nil {
		return 0, fmt.Errorf("duplicate: redis: %w", err)
	}
	return int(n), nil
}
