package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 200

// RedisStore keeps entries under KeyPrefix with native expiry.
type RedisStore struct {
	rdb redis.Cmdable
}

func NewRedisStore(rdb redis.Cmdable) *RedisStore { return &RedisStore{rdb: rdb} }

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.rdb.Get(ctx, KeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: redis get: %w", err)
	}
	return b, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}
	if err := s.rdb.Set(ctx, KeyPrefix+key, val, ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, KeyPrefix+key).Err()
}

func (s *RedisStore) Flush(ctx context.Context) (int, error) {
	n := 0
	err := s.scan(ctx, func(keys []string) error {
		removed, err := s.rdb.Del(ctx, keys...).Result()
		n += int(removed)
		return err
	})
	return n, err
}

func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.scan(ctx, func(keys []string) error {
		for _, k := range keys {
			size, err := s.rdb.StrLen(ctx, k).Result()
			if err != nil {
				return err
			}
			st.Entries++
			st.SizeBytes += size
		}
		return nil
	})
	return st, err
}

// Cleanup is a no-op; Redis expires keys itself.
func (s *RedisStore) Cleanup(ctx context.Context) (int, error) { return 0, nil }

func (s *RedisStore) scan(ctx context.Context, fn func(keys []string) error) error {
	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, KeyPrefix+"*", scanBatch).Result()
		if err != nil {
			return fmt.Errorf("cache: redis scan: %w", err)
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return fmt.Errorf("cache: redis: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
