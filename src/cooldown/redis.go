package cooldown

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists the cooldown deadline in Redis with a matching TTL.
type RedisStore struct {
	rdb *redis.Client
	key string
	now func() time.Time
}

// NewRedisStore stores the deadline under Key(bearerToken).
func NewRedisStore(rdb *redis.Client, bearerToken string) *RedisStore {
	return &RedisStore{rdb: rdb, key: Key(bearerToken), now: time.Now}
}

func (s *RedisStore) Until(ctx context.Context) (time.Time, error) {
	raw, err := s.rdb.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("cooldown: get: %w", err)
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("cooldown: parse %q: %w", raw, err)
	}
	return time.UnixMilli(ms), nil
}

func (s *RedisStore) Set(ctx context.Context, until time.Time) error {
	ttl := until.Sub(s.now())
	if ttl <= 0 {
		if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
			return fmt.Errorf("cooldown: clear: %w", err)
		}
		return nil
	}
	if err := s.rdb.Set(ctx, s.key, strconv.FormatInt(until.UnixMilli(), 10), ttl).Err(); err != nil {
		return fmt.Errorf("cooldown: set: %w", err)
	}
	return nil
}
