package counter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/newsreach/contact-discovery/internal/model"
)

// consumeScript increments the window counter and stamps the expiry only
// when the key has none yet, returning {count, pttl} in one round trip so
// concurrent consumers always see a consistent remaining. Guarding on PTTL
// rather than the counter value keeps zero-cost probes from letting a later
// consumption restart the window.
var consumeScript = redis.NewScript(`
local current = redis.call('INCRBY', KEYS[1], ARGV[1])
if redis.call('PTTL', KEYS[1]) < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
local ttl = redis.call('PTTL', KEYS[1])
return {current, ttl}
`)

// RedisStore is the distributed counter backend shared across instances.
type RedisStore struct {
	client *redis.Client
}

// RedisConfig configures the Redis-backed store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStore creates a store backed by Redis.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Consume(ctx context.Context, key string, cost, limit int, window time.Duration) (Result, error) {
	vals, err := consumeScript.Run(ctx, s.client, []string{key},
		cost, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("%w: consume: %v", model.ErrStoreUnavailable, err)
	}
	if len(vals) != 2 {
		return Result{}, fmt.Errorf("%w: consume: unexpected reply length %d", model.ErrStoreUnavailable, len(vals))
	}
	count, ttlMs := int(vals[0]), vals[1]

	resetAt := time.Now().Add(window)
	if ttlMs > 0 {
		resetAt = time.Now().Add(time.Duration(ttlMs) * time.Millisecond)
	}
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{Allowed: count <= limit, Remaining: remaining, ResetAt: resetAt}, nil
}

func (s *RedisStore) Peek(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	pipe := s.client.Pipeline()
	getCmd := pipe.Get(ctx, key)
	ttlCmd := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return Result{}, fmt.Errorf("%w: peek: %v", model.ErrStoreUnavailable, err)
	}

	count, err := getCmd.Int()
	if err == redis.Nil {
		return Result{Allowed: true, Remaining: limit, ResetAt: time.Now().Add(window)}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("%w: peek: %v", model.ErrStoreUnavailable, err)
	}

	resetAt := time.Now().Add(window)
	if ttl := ttlCmd.Val(); ttl > 0 {
		resetAt = time.Now().Add(ttl)
	}
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{Allowed: count < limit, Remaining: remaining, ResetAt: resetAt}, nil
}

func (s *RedisStore) Block(ctx context.Context, key string, d time.Duration) error {
	if err := s.client.Set(ctx, blockKey(key), 1, d).Err(); err != nil {
		return fmt.Errorf("%w: block: %v", model.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) BlockedUntil(ctx context.Context, key string) (time.Time, bool, error) {
	ttl, err := s.client.PTTL(ctx, blockKey(key)).Result()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: blockedUntil: %v", model.ErrStoreUnavailable, err)
	}
	if ttl <= 0 {
		return time.Time{}, false, nil
	}
	return time.Now().Add(ttl), true, nil
}

func (s *RedisStore) Reset(ctx context.Context, prefix string) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("%w: reset: %v", model.ErrStoreUnavailable, err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("%w: reset: %v", model.ErrStoreUnavailable, err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: ping: %v", model.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Close() error { return s.client.Close() }

func blockKey(key string) string { return key + ":block" }
