package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis wraps a redis client. Cache accessors fail safe: a missing or
// unreachable redis behaves like a cache miss, never an error.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

// GetBytes returns the cached value, or nil on a miss or redis failure.
func (r *Redis) GetBytes(ctx context.Context, key string) []byte {
	if r == nil || r.Client == nil {
		return nil
	}
	val, err := r.Client.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	return val
}

// SetBytes stores value with a TTL, ignoring redis errors.
func (r *Redis) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if r == nil || r.Client == nil {
		return
	}
	_ = r.Client.Set(ctx, key, value, ttl).Err()
}
