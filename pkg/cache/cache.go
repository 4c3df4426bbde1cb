// Package cache is a thin JSON layer over Redis. Every call is a no-op
// (or a miss) when Redis is unreachable, so the shop keeps serving from the
// database.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

var RDB *redis.Client
var Ctx = context.Background()

// Connect dials Redis and pings it. On failure RDB stays nil.
func Connect() error {
	RDB = redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       0,
	})

	if err := RDB.Ping(Ctx).Err(); err != nil {
		RDB = nil
		return fmt.Errorf("cache: redis ping: %w", err)
	}
	return nil
}

// Use installs an existing client. Tests pass nil to force the
// database-only path.
func Use(c *redis.Client) { RDB = c }

// Available reports whether Redis is connected.
func Available() bool { return RDB != nil }

// Get unmarshals key into dest and reports a hit.
func Get(key string, dest interface{}) bool {
	if RDB == nil {
		return false
	}

	val, err := RDB.Get(Ctx, key).Bytes()
	if err != nil {
		metrics.CacheMisses.WithLabelValues("redis").Inc()
		return false
	}
	if err := json.Unmarshal(val, dest); err != nil {
		metrics.CacheMisses.WithLabelValues("redis").Inc()
		return false
	}

	metrics.CacheHits.WithLabelValues("redis").Inc()
	return true
}

// Set stores value as JSON for ttl.
func Set(key string, value interface{}, ttl time.Duration) error {
	if RDB == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return RDB.Set(Ctx, key, data, ttl).Err()
}

// Remember returns the cached value for key or fills it from fn.
func Remember(key string, ttl time.Duration, dest interface{}, fn func() error) error {
	if Get(key, dest) {
		return nil
	}
	if err := fn(); err != nil {
		return err
	}
	return Set(key, dest, ttl)
}

func Del(keys ...string) error {
	if RDB == nil {
		return nil
	}
	return RDB.Del(Ctx, keys...).Err()
}

func Forget(key string) error {
	return Del(key)
}

// Version returns the generation counter stored at key. Callers embed it in
// cache keys so that Bump invalidates a whole family at once.
func Version(key string) int64 {
	if RDB == nil {
		return 0
	}
	n, err := RDB.Get(Ctx, key).Int64()
	if err != nil {
		return 0
	}
	return n
}

// Bump increments the generation counter at key.
func Bump(key string) error {
	if RDB == nil {
		return nil
	}
	return RDB.Incr(Ctx, key).Err()
}
