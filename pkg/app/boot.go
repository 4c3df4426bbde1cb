package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/broker"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/migration"
	"github.com/shashiranjanraj/storefront/pkg/orm"
	"github.com/shashiranjanraj/storefront/pkg/queue"
	"github.com/shashiranjanraj/storefront/pkg/storage"
)

// BootDB loads config and connects to the database only. Migration and
// seeding commands need nothing else.
func BootDB() error {
	if err := config.Load(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := database.Connect(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	return nil
}

// Boot connects everything a server or worker process uses. Only the
// database is mandatory; Redis, Kafka and S3 degrade with a warning. The
// returned func releases what Boot opened.
func Boot(ctx context.Context) (func(), error) {
	if err := BootDB(); err != nil {
		return nil, err
	}
	flushLogs := logger.Setup()

	if err := cache.Connect(); err != nil {
		logger.Warn("redis unavailable, using in-process cache and queue", "error", err)
	} else {
		orm.CacheStore = &ormCache{}
		queue.SetDriver(queue.NewRedisDriver(ctx, cache.RDB))
	}
	queue.UseDB(database.DB)
	queue.SetMaxRetry(config.Int("QUEUE_MAX_RETRY", 3))
	queue.SetBackoff(config.Duration("QUEUE_BACKOFF", 5*time.Second))

	storage.Connect()

	if err := broker.Connect(); err != nil {
		logger.Warn("kafka unavailable, order events are logged only", "error", err)
	}

	if config.Get("AUTO_MIGRATE", "false") == "true" {
		if _, err := migration.New(database.DB).Run(); err != nil {
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
	}

	return func() {
		if err := broker.Close(); err != nil {
			logger.Warn("broker close", "error", err)
		}
		if err := database.Close(); err != nil {
			logger.Warn("database close", "error", err)
		}
		flushLogs()
	}, nil
}

// ormCache bridges pkg/cache to orm.Cacher so neither imports the other.
type ormCache struct{}

func (c *ormCache) Get(key string, dest interface{}) bool {
	return cache.Get(key, dest)
}

func (c *ormCache) Set(key string, value interface{}, ttl time.Duration) error {
	return cache.Set(key, value, ttl)
}
