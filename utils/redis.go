package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"tasklist/models"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// OpenRedisPool initializes a Redis connection pool from a redis:// URL.
func OpenRedisPool(dsn string) (*redis.Client, error) {
	opt, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	// Configure connection pooling
	opt.PoolSize = 100                    // Maximum number of connections in the pool
	opt.MinIdleConns = 2                  // Minimum number of idle connections
	opt.DialTimeout = 5 * time.Second     // Timeout for new connections
	opt.ConnMaxIdleTime = 5 * time.Minute // Close idle connections after this duration

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// TaskCache caches per-owner task lists and status counts in Redis.
//
// Every owner has a generation counter that is part of each cache key.
// Invalidate bumps the counter, so values loaded before a write can never
// be served after it. When the counter cannot be bumped the owner is read
// straight from the loader until every value cached before the write has
// expired. A nil *TaskCache is valid and caches nothing.
type TaskCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	sf     singleflight.Group
	logger *slog.Logger

	mu    sync.Mutex
	stale map[int64]time.Time
}

const (
	invalidateTimeout = 2 * time.Second
	loadTimeout       = 10 * time.Second
)

func NewTaskCache(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *TaskCache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &TaskCache{rdb: rdb, ttl: ttl, logger: logger, stale: make(map[int64]time.Time)}
}

// Tasks returns the cached task list for ownerID, calling load on a miss.
func (c *TaskCache) Tasks(ctx context.Context, ownerID int64, load func(context.Context) ([]models.Task, error)) ([]models.Task, error) {
	if c == nil {
		return load(ctx)
	}
	return cached(ctx, c, "list", ownerID, load)
}

// StatusCounts returns the cached status counts for ownerID, calling load on a miss.
func (c *TaskCache) StatusCounts(ctx context.Context, ownerID int64, load func(context.Context) (models.StatusCounts, error)) (models.StatusCounts, error) {
	if c == nil {
		return load(ctx)
	}
	return cached(ctx, c, "status", ownerID, load)
}

// Invalidate drops every cached value for ownerID. It is called after a
// commit, so it outlives a cancelled request context.
func (c *TaskCache) Invalidate(ctx context.Context, ownerID int64) error {
	if c == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), invalidateTimeout)
	defer cancel()

	if err := c.rdb.Incr(ctx, generationKey(ownerID)).Err(); err != nil {
		c.markStale(ownerID)
		return fmt.Errorf("bump generation: %w", err)
	}
	return nil
}

func (c *TaskCache) markStale(ownerID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stale[ownerID] = time.Now().Add(c.ttl)
}

func (c *TaskCache) isStale(ownerID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	until, ok := c.stale[ownerID]
	if !ok {
		return false
	}
	if time.Now().After(until) {
		delete(c.stale, ownerID)
		return false
	}
	return true
}

func generationKey(ownerID int64) string {
	return "tasks:gen:" + strconv.FormatInt(ownerID, 10)
}

func (c *TaskCache) key(ctx context.Context, kind string, ownerID int64) (string, error) {
	gen, err := c.rdb.Get(ctx, generationKey(ownerID)).Result()
	if errors.Is(err, redis.Nil) {
		gen = "0"
	} else if err != nil {
		return "", err
	}
	return fmt.Sprintf("tasks:%s:%d:%s", kind, ownerID, gen), nil
}

// cached is the read-through path shared by the cache accessors. Redis
// failures are logged and fall back to load. The shared load runs detached
// from any single caller so one cancelled request cannot fail the others.
func cached[T any](ctx context.Context, c *TaskCache, kind string, ownerID int64, load func(context.Context) (T, error)) (T, error) {
	if c.isStale(ownerID) {
		return load(ctx)
	}
	key, err := c.key(ctx, kind, ownerID)
	if err != nil {
		c.logger.Warn("task cache unavailable", "owner_id", ownerID, "err", err)
		return load(ctx)
	}

	ch := c.sf.DoChan(key, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		b, err := c.rdb.Get(ctx, key).Bytes()
		if err == nil {
			var out T
			if err := json.Unmarshal(b, &out); err == nil {
				return out, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			c.logger.Warn("task cache read failed", "key", key, "err", err)
		}

		out, err := load(ctx)
		if err != nil {
			return out, err
		}
		if b, err := json.Marshal(out); err == nil {
			if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
				c.logger.Warn("task cache write failed", "key", key, "err", err)
			}
		}
		return out, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}
