package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix    = "tasks:"
	keyGenPrefix = "tasks:gen:"
)

// TaskCache caches task list pages per owner in Redis.
//
// Each owner has a generation counter; page keys embed it, so Invalidate is a
// single INCR and pages written under an older generation are never read again.
// Mutations must invalidate after their store write commits.
type TaskCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTaskCache returns a new TaskCache.
func NewTaskCache(rdb *redis.Client, ttl time.Duration) *TaskCache {
	return &TaskCache{rdb: rdb, ttl: ttl}
}

// Generation returns the owner's current cache generation. Callers read it
// once before querying the store and pass it to Get and Set, so a page built
// before an Invalidate is stored under the old generation and never served.
func (c *TaskCache) Generation(ctx context.Context, ownerID string) (int64, error) {
	gen, err := c.rdb.Get(ctx, keyGenPrefix+ownerID).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

// Get loads the page stored under key for generation gen into dst. It reports false on a miss.
func (c *TaskCache) Get(ctx context.Context, ownerID string, gen int64, key string, dst any) (bool, error) {
	b, err := c.rdb.Get(ctx, pageKey(ownerID, gen, key)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores v under key for generation gen.
func (c *TaskCache) Set(ctx context.Context, ownerID string, gen int64, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, pageKey(ownerID, gen, key), b, c.ttl).Err()
}

// Invalidate drops every cached page of the owner.
func (c *TaskCache) Invalidate(ctx context.Context, ownerID string) error {
	return c.rdb.Incr(ctx, keyGenPrefix+ownerID).Err()
}

func pageKey(ownerID string, gen int64, key string) string {
	return keyPrefix + ownerID + ":v" + strconv.FormatInt(gen, 10) + ":" + key
}
