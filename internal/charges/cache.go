package charges

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheVersionKey = "charges:reads:version"

// Cache wraps Redis based caching for charge reads. A single version key
// namespaces every cached entry, so one bump after a committed mutation
// invalidates all stale lists at once.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper. A nil cache is valid and falls
// through to the loader.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) version(ctx context.Context) (int64, error) {
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if err == redis.Nil {
		if err := c.client.Set(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// FetchList loads a cached charge list or populates it from the loader.
// Cache failures degrade to a direct load rather than failing the read.
func (c *Cache) FetchList(ctx context.Context, owner string, loader func(context.Context) ([]Charge, error)) ([]Charge, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	key, err := c.buildKey(ctx, "list", owner)
	if err != nil {
		return loader(ctx)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var out []Charge
		if err := json.Unmarshal(payload, &out); err == nil {
			return out, nil
		}
	}
	out, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(out); err == nil {
		_ = c.client.Set(ctx, key, raw, c.ttl).Err()
	}
	return out, nil
}

// Bump invalidates every cached read by incrementing the version.
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, cacheVersionKey).Err()
}

func (c *Cache) buildKey(ctx context.Context, parts ...string) (string, error) {
	ver, err := c.version(ctx)
	if err != nil {
		return "", err
	}
	joined := strings.Join(append([]string{"charges"}, parts...), ":")
	return joined + ":" + strconv.FormatInt(ver, 10), nil
}
