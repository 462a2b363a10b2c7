// internal/cache/cache.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores serialized views in Redis with a fixed expiry. Writers
// overwrite whole entries; there is no partial invalidation.
type Cache struct {
	client *redis.Client
}

// New wraps an existing Redis client.
func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// RepoListKey is the key of an account's repository overlay.
func RepoListKey(accountID int64) string {
	return fmt.Sprintf("account:%d:repos", accountID)
}

// DashboardKey is the key of an account's dashboard aggregate.
func DashboardKey(accountID int64) string {
	return fmt.Sprintf("account:%d:dashboard", accountID)
}

// GetJSON decodes the entry at key into dst. It reports false on a miss.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v at key for ttl.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

// Delete removes the entries at keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	return c.client.Del(ctx, keys...).Err()
}
