// internal/cache/cache_test.go
package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client), mr
}

func TestCache_RoundTripAndExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	key := RepoListKey(7)

	var got []entry
	hit, err := c.GetJSON(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.SetJSON(ctx, key, []entry{{Name: "hello", Count: 2}}, 30*time.Minute))

	hit, err = c.GetJSON(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []entry{{Name: "hello", Count: 2}}, got)

	mr.FastForward(31 * time.Minute)

	hit, err = c.GetJSON(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, hit, "entry must expire after its ttl")
}

func TestCache_LastWriterWins(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	key := DashboardKey(1)

	require.NoError(t, c.SetJSON(ctx, key, entry{Name: "old"}, time.Minute))
	require.NoError(t, c.SetJSON(ctx, key, entry{Name: "new"}, time.Minute))

	var got entry
	_, err := c.GetJSON(ctx, key, &got)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Name)

	require.NoError(t, c.Delete(ctx, key))
	hit, err := c.GetJSON(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCache_CorruptEntry(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set(RepoListKey(1), "{not json"))

	var got []entry
	_, err := c.GetJSON(context.Background(), RepoListKey(1), &got)

	assert.ErrorContains(t, err, "corrupt cache entry")
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "account:42:repos", RepoListKey(42))
	assert.Equal(t, "account:42:dashboard", DashboardKey(42))
}
