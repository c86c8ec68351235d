package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roster-cli/internal/model"
)

func setupTestCache(t *testing.T) (*miniredis.Miniredis, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewWithClient(client, time.Hour, "roster:")
}

func TestCache_SetGet(t *testing.T) {
	mr, c := setupTestCache(t)
	ctx := context.Background()

	in := []model.RecordA{{ID: "1", Name: "Kim", IsActive: true}}
	require.NoError(t, c.Set(ctx, "a:abc", in))
	assert.True(t, mr.Exists("roster:a:abc"))

	var out []model.RecordA
	ok, err := c.Get(ctx, "a:abc", &out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, in, out)
}

func TestCache_Miss(t *testing.T) {
	_, c := setupTestCache(t)

	var out []model.RecordB
	ok, err := c.Get(context.Background(), "missing", &out)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, out)
}

func TestCache_TTLExpires(t *testing.T) {
	mr, c := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v"))
	mr.FastForward(2 * time.Hour)

	var out string
	ok, err := c.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_CorruptEntry(t *testing.T) {
	mr, c := setupTestCache(t)
	require.NoError(t, mr.Set("roster:bad", "{not json"))

	var out []model.RecordA
	_, err := c.Get(context.Background(), "bad", &out)
	assert.Error(t, err)
}

func TestCache_NilIsNoop(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", 1))
	var out int
	ok, err := c.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Health(ctx))
	assert.NoError(t, c.Close())
}

func TestNew_EmptyURL(t *testing.T) {
	c, err := New(context.Background(), Options{})
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestNew_Connects(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := New(context.Background(), Options{URL: "redis://" + mr.Addr(), TTL: time.Minute, PoolSize: 2})
	require.NoError(t, err)
	require.NotNil(t, c)
	t.Cleanup(func() { _ = c.Close() })
	assert.NoError(t, c.Health(context.Background()))
}

func TestNew_BadURL(t *testing.T) {
	_, err := New(context.Background(), Options{URL: "not-a-url://"})
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	k1 := Key("a", []byte("data"), []byte("opts"))
	k2 := Key("a", []byte("data"), []byte("opts"))
	k3 := Key("a", []byte("dat"), []byte("aopts"))
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.Contains(t, k1, "a:")
}
