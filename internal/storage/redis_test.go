package storage

import (
	"context"
	"sort"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdash/forget-me-not/internal/service/exclusions"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return NewRedisStore(client), mr
}

func TestRedisStore_GetDefaultsToEmpty(t *testing.T) {
	s, _ := setupTestRedis(t)

	modules, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, modules)
}

func TestRedisStore_RoundTrip(t *testing.T) {
	s, _ := setupTestRedis(t)
	ctx := context.Background()

	want := []string{"dashboard", "metrics", "tracking"}
	require.NoError(t, s.Set(ctx, want))

	got, err := s.Get(ctx)
	require.NoError(t, err)
	sort.Strings(got)
	assert.Equal(t, want, got)
}

func TestRedisStore_SetReplacesPriorContents(t *testing.T) {
	s, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, []string{"dashboard", "metrics"}))
	require.NoError(t, s.Set(ctx, []string{"tracking"}))

	got, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tracking"}, got)
}

func TestRedisStore_SetEmptyClearsKey(t *testing.T) {
	s, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, []string{"dashboard"}))
	require.NoError(t, s.Set(ctx, nil))

	assert.False(t, mr.Exists(exclusions.ConfigKey))

	got, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisStore_DeleteIsIdempotent(t *testing.T) {
	s, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, []string{"dashboard"}))
	require.NoError(t, s.Delete(ctx))
	require.NoError(t, s.Delete(ctx))

	assert.False(t, mr.Exists(exclusions.ConfigKey))
}
