package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedValue struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	c := &memoryCache{entries: make(map[string]memoryEntry), now: func() time.Time { return now }}

	require.NoError(t, c.Set(ctx, "test:1", cachedValue{Name: "a", Count: 1}, time.Minute))
	require.NoError(t, c.Set(ctx, "test:2", cachedValue{Name: "b"}, 0))
	require.NoError(t, c.Set(ctx, "auth:credentials", cachedValue{Name: "c"}, 0))

	var got cachedValue
	require.NoError(t, c.Get(ctx, "test:1", &got))
	assert.Equal(t, cachedValue{Name: "a", Count: 1}, got)

	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, c.Get(ctx, "test:1", &got), ErrCacheMiss)
	require.NoError(t, c.Get(ctx, "test:2", &got))

	require.NoError(t, c.DeletePattern(ctx, "test:*"))
	assert.ErrorIs(t, c.Get(ctx, "test:2", &got), ErrCacheMiss)
	require.NoError(t, c.Get(ctx, "auth:credentials", &got))

	require.NoError(t, c.Delete(ctx, "auth:credentials"))
	assert.ErrorIs(t, c.Get(ctx, "auth:credentials", &got), ErrCacheMiss)
}
