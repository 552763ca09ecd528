package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type summary struct {
	Students int `json:"students"`
}

func TestMemoryCache_SetGetDelete(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "dashboard:summary", summary{Students: 12}, time.Minute))

	var got summary
	require.NoError(t, c.Get(ctx, "dashboard:summary", &got))
	assert.Equal(t, 12, got.Students)

	require.NoError(t, c.Delete(ctx, "dashboard:summary"))
	assert.ErrorIs(t, c.Get(ctx, "dashboard:summary", &got), ErrCacheMiss)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache().(*memoryCache)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", 1, time.Second))
	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	ok, err = c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_DeletePattern(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "dashboard:a", 1, 0))
	require.NoError(t, c.Set(ctx, "dashboard:b", 2, 0))
	require.NoError(t, c.Set(ctx, "other", 3, 0))

	require.NoError(t, c.DeletePattern(ctx, "dashboard:*"))

	ok, _ := c.Exists(ctx, "dashboard:a")
	assert.False(t, ok)
	ok, _ = c.Exists(ctx, "other")
	assert.True(t, ok)
}

func TestRevocations(t *testing.T) {
	r := NewRevocations(NewMemoryCache())
	ctx := context.Background()

	require.NoError(t, r.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))
	require.NoError(t, r.Revoke(ctx, "jti-old", time.Now().Add(-time.Hour)))

	revoked, err := r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = r.IsRevoked(ctx, "jti-old")
	require.NoError(t, err)
	assert.False(t, revoked)
}
