package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string  `json:"name"`
	Total float64 `json:"total"`
}

func TestInMemoryReportCache(t *testing.T) {
	ctx := context.Background()

	t.Run("round trips a payload", func(t *testing.T) {
		cache := NewInMemoryReportCache()

		require.NoError(t, cache.Set(ctx, "collections:2025", payload{Name: "Term 1 Tuition", Total: 150000}, time.Minute))

		var got payload
		hit, err := cache.Get(ctx, "collections:2025", &got)
		require.NoError(t, err)
		assert.True(t, hit)
		assert.Equal(t, "Term 1 Tuition", got.Name)
		assert.InDelta(t, 150000, got.Total, 0.001)
	})

	t.Run("misses on an unknown key", func(t *testing.T) {
		cache := NewInMemoryReportCache()

		var got payload
		hit, err := cache.Get(ctx, "nope", &got)
		require.NoError(t, err)
		assert.False(t, hit)
	})

	t.Run("expires entries after the ttl", func(t *testing.T) {
		cache := NewInMemoryReportCache()
		current := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
		cache.now = func() time.Time { return current }

		require.NoError(t, cache.Set(ctx, "overdue", payload{Total: 83500}, 5*time.Minute))

		current = current.Add(10 * time.Minute)

		var got payload
		hit, err := cache.Get(ctx, "overdue", &got)
		require.NoError(t, err)
		assert.False(t, hit)
	})

	t.Run("treats zero ttl as no expiry", func(t *testing.T) {
		cache := NewInMemoryReportCache()
		current := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
		cache.now = func() time.Time { return current }

		require.NoError(t, cache.Set(ctx, "daily", payload{Total: 12500}, 0))

		current = current.Add(24 * time.Hour)

		var got payload
		hit, err := cache.Get(ctx, "daily", &got)
		require.NoError(t, err)
		assert.True(t, hit)
	})

	t.Run("invalidate clears everything", func(t *testing.T) {
		cache := NewInMemoryReportCache()

		require.NoError(t, cache.Set(ctx, "a", payload{}, time.Minute))
		require.NoError(t, cache.Set(ctx, "b", payload{}, time.Minute))
		require.NoError(t, cache.Invalidate(ctx))

		var got payload
		hit, err := cache.Get(ctx, "a", &got)
		require.NoError(t, err)
		assert.False(t, hit)
	})
}
