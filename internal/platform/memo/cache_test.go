package memo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheTTLEviction(t *testing.T) {
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	c := New[string, int](time.Minute).WithClock(func() time.Time { return now })

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCacheSetIfAbsent(t *testing.T) {
	c := New[string, int](0)

	assert.True(t, c.SetIfAbsent("a", 1))
	assert.False(t, c.SetIfAbsent("a", 2))

	v, _ := c.Get("a")
	assert.Equal(t, 1, v)
}

func TestCacheGetOrLoad(t *testing.T) {
	c := New[string, string](time.Hour)
	calls := 0
	load := func(ctx context.Context) (string, error) {
		calls++
		return "value", nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrLoad(context.Background(), "k", load)
		require.NoError(t, err)
		assert.Equal(t, "value", v)
	}
	assert.Equal(t, 1, calls)

	_, err := c.GetOrLoad(context.Background(), "bad", func(ctx context.Context) (string, error) {
		return "", errors.New("boom")
	})
	assert.Error(t, err)
	_, ok := c.Get("bad")
	assert.False(t, ok)
}
