package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenCache struct {
	calls int
}

func (c *brokenCache) Get(context.Context, string, interface{}) error {
	c.calls++
	return errors.New("dial tcp: connection refused")
}

func (c *brokenCache) Set(context.Context, string, interface{}, time.Duration) error {
	c.calls++
	return errors.New("dial tcp: connection refused")
}

func (c *brokenCache) DeleteByPattern(context.Context, string) error {
	c.calls++
	return errors.New("dial tcp: connection refused")
}

func (c *brokenCache) Counter(context.Context, string) (int64, error) {
	c.calls++
	return 0, errors.New("dial tcp: connection refused")
}

func (c *brokenCache) Incr(context.Context, string) (int64, error) {
	c.calls++
	return 0, errors.New("dial tcp: connection refused")
}

func TestCacheServiceDegradesWhenRedisFails(t *testing.T) {
	repo := &brokenCache{}
	cache := NewCacheService(repo, nil, 0, nil, true)
	ctx := context.Background()

	var dest []int
	hit, err := cache.Get(ctx, "availability:k", &dest)
	assert.False(t, hit)
	assert.Error(t, err)

	cache.Set(ctx, "availability:k", []int{1}, 0)
	cache.Invalidate(ctx, availabilityCachePattern)
	assert.Equal(t, 3, repo.calls)

	_, ok := cache.Generation(ctx, availabilityScope)
	assert.False(t, ok)
	cache.InvalidateScope(ctx, availabilityScope)
	assert.Equal(t, 6, repo.calls)
}

func TestCacheServiceGenerationAdvancesOnInvalidate(t *testing.T) {
	repo := newMemCache()
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	ctx := context.Background()

	gen, ok := cache.Generation(ctx, availabilityScope)
	require.True(t, ok)
	assert.Zero(t, gen)
	require.NoError(t, repo.Set(ctx, "availability:0:MONDAY", []int{1}, time.Minute))

	cache.InvalidateScope(ctx, availabilityScope)
	gen, ok = cache.Generation(ctx, availabilityScope)
	require.True(t, ok)
	assert.Equal(t, int64(1), gen)
	assert.Equal(t, []string{availabilityCachePattern}, repo.invalidated)
	assert.Empty(t, repo.items)
	assert.Equal(t, int64(1), repo.counters["generation:availability"])
}

func TestCacheServiceDisabledSkipsRepository(t *testing.T) {
	repo := &brokenCache{}
	cache := NewCacheService(repo, nil, time.Minute, nil, false)

	hit, err := cache.Get(context.Background(), "availability:k", new([]int))
	require.NoError(t, err)
	assert.False(t, hit)
	cache.Set(context.Background(), "availability:k", []int{1}, 0)
	_, ok := cache.Generation(context.Background(), availabilityScope)
	assert.False(t, ok)
	cache.InvalidateScope(context.Background(), availabilityScope)
	assert.Zero(t, repo.calls)

	var nilCache *CacheService
	assert.False(t, nilCache.Enabled())
	nilCache.Invalidate(context.Background(), availabilityCachePattern)
}

func TestCacheServiceRecordsHitsAndMisses(t *testing.T) {
	metrics := newRecordingMetrics()
	cache := NewCacheService(newMemCache(), metrics, time.Minute, nil, true)
	ctx := context.Background()

	var dest []int
	hit, err := cache.Get(ctx, "availability:k", &dest)
	require.NoError(t, err)
	assert.False(t, hit)

	cache.Set(ctx, "availability:k", []int{4, 2}, 0)
	hit, err = cache.Get(ctx, "availability:k", &dest)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []int{4, 2}, dest)
	assert.Equal(t, 1, metrics.cacheHits)
}
