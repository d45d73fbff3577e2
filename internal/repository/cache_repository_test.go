package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/sma-scheduling-core/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var dest []int
	err := repo.Get(ctx, "availability:MONDAY:09:00:10:00:0", &dest)
	assert.True(t, appErrors.Is(err, appErrors.ErrCacheMiss))
	assert.NoError(t, repo.Set(ctx, "availability:x", []int{1}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "availability:*"))

	gen, err := repo.Counter(ctx, "generation:availability")
	assert.NoError(t, err)
	assert.Zero(t, gen)
	gen, err = repo.Incr(ctx, "generation:availability")
	assert.NoError(t, err)
	assert.Zero(t, gen)
}

func TestCacheKeysAreNamespaced(t *testing.T) {
	assert.Equal(t, "scheduling:availability:*", namespaced("availability:*"))
}
