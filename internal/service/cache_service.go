package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-scheduling-core/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
	// Counter reads an integer counter, returning 0 when it was never set.
	Counter(ctx context.Context, key string) (int64, error)
	Incr(ctx context.Context, key string) (int64, error)
}

// CacheService wraps a CacheRepository with hit/miss metrics. A disabled or
// nil service behaves as a permanent miss.
type CacheService struct {
	repo       CacheRepository
	metrics    schedulingMetrics
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics schedulingMetrics, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metricsOrNop(metrics), defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get attempts to retrieve a cached entry. It returns true when the cache was hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	s.metrics.RecordCacheOperation(true, duration)
	return true, nil
}

// Set stores value for ttl, falling back to the default TTL. Failures are
// logged and swallowed since the database stays authoritative.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !s.Enabled() {
		return
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	if err := s.repo.Set(ctx, key, value, ttl); err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops every entry matching pattern. A failure leaves stale
// entries until their TTL expires, so it is logged at error.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Error("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
	}
}

func generationKey(scope string) string {
	return "generation:" + scope
}

// Generation returns the current generation of scope. The boolean is false
// when the cache is disabled or unreachable, in which case callers must not
// cache anything for scope.
func (s *CacheService) Generation(ctx context.Context, scope string) (int64, bool) {
	if !s.Enabled() {
		return 0, false
	}
	gen, err := s.repo.Counter(ctx, generationKey(scope))
	if err != nil {
		s.logger.Warn("cache generation read failed", zap.String("scope", scope), zap.Error(err))
		return 0, false
	}
	return gen, true
}

// BumpGeneration advances the generation of scope so entries keyed under an
// earlier generation are never read again.
func (s *CacheService) BumpGeneration(ctx context.Context, scope string) {
	if !s.Enabled() {
		return
	}
	if _, err := s.repo.Incr(ctx, generationKey(scope)); err != nil {
		s.logger.Error("cache generation bump failed", zap.String("scope", scope), zap.Error(err))
	}
}

// InvalidateScope bumps the generation of scope and then drops its entries.
func (s *CacheService) InvalidateScope(ctx context.Context, scope string) {
	s.BumpGeneration(ctx, scope)
	s.Invalidate(ctx, scope+":*")
}
