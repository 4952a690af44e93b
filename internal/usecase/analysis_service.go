package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/incilens/backend/internal/domain"
	"github.com/incilens/backend/internal/infrastructure/metrics"
)

// AnalysisServiceConfig holds configuration for the analysis service
type AnalysisServiceConfig struct {
	CacheTTL time.Duration
}

// AnalysisService runs analyses through the engine with result caching
type AnalysisService struct {
	engine   *Engine
	cache    domain.CacheRepository
	metrics  *metrics.Metrics
	cacheTTL time.Duration
	source   string
	logger   *zap.Logger
}

// NewAnalysisService creates a new analysis service with dependencies.
// cache and m may be nil.
func NewAnalysisService(
	engine *Engine,
	cache domain.CacheRepository,
	m *metrics.Metrics,
	config AnalysisServiceConfig,
	logger *zap.Logger,
) *AnalysisService {
	if logger == nil {
		logger = zap.NewNop()
	}

	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	m.SetCatalogSize(engine.Index().Len())

	return &AnalysisService{
		engine:   engine,
		cache:    cache,
		metrics:  m,
		cacheTTL: cacheTTL,
		logger:   logger.Named("analysis"),
	}
}

// WithSourceName records where the catalog was loaded from, for stats
func (s *AnalysisService) WithSourceName(name string) *AnalysisService {
	s.source = name
	return s
}

// Analyze matches an INCI list against the catalog.
// Flow: normalize -> check cache -> run engine -> cache -> return
func (s *AnalysisService) Analyze(ctx context.Context, request *domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	start := time.Now()

	if request == nil {
		s.metrics.ObserveAnalysis(metrics.StatusInvalidInput, nil, 0)
		return nil, fmt.Errorf("%w: request is empty", domain.ErrInvalidInput)
	}

	tokens, err := s.engine.Normalize(request.INCIList)
	if err != nil {
		s.metrics.ObserveAnalysis(statusFor(err), nil, 0)
		return nil, err
	}

	cacheKey := s.generateCacheKey(tokens)

	if cached, err := s.getFromCache(ctx, cacheKey); err == nil {
		cached.ProcessingTime = roundSeconds(time.Since(start))
		s.metrics.ObserveAnalysis(metrics.StatusOK, cached, time.Since(start))
		return cached, nil
	}

	result, err := s.engine.Analyze(ctx, request.INCIList)
	if err != nil {
		s.metrics.ObserveAnalysis(statusFor(err), nil, 0)
		return nil, err
	}

	if err := s.setInCache(ctx, cacheKey, result); err != nil {
		s.logger.Warn("failed to cache analysis result", zap.String("key", cacheKey), zap.Error(err))
	}

	s.metrics.ObserveAnalysis(metrics.StatusOK, result, time.Since(start))
	return result, nil
}

// Stats summarizes the loaded knowledge base
func (s *AnalysisService) Stats() domain.CatalogStats {
	generics := 0
	if s.engine.generics != nil {
		generics = s.engine.generics.Len()
	}
	return domain.CatalogStats{
		Complexes:          s.engine.Index().Len(),
		DistinctComponents: len(s.engine.Index().Vocabulary()),
		GenericEntries:     generics,
		Source:             s.source,
	}
}

// generateCacheKey derives a key from the ordered token displays and the engine fingerprint.
// Format: "inci:{engine_fingerprint_hash}:{tokens_hash}"
func (s *AnalysisService) generateCacheKey(tokens []domain.INCIToken) string {
	engineHash := xxhash.Sum64String(s.engine.Fingerprint())
	tokensHash := xxhash.Sum64String(strings.Join(Displays(tokens), "\x1f"))
	return fmt.Sprintf("inci:%016x:%016x", engineHash, tokensHash)
}

// getFromCache retrieves a result from cache
func (s *AnalysisService) getFromCache(ctx context.Context, key string) (*domain.AnalysisResult, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}

	value, err := s.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			s.metrics.ObserveCache(metrics.CacheMiss)
		} else {
			s.metrics.ObserveCache(metrics.CacheError)
			s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, err
	}

	var result domain.AnalysisResult
	if err := json.Unmarshal(value, &result); err != nil {
		s.metrics.ObserveCache(metrics.CacheError)
		s.logger.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return nil, domain.ErrCacheMiss
	}

	s.metrics.ObserveCache(metrics.CacheHit)
	return &result, nil
}

// setInCache stores a result in cache
func (s *AnalysisService) setInCache(ctx context.Context, key string, result *domain.AnalysisResult) error {
	if s.cache == nil {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, data, s.cacheTTL)
}

// statusFor maps an analysis error onto a metrics label
func statusFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return metrics.StatusInvalidInput
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.StatusCanceled
	default:
		return metrics.StatusInternalError
	}
}
