package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/incilens/backend/config"
	httpDelivery "github.com/incilens/backend/internal/delivery/http"
	"github.com/incilens/backend/internal/domain"
	"github.com/incilens/backend/internal/infrastructure/cache"
	"github.com/incilens/backend/internal/infrastructure/catalog"
	"github.com/incilens/backend/internal/infrastructure/logging"
	"github.com/incilens/backend/internal/infrastructure/metrics"
	"github.com/incilens/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Environment: cfg.Server.Environment,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting INCILens backend",
		zap.String("version", httpDelivery.Version),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("cache", cfg.Cache.Type))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Knowledge base failures are fatal
	src, closer, err := catalog.Open(catalogConfig(cfg), logger)
	if err != nil {
		logger.Fatal("failed to open catalog", zap.Error(err))
	}
	defer closer.Close()

	kb, err := catalog.Load(ctx, src, usecase.IndexOptions{
		EnableFuzzyMatching: cfg.Matching.EnableFuzzyMatching,
		FuzzyThreshold:      cfg.Matching.FuzzyThreshold,
	}, logger)
	if err != nil {
		logger.Fatal("failed to load catalog", zap.String("source", src.Name()), zap.Error(err))
	}

	engine := usecase.NewEngine(kb.Index, kb.Generics, engineConfig(cfg), logger)

	resultCache, err := newCache(ctx, cfg.Cache, logger)
	if err != nil {
		logger.Fatal("failed to initialize cache", zap.Error(err))
	}
	if c, ok := resultCache.(io.Closer); ok {
		defer c.Close()
	}

	m := metrics.New("incilens")

	analysisService := usecase.NewAnalysisService(
		engine,
		resultCache,
		m,
		usecase.AnalysisServiceConfig{CacheTTL: cfg.Cache.TTL},
		logger,
	).WithSourceName(kb.Source)

	logger.Info("matching configured",
		zap.Float64("acceptance_threshold", cfg.Matching.AcceptanceThreshold),
		zap.Float64("tie_tolerance", cfg.Matching.TieTolerance),
		zap.Float64("coverage_weight", cfg.Matching.CoverageWeight),
		zap.Float64("specificity_weight", cfg.Matching.SpecificityWeight),
		zap.Bool("fuzzy", cfg.Matching.EnableFuzzyMatching),
		zap.Bool("debug", cfg.Matching.EnableDebugLogging))

	handler := httpDelivery.NewHandler(analysisService, logger)
	router := httpDelivery.SetupRouter(cfg, handler, m, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func catalogConfig(cfg *config.Config) catalog.Config {
	return catalog.Config{
		Source:       cfg.Catalog.Source,
		Path:         cfg.Catalog.Path,
		URL:          cfg.Catalog.URL,
		APIToken:     cfg.Catalog.APIToken,
		GenericsPath: cfg.Catalog.GenericsPath,
		Debug:        cfg.Server.Environment == "development",
	}
}

func engineConfig(cfg *config.Config) usecase.EngineConfig {
	return usecase.EngineConfig{
		AcceptanceThreshold: usecase.Float(cfg.Matching.AcceptanceThreshold),
		TieTolerance:        usecase.Float(cfg.Matching.TieTolerance),
		CoverageWeight:      cfg.Matching.CoverageWeight,
		SpecificityWeight:   cfg.Matching.SpecificityWeight,
		ParallelThreshold:   cfg.Matching.ParallelThreshold,
		EnableDebugLogging:  cfg.Matching.EnableDebugLogging,
	}
}

// newCache builds the configured result cache; "none" disables caching
func newCache(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (domain.CacheRepository, error) {
	switch cfg.Type {
	case "redis":
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return cache.NewRedisCache(client, cfg.KeyPrefix, logger), nil
	case "none":
		return nil, nil
	default:
		return cache.NewMemoryCache(5 * time.Minute), nil
	}
}
