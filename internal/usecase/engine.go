package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/incilens/backend/internal/domain"
)

// EngineConfig holds configuration for the matching engine.
// A nil threshold or tolerance selects the default; an explicit 0 is kept.
type EngineConfig struct {
	AcceptanceThreshold *float64
	TieTolerance        *float64
	CoverageWeight      float64
	SpecificityWeight   float64
	ParallelThreshold   int
	EnableDebugLogging  bool
}

// Engine runs the analysis pipeline over an immutable catalog index.
// It keeps no per-request state and is safe for concurrent use.
type Engine struct {
	index        *Index
	generics     domain.GenericLookup
	normalizer   *Normalizer
	scorer       *Scorer
	tieTolerance float64
	logger       *zap.Logger
	debug        bool
}

// NewEngine creates a new engine; generics may be nil
func NewEngine(index *Index, generics domain.GenericLookup, config EngineConfig, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	tolerance := defaultTieTolerance
	if config.TieTolerance != nil {
		tolerance = *config.TieTolerance
	}

	return &Engine{
		index:      index,
		generics:   generics,
		normalizer: NewNormalizer(logger, config.EnableDebugLogging),
		scorer: NewScorer(index, ScorerConfig{
			AcceptanceThreshold: config.AcceptanceThreshold,
			CoverageWeight:      config.CoverageWeight,
			SpecificityWeight:   config.SpecificityWeight,
			ParallelThreshold:   config.ParallelThreshold,
		}),
		tieTolerance: tolerance,
		logger:       logger.Named("engine"),
		debug:        config.EnableDebugLogging,
	}
}

// Float returns a pointer to v for the optional EngineConfig fields
func Float(v float64) *float64 {
	return &v
}

// Normalize exposes the engine's normalizer
func (e *Engine) Normalize(raw []string) ([]domain.INCIToken, error) {
	return e.normalizer.Normalize(raw)
}

// Analyze matches a raw INCI list against the catalog.
// Either a fully reconciled result is returned or an error; never a partial result.
func (e *Engine) Analyze(ctx context.Context, raw []string) (*domain.AnalysisResult, error) {
	start := time.Now()

	tokens, err := e.normalizer.Normalize(raw)
	if err != nil {
		return nil, err
	}

	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	candidates := GenerateCandidates(tokens, e.index)

	survivors, err := e.scorer.ScoreAll(ctx, candidates)
	if err != nil {
		return nil, err
	}

	if e.debug {
		for _, c := range candidates {
			e.logger.Debug("candidate",
				zap.String("brand", c.Record.BrandName),
				zap.Strings("matched", c.MatchedKeys()),
				zap.Float64("coverage", c.Coverage))
		}
		e.logger.Debug("scored candidates",
			zap.Int("generated", len(candidates)),
			zap.Int("surviving", len(survivors)),
			zap.Float64("threshold", e.scorer.AcceptanceThreshold()))
	}

	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	resolution := ResolveConflicts(survivors, tokens, e.tieTolerance)
	unmatched := ClassifyUnmatched(resolution.Unmatched, e.generics)

	result := Aggregate(resolution.Accepted, resolution.Conflicts, unmatched, time.Since(start))

	if err := verifyPartition(tokens, result); err != nil {
		e.logger.Error("partition invariant violated",
			zap.Strings("tokens", Displays(tokens)),
			zap.Error(err))
		return nil, err
	}

	return result, nil
}

// checkContext returns the context error once the caller has given up
func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// IsClientError reports whether err was caused by the request itself
func IsClientError(err error) bool {
	return errors.Is(err, domain.ErrInvalidInput)
}

// Index returns the catalog index the engine matches against
func (e *Engine) Index() *Index {
	return e.index
}

// fingerprinter is implemented by generic lookups that can digest their content
type fingerprinter interface {
	Fingerprint() uint64
}

// Fingerprint identifies the catalog, generic table and scoring parameters a
// result depends on. A generic lookup that cannot digest its content
// contributes its size.
func (e *Engine) Fingerprint() string {
	var generics uint64
	switch g := e.generics.(type) {
	case nil:
	case fingerprinter:
		generics = g.Fingerprint()
	default:
		generics = uint64(g.Len())
	}

	return fmt.Sprintf("%016x:%016x:%g:%g:%g:%g:%t:%g",
		e.index.Fingerprint(),
		generics,
		e.scorer.acceptanceThreshold,
		e.scorer.coverageWeight,
		e.scorer.specificityWeight,
		e.tieTolerance,
		e.index.fuzzy.IsEnabled(),
		e.index.fuzzy.threshold)
}
