package usecase

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/incilens/backend/internal/domain"
)

// Scoring defaults
const (
	defaultAcceptanceThreshold = 0.5
	defaultCoverageWeight      = 0.8
	defaultSpecificityWeight   = 0.2
	defaultParallelThreshold   = 64
	maxScoringWorkers          = 8
)

// ScorerConfig holds the tunable parameters of the confidence scorer
type ScorerConfig struct {
	AcceptanceThreshold *float64 // nil selects the default
	CoverageWeight      float64
	SpecificityWeight   float64
	ParallelThreshold   int // Candidate count from which scoring runs concurrently
}

// Scorer computes confidence from recipe coverage and token specificity
type Scorer struct {
	index               *Index
	acceptanceThreshold float64
	coverageWeight      float64
	specificityWeight   float64
	parallelThreshold   int
}

// NewScorer creates a scorer. An unset threshold and non-positive weights or
// parallelism fall back to defaults.
func NewScorer(index *Index, config ScorerConfig) *Scorer {
	threshold := defaultAcceptanceThreshold
	if config.AcceptanceThreshold != nil {
		threshold = *config.AcceptanceThreshold
	}

	cw, sw := config.CoverageWeight, config.SpecificityWeight
	if cw <= 0 && sw <= 0 {
		cw, sw = defaultCoverageWeight, defaultSpecificityWeight
	}
	cw, sw = math.Max(cw, 0), math.Max(sw, 0)
	total := cw + sw

	parallel := config.ParallelThreshold
	if parallel <= 0 {
		parallel = defaultParallelThreshold
	}

	return &Scorer{
		index:               index,
		acceptanceThreshold: threshold,
		coverageWeight:      cw / total,
		specificityWeight:   sw / total,
		parallelThreshold:   parallel,
	}
}

// Score fills in the candidate's signals and returns its confidence in [0,1].
//
//	coverage    = sum(quality) / |recipe|
//	specificity = sum(quality / share) / |recipe|
//
// share is the number of complexes in the whole catalog containing the token,
// not the number of candidates competing for it in this request, so a score
// depends only on the catalog and the candidate's own matches. Tokens common
// to many recipes are weaker evidence. Both signals only grow when another
// matching token is added.
func (s *Scorer) Score(c *domain.MatchCandidate) float64 {
	n := float64(c.Record.ComponentCount())
	if n == 0 || len(c.Matched) == 0 {
		c.Coverage, c.Specificity, c.Confidence = 0, 0, 0
		return 0
	}

	cov, spec := 0.0, 0.0
	for _, m := range c.Matched {
		cov += m.Quality
		share := s.index.Share(m.ComponentKey)
		if share < 1 {
			share = 1
		}
		spec += m.Quality / float64(share)
	}

	c.Coverage = clamp01(cov / n)
	c.Specificity = clamp01(spec / n)
	c.Confidence = round3(clamp01(s.coverageWeight*c.Coverage + s.specificityWeight*c.Specificity))
	return c.Confidence
}

// ScoreAll scores every candidate and drops those below the acceptance threshold.
// The input order is preserved in the output regardless of concurrency.
func (s *Scorer) ScoreAll(ctx context.Context, candidates []domain.MatchCandidate) ([]domain.MatchCandidate, error) {
	scored := make([]domain.MatchCandidate, len(candidates))
	copy(scored, candidates)

	if len(scored) >= s.parallelThreshold {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxScoringWorkers)
		for i := range scored {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				s.Score(&scored[i])
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range scored {
			s.Score(&scored[i])
		}
	}

	survivors := scored[:0]
	for _, c := range scored {
		if c.Confidence >= s.acceptanceThreshold {
			survivors = append(survivors, c)
		}
	}
	return survivors, nil
}

// AcceptanceThreshold returns the minimum confidence a candidate needs
func (s *Scorer) AcceptanceThreshold() float64 {
	return s.acceptanceThreshold
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
