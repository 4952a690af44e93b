package usecase

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/incilens/backend/internal/domain"
)

// candidateFor builds a candidate for brand holding the given input names
func candidateFor(t *testing.T, idx *Index, brand string, names ...string) domain.MatchCandidate {
	t.Helper()
	for _, r := range idx.Records() {
		if r.BrandName != brand {
			continue
		}
		c := domain.MatchCandidate{Record: r}
		for i, name := range names {
			key := FoldKey(name)
			c.Matched = append(c.Matched, domain.MatchedToken{
				Input:        domain.INCIToken{Display: name, Key: key, Position: i},
				ComponentKey: key,
				Quality:      1.0,
			})
		}
		return c
	}
	t.Fatalf("brand %q not in catalog", brand)
	return domain.MatchCandidate{}
}

func TestNewScorerDefaults(t *testing.T) {
	idx := mustBuildIndex(t, testCatalog(), false)

	s := NewScorer(idx, ScorerConfig{})
	if s.AcceptanceThreshold() != 0.5 {
		t.Errorf("AcceptanceThreshold() = %v, want 0.5", s.AcceptanceThreshold())
	}
	if s.coverageWeight != 0.8 || s.specificityWeight != 0.2 {
		t.Errorf("weights = %v/%v, want 0.8/0.2", s.coverageWeight, s.specificityWeight)
	}
	if s.parallelThreshold != 64 {
		t.Errorf("parallelThreshold = %d, want 64", s.parallelThreshold)
	}

	normalized := NewScorer(idx, ScorerConfig{CoverageWeight: 3, SpecificityWeight: 1})
	if normalized.coverageWeight != 0.75 || normalized.specificityWeight != 0.25 {
		t.Errorf("weights = %v/%v, want 0.75/0.25", normalized.coverageWeight, normalized.specificityWeight)
	}
}

func TestScoreAllExplicitZeroThreshold(t *testing.T) {
	idx := mustBuildIndex(t, testCatalog(), false)
	candidates := []domain.MatchCandidate{candidateFor(t, idx, "Gamma Preserve", "Caprylyl Glycol")}

	dropped, err := NewScorer(idx, ScorerConfig{}).ScoreAll(context.Background(), candidates)
	if err != nil {
		t.Fatalf("ScoreAll() error = %v", err)
	}
	if len(dropped) != 0 {
		t.Errorf("default threshold kept %d candidates, want 0", len(dropped))
	}

	kept, err := NewScorer(idx, ScorerConfig{AcceptanceThreshold: Float(0)}).ScoreAll(context.Background(), candidates)
	if err != nil {
		t.Fatalf("ScoreAll() error = %v", err)
	}
	if len(kept) != 1 || kept[0].Confidence != 0.25 {
		t.Errorf("zero threshold = %+v, want the 0.25 candidate", kept)
	}
}

func TestScore(t *testing.T) {
	idx := mustBuildIndex(t, testCatalog(), false)
	s := NewScorer(idx, ScorerConfig{})

	tests := []struct {
		name        string
		brand       string
		inputs      []string
		coverage    float64
		specificity float64
		confidence  float64
	}{
		{
			name:        "full recipe of unique components",
			brand:       "Aquaxyl",
			inputs:      []string{"Xylitylglucoside", "Anhydroxylitol", "Xylitol"},
			coverage:    1.0,
			specificity: 1.0,
			confidence:  1.0,
		},
		{
			name:        "full recipe with a shared component",
			brand:       "Alpha Blend",
			inputs:      []string{"Sodium Hyaluronate", "Panthenol"},
			coverage:    1.0,
			specificity: 0.75,
			confidence:  0.95,
		},
		{
			name:        "three of four components",
			brand:       "Gamma Preserve",
			inputs:      []string{"Caprylyl Glycol", "Ethylhexylglycerin", "Hexylene Glycol"},
			coverage:    0.75,
			specificity: 0.75,
			confidence:  0.75,
		},
		{
			name:        "one of three components",
			brand:       "Aquaxyl",
			inputs:      []string{"Xylitol"},
			coverage:    1.0 / 3,
			specificity: 1.0 / 3,
			confidence:  0.333,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := candidateFor(t, idx, tt.brand, tt.inputs...)
			got := s.Score(&c)
			if got != tt.confidence || c.Confidence != tt.confidence {
				t.Errorf("Score() = %v, want %v", got, tt.confidence)
			}
			if math.Abs(c.Coverage-tt.coverage) > 1e-9 {
				t.Errorf("Coverage = %v, want %v", c.Coverage, tt.coverage)
			}
			if math.Abs(c.Specificity-tt.specificity) > 1e-9 {
				t.Errorf("Specificity = %v, want %v", c.Specificity, tt.specificity)
			}
		})
	}
}

func TestScoreBounds(t *testing.T) {
	idx := mustBuildIndex(t, testCatalog(), false)
	s := NewScorer(idx, ScorerConfig{CoverageWeight: 0.5, SpecificityWeight: 0.5})

	empty := domain.MatchCandidate{Record: idx.Records()[0]}
	if got := s.Score(&empty); got != 0 {
		t.Errorf("Score(no matches) = %v, want 0", got)
	}

	for _, r := range idx.Records() {
		names := make([]string, 0, len(r.Components))
		for _, comp := range r.Components {
			names = append(names, comp.Display)
		}
		c := candidateFor(t, idx, r.BrandName, names...)
		if got := s.Score(&c); got < 0 || got > 1 {
			t.Errorf("Score(%s) = %v, out of [0,1]", r.BrandName, got)
		}
	}
}

func TestScoreCoverageMonotonicity(t *testing.T) {
	idx := mustBuildIndex(t, testCatalog(), false)
	s := NewScorer(idx, ScorerConfig{})

	recipes := map[string][]string{
		"Gamma Preserve": {"Caprylyl Glycol", "Ethylhexylglycerin", "Hexylene Glycol", "Phenylpropanol"},
		"Alpha Blend":    {"Sodium Hyaluronate", "Panthenol"},
		"Beta Blend":     {"Allantoin", "Sodium Hyaluronate"},
	}

	for brand, recipe := range recipes {
		prev := -1.0
		for k := 1; k <= len(recipe); k++ {
			c := candidateFor(t, idx, brand, recipe[:k]...)
			got := s.Score(&c)
			if got < prev {
				t.Errorf("%s: confidence dropped from %v to %v after adding %q", brand, prev, got, recipe[k-1])
			}
			prev = got
		}
	}
}

func TestScoreAll(t *testing.T) {
	idx := mustBuildIndex(t, testCatalog(), false)

	candidates := []domain.MatchCandidate{
		candidateFor(t, idx, "Aquaxyl", "Xylitol"),
		candidateFor(t, idx, "Gamma Preserve", "Caprylyl Glycol", "Ethylhexylglycerin", "Hexylene Glycol"),
		candidateFor(t, idx, "Alpha Blend", "Sodium Hyaluronate", "Panthenol"),
	}

	sequential, err := NewScorer(idx, ScorerConfig{}).ScoreAll(context.Background(), candidates)
	if err != nil {
		t.Fatalf("ScoreAll() error = %v", err)
	}
	parallel, err := NewScorer(idx, ScorerConfig{ParallelThreshold: 1}).ScoreAll(context.Background(), candidates)
	if err != nil {
		t.Fatalf("ScoreAll(parallel) error = %v", err)
	}

	want := []string{"Gamma Preserve", "Alpha Blend"}
	for name, got := range map[string][]domain.MatchCandidate{"sequential": sequential, "parallel": parallel} {
		if len(got) != len(want) {
			t.Fatalf("%s: %d survivors, want %d", name, len(got), len(want))
		}
		for i, c := range got {
			if c.Record.BrandName != want[i] {
				t.Errorf("%s: survivor %d = %q, want %q", name, i, c.Record.BrandName, want[i])
			}
		}
	}

	if candidates[0].Confidence != 0 {
		t.Error("ScoreAll() mutated its input")
	}
}

func TestScoreAllCanceled(t *testing.T) {
	idx := mustBuildIndex(t, testCatalog(), false)
	s := NewScorer(idx, ScorerConfig{ParallelThreshold: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ScoreAll(ctx, []domain.MatchCandidate{candidateFor(t, idx, "Aquaxyl", "Xylitol")})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ScoreAll() error = %v, want context.Canceled", err)
	}
}
