package usecase

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/incilens/backend/internal/domain"
)

func TestEngineAnalyzeExamples(t *testing.T) {
	engine := newTestEngine(t, EngineConfig{})
	ctx := context.Background()

	t.Run("complete recipe is one confident match", func(t *testing.T) {
		result, err := engine.Analyze(ctx, []string{"Xylitylglucoside", "Anhydroxylitol", "Xylitol"})
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		if len(result.BrandedIngredients) != 1 {
			t.Fatalf("branded = %+v, want one match", result.BrandedIngredients)
		}
		match := result.BrandedIngredients[0]
		if match.BrandName != "Aquaxyl" || match.Supplier != "Seppic" {
			t.Errorf("match = %s/%s, want Aquaxyl/Seppic", match.BrandName, match.Supplier)
		}
		if !reflect.DeepEqual(match.MatchedINCI, []string{"Xylitylglucoside", "Anhydroxylitol", "Xylitol"}) {
			t.Errorf("matched_inci = %v", match.MatchedINCI)
		}
		if match.ConfidenceScore != 1.0 || result.OverallConfidence != 1.0 {
			t.Errorf("confidence = %v overall = %v, want 1.0", match.ConfidenceScore, result.OverallConfidence)
		}
		if match.DocumentationURL == "" || match.Description == "" {
			t.Error("catalog metadata not carried into the match")
		}
		if len(result.UnmatchedINCI) != 0 || len(result.Conflicts) != 0 {
			t.Errorf("unmatched = %v conflicts = %v, want none", result.UnmatchedINCI, result.Conflicts)
		}
	})

	t.Run("single component below threshold stays unmatched", func(t *testing.T) {
		result, err := engine.Analyze(ctx, []string{"Xylitol"})
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		if len(result.BrandedIngredients) != 0 {
			t.Errorf("branded = %+v, want none", result.BrandedIngredients)
		}
		if len(result.UnmatchedINCI) != 1 || result.UnmatchedINCI[0].Name != "Xylitol" {
			t.Errorf("unmatched = %+v, want [Xylitol]", result.UnmatchedINCI)
		}
		if result.OverallConfidence != 0 {
			t.Errorf("overall = %v, want 0", result.OverallConfidence)
		}
	})

	t.Run("shared token at near-equal confidence is a conflict", func(t *testing.T) {
		result, err := engine.Analyze(ctx, []string{"Sodium Hyaluronate", "Panthenol", "Allantoin"})
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		if len(result.Conflicts) != 1 {
			t.Fatalf("conflicts = %+v, want one", result.Conflicts)
		}
		conflict := result.Conflicts[0]
		if conflict.INCIName != "Sodium Hyaluronate" {
			t.Errorf("conflict token = %q", conflict.INCIName)
		}
		if !reflect.DeepEqual(conflict.PossibleBrands, []string{"Alpha Blend", "Beta Blend"}) {
			t.Errorf("possible brands = %v", conflict.PossibleBrands)
		}
		for _, b := range result.BrandedIngredients {
			for _, name := range b.MatchedINCI {
				if name == "Sodium Hyaluronate" {
					t.Errorf("%s claims the conflict token", b.BrandName)
				}
			}
		}
		if result.OverallConfidence != 0.95 {
			t.Errorf("overall = %v, want 0.95", result.OverallConfidence)
		}
	})

	t.Run("empty list is invalid input", func(t *testing.T) {
		result, err := engine.Analyze(ctx, []string{})
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("Analyze() error = %v, want ErrInvalidInput", err)
		}
		if result != nil {
			t.Errorf("result = %+v, want nil", result)
		}
		if !IsClientError(err) {
			t.Error("IsClientError() = false for invalid input")
		}
	})

	t.Run("only unknown tokens", func(t *testing.T) {
		result, err := engine.Analyze(ctx, []string{"Aqua", "Glycerin", "Parfum"})
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		if len(result.BrandedIngredients) != 0 || result.OverallConfidence != 0 {
			t.Errorf("branded = %+v overall = %v, want none and 0", result.BrandedIngredients, result.OverallConfidence)
		}
		want := []domain.UnmatchedIngredient{
			{Name: "Aqua", Category: "Solvent", CommonUse: "Base solvent"},
			{Name: "Glycerin", Category: "Humectant", CommonUse: "Moisturizer"},
			{Name: "Parfum"},
		}
		if !reflect.DeepEqual(result.UnmatchedINCI, want) {
			t.Errorf("unmatched = %+v, want %+v", result.UnmatchedINCI, want)
		}
	})
}

func TestEngineFuzzyMatch(t *testing.T) {
	engine := newTestEngine(t, EngineConfig{})

	result, err := engine.Analyze(context.Background(), []string{"Tocopherol Acetate", "Helianthus Annuus Seed Oil"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(result.BrandedIngredients) != 1 || result.BrandedIngredients[0].BrandName != "Vita E Oil" {
		t.Fatalf("branded = %+v, want Vita E Oil", result.BrandedIngredients)
	}
	match := result.BrandedIngredients[0]
	if !reflect.DeepEqual(match.MatchedINCI, []string{"Tocopherol Acetate", "Helianthus Annuus Seed Oil"}) {
		t.Errorf("matched_inci = %v, want input spellings", match.MatchedINCI)
	}
	if match.ConfidenceScore >= 1.0 || match.ConfidenceScore < 0.9 {
		t.Errorf("confidence = %v, want discounted below 1", match.ConfidenceScore)
	}
}

func TestEngineFuzzyKeepsNumberedVariantsApart(t *testing.T) {
	index := mustBuildIndex(t, []domain.RawComplex{{
		BrandName: "Solubilizer",
		Supplier:  "Supplier Five",
		INCINames: []string{"PEG-40 Hydrogenated Castor Oil", "Trideceth-9"},
	}}, true)
	engine := NewEngine(index, nil, EngineConfig{}, nil)

	result, err := engine.Analyze(context.Background(), []string{"PEG-60 Hydrogenated Castor Oil", "Trideceth-5"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(result.BrandedIngredients) != 0 {
		t.Errorf("branded = %+v, want none", result.BrandedIngredients)
	}
	var unmatched []string
	for _, u := range result.UnmatchedINCI {
		unmatched = append(unmatched, u.Name)
	}
	if want := []string{"PEG-60 Hydrogenated Castor Oil", "Trideceth-5"}; !reflect.DeepEqual(unmatched, want) {
		t.Errorf("unmatched = %v, want %v", unmatched, want)
	}
}

func TestEnginePartitionInvariant(t *testing.T) {
	engine := newTestEngine(t, EngineConfig{})

	inputs := [][]string{
		{"Aqua", "Xylitylglucoside", "Anhydroxylitol", "Xylitol", "Glycerin"},
		{"Sodium Hyaluronate", "Panthenol", "Allantoin", "Caprylyl Glycol", "Ethylhexylglycerin", "Hexylene Glycol"},
		{"Panthenol", "Sodium Hyaluronate"},
		{"Phenylpropanol", "Xylitol", "Allantoin", "Parfum", "aqua", "AQUA"},
		{"Caprylyl Glycol, Ethylhexylglycerin; Hexylene Glycol", "Phenylpropanol."},
	}

	for _, input := range inputs {
		result, err := engine.Analyze(context.Background(), input)
		if err != nil {
			t.Fatalf("Analyze(%v) error = %v", input, err)
		}
		tokens, _ := engine.Normalize(input)

		seen := make(map[string]int)
		for _, b := range result.BrandedIngredients {
			for _, name := range b.MatchedINCI {
				seen[name]++
			}
			if b.ConfidenceScore < 0.5 || b.ConfidenceScore > 1 {
				t.Errorf("%v: %s confidence %v out of range", input, b.BrandName, b.ConfidenceScore)
			}
		}
		for _, u := range result.UnmatchedINCI {
			seen[u.Name]++
		}
		for _, c := range result.Conflicts {
			seen[c.INCIName]++
		}
		for _, tk := range tokens {
			if seen[tk.Display] != 1 {
				t.Errorf("%v: token %q appears %d times", input, tk.Display, seen[tk.Display])
			}
		}
		if len(seen) != len(tokens) {
			t.Errorf("%v: %d distinct names in result, want %d", input, len(seen), len(tokens))
		}
		if result.OverallConfidence < 0 || result.OverallConfidence > 1 {
			t.Errorf("%v: overall confidence %v out of range", input, result.OverallConfidence)
		}
	}
}

func TestEngineDeterminism(t *testing.T) {
	engine := newTestEngine(t, EngineConfig{ParallelThreshold: 1})
	input := []string{"Sodium Hyaluronate", "Panthenol", "Allantoin", "Caprylyl Glycol", "Ethylhexylglycerin", "Hexylene Glycol", "Aqua"}

	first, err := engine.Analyze(context.Background(), input)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	first.ProcessingTime = 0

	var wg sync.WaitGroup
	results := make([]*domain.AnalysisResult, 16)
	errs := make([]error, len(results))
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = engine.Analyze(context.Background(), input)
		}()
	}
	wg.Wait()

	for i, r := range results {
		if errs[i] != nil {
			t.Fatalf("run %d error = %v", i, errs[i])
		}
		r.ProcessingTime = 0
		if !reflect.DeepEqual(first, r) {
			t.Errorf("run %d differs:\n got  %+v\n want %+v", i, r, first)
		}
	}
}

func TestEngineOrderIndependentMatches(t *testing.T) {
	engine := newTestEngine(t, EngineConfig{})

	forward := []string{"Xylitylglucoside", "Anhydroxylitol", "Xylitol", "Panthenol", "Sodium Hyaluronate"}
	reversed := []string{"Sodium Hyaluronate", "Panthenol", "Xylitol", "Anhydroxylitol", "Xylitylglucoside"}

	a, err := engine.Analyze(context.Background(), forward)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	b, err := engine.Analyze(context.Background(), reversed)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	brands := func(r *domain.AnalysisResult) map[string]float64 {
		out := make(map[string]float64)
		for _, m := range r.BrandedIngredients {
			out[m.BrandName] = m.ConfidenceScore
		}
		return out
	}
	if !reflect.DeepEqual(brands(a), brands(b)) {
		t.Errorf("matches depend on input order: %v vs %v", brands(a), brands(b))
	}
}

func TestEngineCanceledContext(t *testing.T) {
	engine := newTestEngine(t, EngineConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := engine.Analyze(ctx, []string{"Xylitol"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Analyze() error = %v, want context.Canceled", err)
	}
}

func TestEngineExplicitZeroTieTolerance(t *testing.T) {
	index := mustBuildIndex(t, []domain.RawComplex{
		{BrandName: "Hydra Duo", Supplier: "Supplier One", INCINames: []string{"Sodium Hyaluronate", "Panthenol"}},
		{BrandName: "Hydra Trio", Supplier: "Supplier Two", INCINames: []string{"Sodium Hyaluronate", "Allantoin", "Betaine"}},
	}, false)
	input := []string{"Sodium Hyaluronate", "Panthenol", "Allantoin", "Betaine"}
	weights := EngineConfig{CoverageWeight: 0.88, SpecificityWeight: 0.12}

	// Hydra Trio scores 0.98 and Hydra Duo 0.97
	withDefault := NewEngine(index, nil, weights, nil)
	result, err := withDefault.Analyze(context.Background(), input)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(result.Conflicts) != 1 || result.Conflicts[0].INCIName != "Sodium Hyaluronate" {
		t.Errorf("default tolerance conflicts = %+v, want Sodium Hyaluronate", result.Conflicts)
	}

	exact := weights
	exact.TieTolerance = Float(0)
	result, err = NewEngine(index, nil, exact, nil).Analyze(context.Background(), input)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(result.Conflicts) != 0 {
		t.Errorf("zero tolerance conflicts = %+v, want none", result.Conflicts)
	}
	if len(result.BrandedIngredients) != 1 {
		t.Fatalf("branded = %+v, want Hydra Trio only", result.BrandedIngredients)
	}
	trio := result.BrandedIngredients[0]
	if trio.BrandName != "Hydra Trio" || trio.ConfidenceScore != 0.98 {
		t.Errorf("branded = %+v, want Hydra Trio at 0.98", trio)
	}
	if !reflect.DeepEqual(trio.MatchedINCI, []string{"Sodium Hyaluronate", "Allantoin", "Betaine"}) {
		t.Errorf("matched_inci = %v", trio.MatchedINCI)
	}
}

func TestEngineFingerprint(t *testing.T) {
	a := newTestEngine(t, EngineConfig{})
	b := newTestEngine(t, EngineConfig{})
	c := newTestEngine(t, EngineConfig{AcceptanceThreshold: Float(0.7)})

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("identical engines have different fingerprints")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("fingerprint ignores the acceptance threshold")
	}

	generics := testGenerics()
	generics["aqua"] = domain.GenericIngredient{Name: "Aqua", Category: "Solvent", CommonUse: "Purified water"}
	d := NewEngine(mustBuildIndex(t, testCatalog(), true), generics, EngineConfig{}, nil)
	if a.Fingerprint() == d.Fingerprint() {
		t.Error("fingerprint ignores the generic table")
	}
}

func TestAggregate(t *testing.T) {
	record := &domain.BrandedComplexRecord{BrandName: "X", Supplier: "S", Components: make([]domain.INCIToken, 3)}
	accepted := []domain.MatchCandidate{
		{Record: record, Confidence: 0.9, Matched: []domain.MatchedToken{{Input: tok("A", 0)}, {Input: tok("B", 1)}}},
		{Record: record, Confidence: 0.6, Matched: []domain.MatchedToken{{Input: tok("C", 2)}}},
	}

	result := Aggregate(accepted, nil, nil, 0)

	if result.OverallConfidence != 0.8 {
		t.Errorf("overall = %v, want 0.8", result.OverallConfidence)
	}
	if result.Conflicts == nil || result.UnmatchedINCI == nil {
		t.Error("empty lists must not be nil")
	}

	empty := Aggregate(nil, nil, nil, 0)
	if empty.BrandedIngredients == nil || empty.OverallConfidence != 0 {
		t.Errorf("empty aggregate = %+v", empty)
	}
}
