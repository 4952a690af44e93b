package usecase

import (
	"maps"
	"slices"
	"testing"

	"github.com/cespare/xxhash/v2"

	"github.com/incilens/backend/internal/domain"
)

// testCatalog is a small synthetic knowledge base
func testCatalog() []domain.RawComplex {
	return []domain.RawComplex{
		{
			BrandName:        "Aquaxyl",
			Supplier:         "Seppic",
			INCINames:        []string{"Xylitylglucoside", "Anhydroxylitol", "Xylitol"},
			Description:      "Moisturizing sugar complex",
			DocumentationURL: "https://example.com/aquaxyl",
		},
		{
			BrandName: "Alpha Blend",
			Supplier:  "Supplier One",
			INCINames: []string{"Sodium Hyaluronate", "Panthenol"},
		},
		{
			BrandName: "Beta Blend",
			Supplier:  "Supplier Two",
			INCINames: []string{"Sodium Hyaluronate", "Allantoin"},
		},
		{
			BrandName: "Gamma Preserve",
			Supplier:  "Supplier Three",
			INCINames: []string{"Caprylyl Glycol", "Ethylhexylglycerin", "Hexylene Glycol", "Phenylpropanol"},
		},
		{
			BrandName: "Vita E Oil",
			Supplier:  "Supplier Four",
			INCINames: []string{"Tocopheryl Acetate", "Helianthus Annuus Seed Oil"},
		},
	}
}

// stubGenerics is a map-backed generic lookup
type stubGenerics map[string]domain.GenericIngredient

func (s stubGenerics) Lookup(key string) (domain.GenericIngredient, bool) {
	g, ok := s[key]
	return g, ok
}

func (s stubGenerics) Len() int {
	return len(s)
}

func (s stubGenerics) Fingerprint() uint64 {
	d := xxhash.New()
	for _, key := range slices.Sorted(maps.Keys(s)) {
		d.WriteString(key + "\x1f" + s[key].Category + "\x1f" + s[key].CommonUse + "\x1e")
	}
	return d.Sum64()
}

func testGenerics() stubGenerics {
	return stubGenerics{
		"aqua":     {Name: "Aqua", Category: "Solvent", CommonUse: "Base solvent"},
		"glycerin": {Name: "Glycerin", Category: "Humectant", CommonUse: "Moisturizer"},
	}
}

func mustBuildIndex(t *testing.T, raw []domain.RawComplex, fuzzy bool) *Index {
	t.Helper()
	idx, err := BuildIndex(raw, IndexOptions{EnableFuzzyMatching: fuzzy, FuzzyThreshold: 0.92})
	if err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}
	return idx
}

func newTestEngine(t *testing.T, config EngineConfig) *Engine {
	t.Helper()
	return NewEngine(mustBuildIndex(t, testCatalog(), true), testGenerics(), config, nil)
}
