package domain

// INCIToken is a normalized ingredient name from an input list or a catalog recipe
type INCIToken struct {
	Display  string `json:"display"`  // Trimmed, whitespace-collapsed original text
	Key      string `json:"key"`      // Case-folded, diacritic-free comparison form
	Position int    `json:"position"` // Index in the normalized input; -1 for catalog components
}

// BrandedComplexRecord is a supplier's proprietary blend and its full INCI recipe
type BrandedComplexRecord struct {
	BrandName        string      `json:"brand_name"`
	Supplier         string      `json:"supplier"`
	Components       []INCIToken `json:"components"`
	Description      string      `json:"description,omitempty"`
	DocumentationURL string      `json:"documentation_url,omitempty"`
}

// ComponentCount returns the size of the complex's recipe
func (r *BrandedComplexRecord) ComponentCount() int {
	return len(r.Components)
}

// MatchedToken links an input token to the catalog component it resolved to
type MatchedToken struct {
	Input        INCIToken
	ComponentKey string
	Quality      float64 // 1.0 for exact matches, similarity for fuzzy ones
}

// MatchCandidate is a complex whose recipe intersects the input.
// It only lives for the duration of one analysis.
type MatchCandidate struct {
	Record      *BrandedComplexRecord
	Matched     []MatchedToken
	Coverage    float64
	Specificity float64
	Confidence  float64
}

// MatchedKeys returns the input keys held by the candidate, in input order
func (c *MatchCandidate) MatchedKeys() []string {
	keys := make([]string, 0, len(c.Matched))
	for _, m := range c.Matched {
		keys = append(keys, m.Input.Key)
	}
	return keys
}

// GenericIngredient is a reference entry used to annotate unmatched tokens
type GenericIngredient struct {
	Name      string `json:"name" yaml:"name"`
	Category  string `json:"category,omitempty" yaml:"category,omitempty"`
	CommonUse string `json:"common_use,omitempty" yaml:"common_use,omitempty"`
}
