package domain

// AnalysisRequest represents an INCI analysis request from the presentation layer
type AnalysisRequest struct {
	INCIList []string `json:"inci_list" binding:"required"`
}

// AnalysisResult is the complete, reconciled outcome of one analysis
type AnalysisResult struct {
	BrandedIngredients []BrandedIngredient   `json:"branded_ingredients"`
	UnmatchedINCI      []UnmatchedIngredient `json:"unmatched_inci"`
	Conflicts          []ConflictIngredient  `json:"conflicts"`
	OverallConfidence  float64               `json:"overall_confidence"` // 0-1
	ProcessingTime     float64               `json:"processing_time"`    // seconds
}

// BrandedIngredient is an accepted branded-complex match
type BrandedIngredient struct {
	BrandName        string   `json:"brand_name"`
	Supplier         string   `json:"supplier"`
	MatchedINCI      []string `json:"matched_inci"`
	ConfidenceScore  float64  `json:"confidence_score"`
	DocumentationURL string   `json:"documentation_url,omitempty"`
	Description      string   `json:"description,omitempty"`
}

// UnmatchedIngredient is a token classified as a generic/standalone ingredient
type UnmatchedIngredient struct {
	Name      string `json:"name"`
	CommonUse string `json:"common_use,omitempty"`
	Category  string `json:"category,omitempty"`
}

// ConflictIngredient is a token held back because its owner is ambiguous
type ConflictIngredient struct {
	INCIName       string   `json:"inci_name"`
	PossibleBrands []string `json:"possible_brands"`
	Context        string   `json:"context,omitempty"`
}

// CatalogStats summarizes the loaded knowledge base
type CatalogStats struct {
	Complexes          int    `json:"complexes"`
	DistinctComponents int    `json:"distinct_components"`
	GenericEntries     int    `json:"generic_entries"`
	Source             string `json:"source"`
}
