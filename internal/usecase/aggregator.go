package usecase

import (
	"math"
	"time"

	"github.com/incilens/backend/internal/domain"
)

// Aggregate assembles the final result.
// overall_confidence weighs each accepted match by the number of tokens it claimed.
func Aggregate(
	accepted []domain.MatchCandidate,
	conflicts []domain.ConflictIngredient,
	unmatched []domain.UnmatchedIngredient,
	elapsed time.Duration,
) *domain.AnalysisResult {
	branded := make([]domain.BrandedIngredient, 0, len(accepted))
	weighted, weight := 0.0, 0.0

	for _, c := range accepted {
		matched := make([]string, 0, len(c.Matched))
		for _, m := range c.Matched {
			matched = append(matched, m.Input.Display)
		}
		branded = append(branded, domain.BrandedIngredient{
			BrandName:        c.Record.BrandName,
			Supplier:         c.Record.Supplier,
			MatchedINCI:      matched,
			ConfidenceScore:  c.Confidence,
			DocumentationURL: c.Record.DocumentationURL,
			Description:      c.Record.Description,
		})
		weighted += c.Confidence * float64(len(matched))
		weight += float64(len(matched))
	}

	overall := 0.0
	if weight > 0 {
		overall = round3(clamp01(weighted / weight))
	}

	if conflicts == nil {
		conflicts = []domain.ConflictIngredient{}
	}
	if unmatched == nil {
		unmatched = []domain.UnmatchedIngredient{}
	}

	return &domain.AnalysisResult{
		BrandedIngredients: branded,
		UnmatchedINCI:      unmatched,
		Conflicts:          conflicts,
		OverallConfidence:  overall,
		ProcessingTime:     roundSeconds(elapsed),
	}
}

// roundSeconds reports a duration in seconds with 0.1ms resolution
func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*1e4) / 1e4
}
