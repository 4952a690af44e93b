package usecase

import (
	"regexp"
	"slices"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// Fuzzy matching defaults
const (
	defaultFuzzyThreshold = 0.92
	defaultMinFuzzyLength = 5 // Short names ("Aqua", "Mica") only match exactly
)

var digitRuns = regexp.MustCompile(`\d+`)

// FuzzyMatcher compares ingredient keys that differ by spelling variants
// ("tocopheryl acetate" / "tocopherol acetate").
type FuzzyMatcher struct {
	enabled   bool
	threshold float64
	minLength int
}

// NewFuzzyMatcher creates a matcher; an out-of-range threshold falls back to the default
func NewFuzzyMatcher(enabled bool, threshold float64) *FuzzyMatcher {
	if threshold <= 0 || threshold > 1 {
		threshold = defaultFuzzyThreshold
	}
	return &FuzzyMatcher{
		enabled:   enabled,
		threshold: threshold,
		minLength: defaultMinFuzzyLength,
	}
}

// IsEnabled reports whether fuzzy resolution is active
func (fm *FuzzyMatcher) IsEnabled() bool {
	return fm.enabled
}

// Similarity returns the Jaro-Winkler similarity between two keys (0.0-1.0)
func (fm *FuzzyMatcher) Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	score, err := edlib.StringsSimilarity(a, b, edlib.JaroWinkler)
	if err != nil {
		return 0.0
	}
	return float64(score)
}

// BestMatch finds the most similar vocabulary entry at or above the threshold.
// The vocabulary must be sorted so that ties resolve to the smallest key.
func (fm *FuzzyMatcher) BestMatch(key string, vocabulary []string) (string, float64, bool) {
	if !fm.enabled || utf8.RuneCountInString(key) < fm.minLength {
		return "", 0, false
	}

	best := ""
	bestScore := 0.0
	for _, candidate := range vocabulary {
		if !fm.comparable(key, candidate) {
			continue
		}
		score := fm.Similarity(key, candidate)
		if score > bestScore {
			best = candidate
			bestScore = score
		}
	}

	if best == "" || bestScore < fm.threshold {
		return "", 0, false
	}
	return best, bestScore, true
}

// comparable rejects pairs that must never match fuzzily before the similarity
// computation. Numbered variants (PEG-40 / PEG-60, Trideceth-5 / Trideceth-9)
// are distinct ingredients, so the digit runs of both keys must be identical.
func (fm *FuzzyMatcher) comparable(a, b string) bool {
	la := utf8.RuneCountInString(a)
	lb := utf8.RuneCountInString(b)
	if la < fm.minLength || lb < fm.minLength {
		return false
	}

	diff := la - lb
	if diff < 0 {
		diff = -diff
	}
	longest := max(la, lb)
	if diff*3 > longest {
		return false
	}
	return slices.Equal(digitRuns.FindAllString(a, -1), digitRuns.FindAllString(b, -1))
}
