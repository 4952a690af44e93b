package usecase

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/incilens/backend/internal/domain"
)

// Compiled patterns for token cleanup
var (
	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// edgeMarkers are label decorations stripped from both ends of an item
// ("Glycerin*" for organic origin, "Xylitol." at the end of a label).
const edgeMarkers = " \t\r\n.*"

// Normalizer turns raw INCI list items into comparable tokens
type Normalizer struct {
	logger *zap.Logger
	debug  bool
}

// NewNormalizer creates a new normalizer
func NewNormalizer(logger *zap.Logger, enableDebugLogging bool) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{
		logger: logger.Named("normalizer"),
		debug:  enableDebugLogging,
	}
}

// Normalize splits, cleans and deduplicates a raw ingredient list.
// Input order is preserved; the first occurrence of a key wins.
func (n *Normalizer) Normalize(raw []string) ([]domain.INCIToken, error) {
	tokens := make([]domain.INCIToken, 0, len(raw))
	seen := make(map[string]bool, len(raw))

	for _, item := range raw {
		for _, part := range SplitItems(item) {
			display := cleanDisplay(part)
			if display == "" {
				continue
			}
			key := FoldKey(display)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			tokens = append(tokens, domain.INCIToken{
				Display:  display,
				Key:      key,
				Position: len(tokens),
			})
		}
	}

	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: at least one ingredient is required", domain.ErrInvalidInput)
	}

	if n.debug {
		n.logger.Debug("normalized ingredient list",
			zap.Int("raw_items", len(raw)),
			zap.Int("tokens", len(tokens)))
	}

	return tokens, nil
}

// Displays returns the display form of each token, in order
func Displays(tokens []domain.INCIToken) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Display
	}
	return out
}

// SplitItems splits one raw item on label delimiters.
// A comma between two digits belongs to a chemical locant ("1,2-Hexanediol").
func SplitItems(item string) []string {
	r := []rune(item)
	var parts []string
	start := 0

	for i, c := range r {
		delimiter := false
		switch c {
		case ';', '\n', '\r':
			delimiter = true
		case ',':
			betweenDigits := i > 0 && i < len(r)-1 && unicode.IsDigit(r[i-1]) && unicode.IsDigit(r[i+1])
			delimiter = !betweenDigits
		}
		if delimiter {
			parts = append(parts, string(r[start:i]))
			start = i + 1
		}
	}
	parts = append(parts, string(r[start:]))

	return parts
}

// cleanDisplay trims edge markers and collapses internal whitespace
func cleanDisplay(s string) string {
	s = multiSpacePattern.ReplaceAllString(s, " ")
	return strings.Trim(s, edgeMarkers)
}

// FoldKey computes the comparison form of an ingredient name:
// diacritics removed, case folded, whitespace collapsed.
func FoldKey(s string) string {
	// Transformers and casers keep state, so they are built per call
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	folded := cases.Fold().String(stripped)
	folded = multiSpacePattern.ReplaceAllString(folded, " ")
	return strings.TrimSpace(folded)
}
