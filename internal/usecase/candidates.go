package usecase

import (
	"sort"

	"github.com/incilens/backend/internal/domain"
)

// resolvedToken is an input token mapped onto a catalog component
type resolvedToken struct {
	token        domain.INCIToken
	componentKey string
	quality      float64
}

// GenerateCandidates proposes every complex whose recipe intersects the input.
// Partial coverage is kept; the scorer ranks it lower instead of rejecting it.
func GenerateCandidates(tokens []domain.INCIToken, idx *Index) []domain.MatchCandidate {
	resolved := resolveTokens(tokens, idx)

	byRecord := make(map[*domain.BrandedComplexRecord]int)
	var candidates []domain.MatchCandidate

	for _, rt := range resolved {
		for _, record := range idx.CandidatesFor(rt.componentKey) {
			pos, ok := byRecord[record]
			if !ok {
				pos = len(candidates)
				byRecord[record] = pos
				candidates = append(candidates, domain.MatchCandidate{Record: record})
			}
			candidates[pos].Matched = append(candidates[pos].Matched, domain.MatchedToken{
				Input:        rt.token,
				ComponentKey: rt.componentKey,
				Quality:      rt.quality,
			})
		}
	}

	for i := range candidates {
		c := &candidates[i]
		sort.Slice(c.Matched, func(a, b int) bool {
			return c.Matched[a].Input.Position < c.Matched[b].Input.Position
		})
		c.Coverage = coverage(c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := &candidates[i], &candidates[j]
		if a.Coverage != b.Coverage {
			return a.Coverage > b.Coverage
		}
		return recordLess(a.Record, b.Record)
	})

	return candidates
}

// resolveTokens assigns each component key to at most one input token.
// Exact matches claim first so a fuzzy variant never displaces the real name.
func resolveTokens(tokens []domain.INCIToken, idx *Index) []resolvedToken {
	claimed := make(map[string]bool, len(tokens))
	resolved := make([]resolvedToken, 0, len(tokens))
	var pending []domain.INCIToken

	for _, t := range tokens {
		if idx.Share(t.Key) > 0 && !claimed[t.Key] {
			claimed[t.Key] = true
			resolved = append(resolved, resolvedToken{token: t, componentKey: t.Key, quality: 1.0})
			continue
		}
		pending = append(pending, t)
	}

	for _, t := range pending {
		key, quality, ok := idx.Resolve(t.Key)
		if !ok || claimed[key] {
			continue
		}
		claimed[key] = true
		resolved = append(resolved, resolvedToken{token: t, componentKey: key, quality: quality})
	}

	sort.Slice(resolved, func(i, j int) bool {
		return resolved[i].token.Position < resolved[j].token.Position
	})
	return resolved
}

// coverage is the quality-weighted fraction of the recipe present in the input
func coverage(c *domain.MatchCandidate) float64 {
	n := c.Record.ComponentCount()
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, m := range c.Matched {
		sum += m.Quality
	}
	return clamp01(sum / float64(n))
}

// recordLess orders complexes by specificity of the recipe, then by name
func recordLess(a, b *domain.BrandedComplexRecord) bool {
	if a.ComponentCount() != b.ComponentCount() {
		return a.ComponentCount() > b.ComponentCount()
	}
	if a.BrandName != b.BrandName {
		return a.BrandName < b.BrandName
	}
	return a.Supplier < b.Supplier
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
