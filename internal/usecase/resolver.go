package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/incilens/backend/internal/domain"
)

const (
	defaultTieTolerance = 0.05
	toleranceEpsilon    = 1e-9
)

// Resolution partitions the input tokens after conflict resolution
type Resolution struct {
	Accepted  []domain.MatchCandidate // Matched narrowed to the tokens each complex claimed
	Conflicts []domain.ConflictIngredient
	Unmatched []domain.INCIToken
}

// ResolveConflicts runs the greedy-with-tolerance assignment.
//
// A token held by two or more candidates whose confidences lie within
// tolerance of the best holder becomes a conflict and is assigned to nobody.
// A zero tolerance flags exact ties only; a negative one selects the default.
// Candidates are then accepted in rank order as long as none of their
// remaining tokens was already claimed by a higher-ranked acceptance.
func ResolveConflicts(candidates []domain.MatchCandidate, tokens []domain.INCIToken, tolerance float64) Resolution {
	if tolerance < 0 {
		tolerance = defaultTieTolerance
	}

	ranked := make([]domain.MatchCandidate, len(candidates))
	copy(ranked, candidates)
	sortByConfidence(ranked)

	holders := make(map[string][]int)
	for i := range ranked {
		for _, key := range ranked[i].MatchedKeys() {
			holders[key] = append(holders[key], i)
		}
	}

	conflictKeys := make(map[string]bool)
	var conflicts []domain.ConflictIngredient
	for _, t := range tokens {
		h := holders[t.Key]
		if len(h) < 2 {
			continue
		}
		best := ranked[h[0]].Confidence
		if best-ranked[h[1]].Confidence > tolerance+toleranceEpsilon {
			continue
		}
		conflictKeys[t.Key] = true
		conflicts = append(conflicts, buildConflict(t, ranked, h, best, tolerance))
	}

	claimed := make(map[string]bool)
	var accepted []domain.MatchCandidate
	for _, c := range ranked {
		var claim []domain.MatchedToken
		blocked := false
		for _, m := range c.Matched {
			if conflictKeys[m.Input.Key] {
				continue
			}
			if claimed[m.Input.Key] {
				blocked = true
				break
			}
			claim = append(claim, m)
		}
		if blocked || len(claim) == 0 {
			continue
		}
		for _, m := range claim {
			claimed[m.Input.Key] = true
		}
		c.Matched = claim
		accepted = append(accepted, c)
	}

	var unmatched []domain.INCIToken
	for _, t := range tokens {
		if !claimed[t.Key] && !conflictKeys[t.Key] {
			unmatched = append(unmatched, t)
		}
	}

	return Resolution{
		Accepted:  accepted,
		Conflicts: conflicts,
		Unmatched: unmatched,
	}
}

// buildConflict lists every brand within tolerance of the best holder
func buildConflict(t domain.INCIToken, ranked []domain.MatchCandidate, holders []int, best, tolerance float64) domain.ConflictIngredient {
	var brands []string
	seen := make(map[string]bool)
	low := best
	for _, i := range holders {
		conf := ranked[i].Confidence
		if best-conf > tolerance+toleranceEpsilon {
			break
		}
		low = conf
		name := ranked[i].Record.BrandName
		if !seen[name] {
			seen[name] = true
			brands = append(brands, name)
		}
	}

	return domain.ConflictIngredient{
		INCIName:       t.Display,
		PossibleBrands: brands,
		Context: fmt.Sprintf("Ingredient used in %d branded complexes with near-equal confidence (%.2f-%.2f): %s",
			len(brands), low, best, strings.Join(brands, ", ")),
	}
}

// sortByConfidence ranks candidates by confidence, then by recipe size and name
func sortByConfidence(candidates []domain.MatchCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := &candidates[i], &candidates[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return recordLess(a.Record, b.Record)
	})
}

// ClassifyUnmatched annotates leftover tokens from the generic reference table
func ClassifyUnmatched(tokens []domain.INCIToken, lookup domain.GenericLookup) []domain.UnmatchedIngredient {
	out := make([]domain.UnmatchedIngredient, 0, len(tokens))
	for _, t := range tokens {
		item := domain.UnmatchedIngredient{Name: t.Display}
		if lookup != nil {
			if g, ok := lookup.Lookup(t.Key); ok {
				item.Category = g.Category
				item.CommonUse = g.CommonUse
			}
		}
		out = append(out, item)
	}
	return out
}

// verifyPartition checks that every token appears in exactly one output list
func verifyPartition(tokens []domain.INCIToken, result *domain.AnalysisResult) error {
	counts := make(map[string]int, len(tokens))
	for _, b := range result.BrandedIngredients {
		for _, name := range b.MatchedINCI {
			counts[name]++
		}
	}
	for _, u := range result.UnmatchedINCI {
		counts[u.Name]++
	}
	for _, c := range result.Conflicts {
		counts[c.INCIName]++
	}

	for _, t := range tokens {
		if n := counts[t.Display]; n != 1 {
			return fmt.Errorf("%w: token %q classified %d times", domain.ErrInternalMatching, t.Display, n)
		}
		delete(counts, t.Display)
	}
	for name := range counts {
		return fmt.Errorf("%w: unknown token %q in result", domain.ErrInternalMatching, name)
	}
	return nil
}
