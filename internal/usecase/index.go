package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/incilens/backend/internal/domain"
)

// IndexOptions configures how input tokens are resolved against the catalog
type IndexOptions struct {
	EnableFuzzyMatching bool
	FuzzyThreshold      float64
}

// Index is the inverted knowledge-base index: component key -> complexes.
// It is immutable once built, so concurrent lookups need no locking.
type Index struct {
	records     []*domain.BrandedComplexRecord
	byComponent map[string][]*domain.BrandedComplexRecord
	vocabulary  []string
	fuzzy       *FuzzyMatcher
	fingerprint uint64
}

// BuildIndex normalizes catalog records and builds the inverted index.
// Fails with ErrKnowledgeBase on an empty catalog or a structurally invalid record.
func BuildIndex(raw []domain.RawComplex, opts IndexOptions) (*Index, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: catalog is empty", domain.ErrKnowledgeBase)
	}

	records := make([]*domain.BrandedComplexRecord, 0, len(raw))
	for i, rc := range raw {
		record, err := buildRecord(rc)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", domain.ErrKnowledgeBase, i, err)
		}
		records = append(records, record)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].BrandName != records[j].BrandName {
			return records[i].BrandName < records[j].BrandName
		}
		return records[i].Supplier < records[j].Supplier
	})

	byComponent := make(map[string][]*domain.BrandedComplexRecord)
	for _, record := range records {
		for _, c := range record.Components {
			byComponent[c.Key] = append(byComponent[c.Key], record)
		}
	}

	vocabulary := make([]string, 0, len(byComponent))
	for key := range byComponent {
		vocabulary = append(vocabulary, key)
	}
	sort.Strings(vocabulary)

	return &Index{
		records:     records,
		byComponent: byComponent,
		vocabulary:  vocabulary,
		fuzzy:       NewFuzzyMatcher(opts.EnableFuzzyMatching, opts.FuzzyThreshold),
		fingerprint: fingerprint(records),
	}, nil
}

// fingerprint hashes the normalized catalog content so cached results
// never outlive the catalog they were computed against
func fingerprint(records []*domain.BrandedComplexRecord) uint64 {
	d := xxhash.New()
	for _, r := range records {
		d.WriteString(r.BrandName)
		d.WriteString("\x1f")
		d.WriteString(r.Supplier)
		d.WriteString("\x1f")
		d.WriteString(r.Description)
		d.WriteString("\x1f")
		d.WriteString(r.DocumentationURL)
		d.WriteString("\x1f")
		keys := make([]string, 0, len(r.Components))
		for _, c := range r.Components {
			keys = append(keys, c.Key)
		}
		d.WriteString(strings.Join(keys, "\x1e"))
		d.WriteString("\x1d")
	}
	return d.Sum64()
}

// buildRecord validates one raw record and normalizes its components
func buildRecord(rc domain.RawComplex) (*domain.BrandedComplexRecord, error) {
	brand := cleanDisplay(rc.BrandName)
	if brand == "" {
		return nil, fmt.Errorf("brand name is empty")
	}

	components := make([]domain.INCIToken, 0, len(rc.INCINames))
	seen := make(map[string]bool, len(rc.INCINames))
	for _, name := range rc.INCINames {
		display := cleanDisplay(name)
		key := FoldKey(display)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		components = append(components, domain.INCIToken{Display: display, Key: key, Position: -1})
	}
	if len(components) == 0 {
		return nil, fmt.Errorf("complex %q has no components", brand)
	}

	return &domain.BrandedComplexRecord{
		BrandName:        brand,
		Supplier:         cleanDisplay(rc.Supplier),
		Components:       components,
		Description:      rc.Description,
		DocumentationURL: rc.DocumentationURL,
	}, nil
}

// CandidatesFor returns every complex containing the component key
func (idx *Index) CandidatesFor(key string) []*domain.BrandedComplexRecord {
	return idx.byComponent[key]
}

// Share returns how many complexes compete for a component key
func (idx *Index) Share(key string) int {
	return len(idx.byComponent[key])
}

// Resolve maps an input token onto a catalog component key.
// Exact keys resolve with quality 1; otherwise the fuzzy matcher may propose one.
func (idx *Index) Resolve(key string) (string, float64, bool) {
	if _, ok := idx.byComponent[key]; ok {
		return key, 1.0, true
	}
	return idx.fuzzy.BestMatch(key, idx.vocabulary)
}

// Records returns the indexed complexes sorted by brand name
func (idx *Index) Records() []*domain.BrandedComplexRecord {
	return idx.records
}

// Len returns the number of indexed complexes
func (idx *Index) Len() int {
	return len(idx.records)
}

// Fingerprint identifies the catalog content
func (idx *Index) Fingerprint() uint64 {
	return idx.fingerprint
}

// Vocabulary returns the sorted distinct component keys
func (idx *Index) Vocabulary() []string {
	return idx.vocabulary
}
