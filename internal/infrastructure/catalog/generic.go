package catalog

import (
	"maps"
	"slices"

	"github.com/cespare/xxhash/v2"

	"github.com/incilens/backend/internal/domain"
	"github.com/incilens/backend/internal/usecase"
)

// defaultGenerics covers common label bases so unmatched tokens get context
// even when the catalog ships no reference table
var defaultGenerics = []domain.GenericIngredient{
	{Name: "Aqua", Category: "Solvent", CommonUse: "Base solvent"},
	{Name: "Water", Category: "Solvent", CommonUse: "Base solvent"},
	{Name: "Glycerin", Category: "Humectant", CommonUse: "Moisturizer"},
	{Name: "Butylene Glycol", Category: "Humectant", CommonUse: "Moisturizer and solvent"},
	{Name: "Propanediol", Category: "Humectant", CommonUse: "Moisturizer and solvent"},
	{Name: "Phenoxyethanol", Category: "Preservative", CommonUse: "Broad-spectrum preservative"},
	{Name: "Sodium Benzoate", Category: "Preservative", CommonUse: "Antifungal preservative"},
	{Name: "Potassium Sorbate", Category: "Preservative", CommonUse: "Antifungal preservative"},
	{Name: "Carbomer", Category: "Thickener", CommonUse: "Gel former"},
	{Name: "Xanthan Gum", Category: "Thickener", CommonUse: "Natural gum thickener"},
	{Name: "Sodium Hydroxide", Category: "pH Adjuster", CommonUse: "Neutralizer"},
	{Name: "Citric Acid", Category: "pH Adjuster", CommonUse: "Acidifier and chelator"},
	{Name: "Disodium EDTA", Category: "Chelating Agent", CommonUse: "Stabilizer"},
	{Name: "Parfum", Category: "Fragrance", CommonUse: "Scent"},
	{Name: "Fragrance", Category: "Fragrance", CommonUse: "Scent"},
	{Name: "Dimethicone", Category: "Emollient", CommonUse: "Silicone conditioner"},
	{Name: "Cetearyl Alcohol", Category: "Emulsifier", CommonUse: "Fatty alcohol thickener"},
	{Name: "Tocopherol", Category: "Antioxidant", CommonUse: "Vitamin E"},
}

// GenericTable maps ingredient keys onto reference entries.
// It is read-only after construction.
type GenericTable struct {
	entries     map[string]domain.GenericIngredient
	fingerprint uint64
}

// NewGenericTable builds a table from the defaults, overridden by entries
func NewGenericTable(entries []domain.GenericIngredient) *GenericTable {
	t := &GenericTable{entries: make(map[string]domain.GenericIngredient, len(defaultGenerics)+len(entries))}
	for _, g := range defaultGenerics {
		t.add(g)
	}
	for _, g := range entries {
		t.add(g)
	}
	t.fingerprint = t.hash()
	return t
}

// hash digests the entries in key order
func (t *GenericTable) hash() uint64 {
	d := xxhash.New()
	for _, key := range slices.Sorted(maps.Keys(t.entries)) {
		g := t.entries[key]
		d.WriteString(key)
		d.WriteString("\x1f")
		d.WriteString(g.Category)
		d.WriteString("\x1f")
		d.WriteString(g.CommonUse)
		d.WriteString("\x1e")
	}
	return d.Sum64()
}

func (t *GenericTable) add(g domain.GenericIngredient) {
	key := usecase.FoldKey(g.Name)
	if key == "" {
		return
	}
	t.entries[key] = g
}

// Lookup finds the reference entry for a folded key
func (t *GenericTable) Lookup(key string) (domain.GenericIngredient, bool) {
	g, ok := t.entries[key]
	return g, ok
}

// Len returns the number of reference entries
func (t *GenericTable) Len() int {
	return len(t.entries)
}

// Fingerprint identifies the table content; cached results that carry
// unmatched annotations depend on it
func (t *GenericTable) Fingerprint() uint64 {
	return t.fingerprint
}
