package catalog

import (
	"strings"

	"github.com/incilens/backend/internal/domain"
	"github.com/incilens/backend/internal/usecase"
)

// LegacyDocument is a branded ingredient as exported by the legacy document store.
// The recipe is either a list or a single delimited "original_inci_name" string.
type LegacyDocument struct {
	IngredientName   string   `json:"ingredient_name"`
	OriginalINCIName string   `json:"original_inci_name"`
	INCINames        []string `json:"inci_names,omitempty"`
	Supplier         string   `json:"supplier,omitempty"`
	SupplierID       string   `json:"supplier_id,omitempty"`
	Description      string   `json:"description,omitempty"`
	Documents        []string `json:"documents,omitempty"`
}

// LegacyINCIDocument is a reference entry from the legacy inci_info collection
type LegacyINCIDocument struct {
	INCIName  string `json:"inciName"`
	Category  string `json:"category,omitempty"`
	CommonUse string `json:"common_use,omitempty"`
	Function  string `json:"function,omitempty"`
}

// MapToRawComplex converts a legacy document to a catalog record
func MapToRawComplex(doc *LegacyDocument) domain.RawComplex {
	names := doc.INCINames
	if len(names) == 0 {
		names = splitRecipe(doc.OriginalINCIName)
	}

	supplier := doc.Supplier
	if supplier == "" {
		supplier = doc.SupplierID
	}

	return domain.RawComplex{
		BrandName:        strings.TrimSpace(doc.IngredientName),
		Supplier:         strings.TrimSpace(supplier),
		INCINames:        names,
		Description:      strings.TrimSpace(doc.Description),
		DocumentationURL: firstURL(doc.Documents),
	}
}

// MapToRawComplexes converts a batch of legacy documents
func MapToRawComplexes(docs []LegacyDocument) []domain.RawComplex {
	out := make([]domain.RawComplex, 0, len(docs))
	for i := range docs {
		out = append(out, MapToRawComplex(&docs[i]))
	}
	return out
}

// MapToGeneric converts a legacy reference entry; function is used when common use is absent
func MapToGeneric(doc *LegacyINCIDocument) domain.GenericIngredient {
	use := doc.CommonUse
	if use == "" {
		use = doc.Function
	}
	return domain.GenericIngredient{
		Name:      strings.TrimSpace(doc.INCIName),
		Category:  strings.TrimSpace(doc.Category),
		CommonUse: strings.TrimSpace(use),
	}
}

// MapToGenerics converts a batch of legacy reference entries
func MapToGenerics(docs []LegacyINCIDocument) []domain.GenericIngredient {
	out := make([]domain.GenericIngredient, 0, len(docs))
	for i := range docs {
		out = append(out, MapToGeneric(&docs[i]))
	}
	return out
}

// splitRecipe splits a delimited recipe string the same way input labels are split
func splitRecipe(s string) []string {
	var names []string
	for _, part := range usecase.SplitItems(s) {
		if p := strings.TrimSpace(part); p != "" {
			names = append(names, p)
		}
	}
	return names
}

func firstURL(docs []string) string {
	for _, d := range docs {
		d = strings.TrimSpace(d)
		if strings.HasPrefix(d, "http://") || strings.HasPrefix(d, "https://") {
			return d
		}
	}
	return ""
}
