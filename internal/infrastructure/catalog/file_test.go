package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incilens/backend/internal/domain"
)

const yamlCatalog = `
complexes:
  - brand_name: Aquaxyl
    supplier: Seppic
    inci_names: [Xylitylglucoside, Anhydroxylitol, Xylitol]
    documentation_url: https://example.com/aquaxyl
  - brand_name: Alpha Blend
    supplier: Supplier One
    inci_names:
      - Sodium Hyaluronate
      - Panthenol
generics:
  - name: Niacinamide
    category: Active
    common_use: Vitamin B3
`

const jsonCatalogList = `[
  {"brand_name": "Aquaxyl", "supplier": "Seppic", "inci_names": ["Xylitylglucoside", "Anhydroxylitol", "Xylitol"]}
]`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileSource_YAMLDocument(t *testing.T) {
	src := NewFileSource(writeFile(t, "catalog.yaml", yamlCatalog), "")
	ctx := context.Background()

	complexes, err := src.LoadComplexes(ctx)
	require.NoError(t, err)
	require.Len(t, complexes, 2)
	assert.Equal(t, "Aquaxyl", complexes[0].BrandName)
	assert.Equal(t, []string{"Sodium Hyaluronate", "Panthenol"}, complexes[1].INCINames)

	generics, err := src.LoadGenerics(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.GenericIngredient{{Name: "Niacinamide", Category: "Active", CommonUse: "Vitamin B3"}}, generics)

	assert.Equal(t, "file:catalog.yaml", src.Name())
}

func TestFileSource_JSONList(t *testing.T) {
	src := NewFileSource(writeFile(t, "catalog.json", jsonCatalogList), "")

	complexes, err := src.LoadComplexes(context.Background())
	require.NoError(t, err)
	require.Len(t, complexes, 1)
	assert.Equal(t, "Seppic", complexes[0].Supplier)

	generics, err := src.LoadGenerics(context.Background())
	require.NoError(t, err)
	assert.Empty(t, generics)
}

func TestFileSource_SeparateGenericsFile(t *testing.T) {
	generics := writeFile(t, "generics.json", `[{"name": "Aqua", "category": "Solvent"}]`)
	src := NewFileSource(writeFile(t, "catalog.json", jsonCatalogList), generics)

	got, err := src.LoadGenerics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.GenericIngredient{{Name: "Aqua", Category: "Solvent"}}, got)
}

func TestFileSource_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := NewFileSource(filepath.Join(t.TempDir(), "absent.json"), "").LoadComplexes(context.Background())
		assert.ErrorIs(t, err, domain.ErrKnowledgeBase)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := NewFileSource(writeFile(t, "bad.json", `{"complexes": [`), "").LoadComplexes(context.Background())
		assert.ErrorIs(t, err, domain.ErrKnowledgeBase)
	})
}

func TestWriteDocumentRoundTrip(t *testing.T) {
	doc := &Document{
		Complexes: []domain.RawComplex{{BrandName: "Aquaxyl", Supplier: "Seppic", INCINames: []string{"Xylitol"}}},
		Generics:  []domain.GenericIngredient{{Name: "Aqua"}},
	}

	for _, name := range []string{"out.json", "out.yml"} {
		path := filepath.Join(t.TempDir(), name)
		require.NoError(t, WriteDocument(path, doc))

		got, err := ReadDocument(path)
		require.NoError(t, err)
		assert.Equal(t, doc, got, name)
	}
}
