package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching serialized analysis results
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// RawComplex is a catalog record as stored by a catalog source, before normalization
type RawComplex struct {
	BrandName        string   `json:"brand_name" yaml:"brand_name"`
	Supplier         string   `json:"supplier" yaml:"supplier"`
	INCINames        []string `json:"inci_names" yaml:"inci_names"`
	Description      string   `json:"description,omitempty" yaml:"description,omitempty"`
	DocumentationURL string   `json:"documentation_url,omitempty" yaml:"documentation_url,omitempty"`
}

// CatalogSource provides read-only access to branded complex records
type CatalogSource interface {
	LoadComplexes(ctx context.Context) ([]RawComplex, error)
	LoadGenerics(ctx context.Context) ([]GenericIngredient, error)
	Name() string
}

// GenericLookup annotates tokens that matched no branded complex.
// Implementations must be safe for concurrent use.
type GenericLookup interface {
	Lookup(key string) (GenericIngredient, bool)
	Len() int
}
