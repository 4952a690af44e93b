// Package catalog loads the branded-complex knowledge base from files,
// SQLite or a remote export service, and builds the matching index from it.
package catalog

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/incilens/backend/internal/domain"
	"github.com/incilens/backend/internal/usecase"
)

// Source types
const (
	SourceFile   = "file"
	SourceSQLite = "sqlite"
	SourceHTTP   = "http"
)

// Config selects and locates a catalog source
type Config struct {
	Source       string
	Path         string
	URL          string
	APIToken     string
	GenericsPath string
	Debug        bool // Logs every remote catalog request
}

// Open creates the configured source. The returned closer is never nil.
func Open(cfg Config, logger *zap.Logger) (domain.CatalogSource, io.Closer, error) {
	switch cfg.Source {
	case SourceFile, "":
		return NewFileSource(cfg.Path, cfg.GenericsPath), nopCloser{}, nil
	case SourceSQLite:
		store, err := OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case SourceHTTP:
		src := NewHTTPSource(cfg.URL, cfg.APIToken, logger)
		src.SetDebug(cfg.Debug)
		return src, nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown catalog source %q", domain.ErrKnowledgeBase, cfg.Source)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Loaded is a ready-to-use knowledge base
type Loaded struct {
	Index    *usecase.Index
	Generics *GenericTable
	Source   string
}

// Load reads complexes and generics from src and builds the index.
// Any failure is an ErrKnowledgeBase.
func Load(ctx context.Context, src domain.CatalogSource, opts usecase.IndexOptions, logger *zap.Logger) (*Loaded, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()

	complexes, err := src.LoadComplexes(ctx)
	if err != nil {
		return nil, err
	}

	index, err := usecase.BuildIndex(complexes, opts)
	if err != nil {
		return nil, err
	}

	generics, err := src.LoadGenerics(ctx)
	if err != nil {
		return nil, err
	}
	table := NewGenericTable(generics)

	logger.Info("catalog loaded",
		zap.String("source", src.Name()),
		zap.Int("complexes", index.Len()),
		zap.Int("components", len(index.Vocabulary())),
		zap.Int("generics", table.Len()),
		zap.Duration("elapsed", time.Since(start)))

	return &Loaded{Index: index, Generics: table, Source: src.Name()}, nil
}
