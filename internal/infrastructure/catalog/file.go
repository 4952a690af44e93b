package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/incilens/backend/internal/domain"
)

// Document is the on-disk catalog layout shared by the JSON and YAML formats
type Document struct {
	Complexes []domain.RawComplex        `json:"complexes" yaml:"complexes"`
	Generics  []domain.GenericIngredient `json:"generics,omitempty" yaml:"generics,omitempty"`
}

// FileSource reads the catalog from a JSON or YAML file.
// A file may hold a Document or a bare list of complexes.
type FileSource struct {
	path         string
	genericsPath string
}

// NewFileSource creates a file source; genericsPath is optional
func NewFileSource(path, genericsPath string) *FileSource {
	return &FileSource{path: path, genericsPath: genericsPath}
}

// Name identifies the source for stats and logs
func (s *FileSource) Name() string {
	return "file:" + filepath.Base(s.path)
}

// LoadComplexes reads every complex from the catalog file
func (s *FileSource) LoadComplexes(ctx context.Context) ([]domain.RawComplex, error) {
	doc, err := ReadDocument(s.path)
	if err != nil {
		return nil, err
	}
	return doc.Complexes, nil
}

// LoadGenerics reads the reference table from the generics file, or from the catalog file
func (s *FileSource) LoadGenerics(ctx context.Context) ([]domain.GenericIngredient, error) {
	if s.genericsPath == "" {
		doc, err := ReadDocument(s.path)
		if err != nil {
			return nil, err
		}
		return doc.Generics, nil
	}

	data, err := os.ReadFile(s.genericsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrKnowledgeBase, err)
	}

	var generics []domain.GenericIngredient
	if err := decode(s.genericsPath, data, &generics); err == nil {
		return generics, nil
	}
	var doc Document
	if err := decode(s.genericsPath, data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrKnowledgeBase, s.genericsPath, err)
	}
	return doc.Generics, nil
}

// ReadDocument parses a catalog file by extension
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrKnowledgeBase, err)
	}

	var doc Document
	if err := decode(path, data, &doc); err == nil {
		return &doc, nil
	}

	var complexes []domain.RawComplex
	if err := decode(path, data, &complexes); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrKnowledgeBase, path, err)
	}
	return &Document{Complexes: complexes}, nil
}

// WriteDocument writes a catalog file in the format implied by its extension
func WriteDocument(path string, doc *Document) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(doc)
	} else {
		data, err = json.MarshalIndent(doc, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func decode(path string, data []byte, v any) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, v)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
