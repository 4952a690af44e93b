package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/incilens/backend/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS complexes (
  id                INTEGER PRIMARY KEY,
  brand_name        TEXT NOT NULL,
  supplier          TEXT NOT NULL DEFAULT '',
  description       TEXT,
  documentation_url TEXT,
  UNIQUE(brand_name, supplier)
);
CREATE TABLE IF NOT EXISTS complex_components (
  complex_id INTEGER NOT NULL REFERENCES complexes(id) ON DELETE CASCADE,
  position   INTEGER NOT NULL,
  inci_name  TEXT NOT NULL,
  PRIMARY KEY(complex_id, position)
);
CREATE TABLE IF NOT EXISTS generics (
  name       TEXT PRIMARY KEY,
  category   TEXT,
  common_use TEXT
);
`

// SQLiteStore keeps the catalog in a SQLite database
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (and if needed creates) a catalog database
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrKnowledgeBase, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrKnowledgeBase, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: create schema: %v", domain.ErrKnowledgeBase, err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Name identifies the source for stats and logs
func (s *SQLiteStore) Name() string {
	return "sqlite:" + filepath.Base(s.path)
}

// LoadComplexes reads every complex with its ordered recipe
func (s *SQLiteStore) LoadComplexes(ctx context.Context) ([]domain.RawComplex, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT c.id, c.brand_name, c.supplier, c.description, c.documentation_url, cc.inci_name
FROM complexes c
LEFT JOIN complex_components cc ON cc.complex_id = c.id
ORDER BY c.id, cc.position`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrKnowledgeBase, err)
	}
	defer rows.Close()

	var out []domain.RawComplex
	lastID := int64(-1)
	for rows.Next() {
		var (
			id                int64
			rc                domain.RawComplex
			descNS, urlNS, nm sql.NullString
		)
		if err := rows.Scan(&id, &rc.BrandName, &rc.Supplier, &descNS, &urlNS, &nm); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrKnowledgeBase, err)
		}
		if id != lastID {
			rc.Description = descNS.String
			rc.DocumentationURL = urlNS.String
			out = append(out, rc)
			lastID = id
		}
		if nm.Valid {
			cur := &out[len(out)-1]
			cur.INCINames = append(cur.INCINames, nm.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrKnowledgeBase, err)
	}
	return out, nil
}

// LoadGenerics reads the reference table
func (s *SQLiteStore) LoadGenerics(ctx context.Context) ([]domain.GenericIngredient, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, category, common_use FROM generics ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrKnowledgeBase, err)
	}
	defer rows.Close()

	var out []domain.GenericIngredient
	for rows.Next() {
		var g domain.GenericIngredient
		var catNS, useNS sql.NullString
		if err := rows.Scan(&g.Name, &catNS, &useNS); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrKnowledgeBase, err)
		}
		g.Category = catNS.String
		g.CommonUse = useNS.String
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrKnowledgeBase, err)
	}
	return out, nil
}

// Import replaces the stored catalog in a single transaction
func (s *SQLiteStore) Import(ctx context.Context, complexes []domain.RawComplex, generics []domain.GenericIngredient) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{`DELETE FROM complex_components`, `DELETE FROM complexes`, `DELETE FROM generics`} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return err
		}
	}

	for _, rc := range complexes {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO complexes(brand_name, supplier, description, documentation_url) VALUES(?,?,?,?)`,
			rc.BrandName, rc.Supplier, nullIfEmpty(rc.Description), nullIfEmpty(rc.DocumentationURL))
		if err != nil {
			return fmt.Errorf("insert %q: %w", rc.BrandName, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for pos, name := range rc.INCINames {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO complex_components(complex_id, position, inci_name) VALUES(?,?,?)`,
				id, pos, name); err != nil {
				return fmt.Errorf("insert component of %q: %w", rc.BrandName, err)
			}
		}
	}

	for _, g := range generics {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO generics(name, category, common_use) VALUES(?,?,?)`,
			g.Name, nullIfEmpty(g.Category), nullIfEmpty(g.CommonUse)); err != nil {
			return fmt.Errorf("insert generic %q: %w", g.Name, err)
		}
	}

	return tx.Commit()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
