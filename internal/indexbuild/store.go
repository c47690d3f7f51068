package indexbuild

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/clinical-genomics-lund/genmod/internal/model"
)

// schemaVersion gates reloads: a genes/exons file built by an older or
// newer version of this package is rejected rather than silently
// misread (spec.md §4.A/§6/§9 "self-describing enough to version-gate
// reloads"). Grounded on internal/duckdb/store.go's ensureSchema +
// internal/cache/duckdb.go's database/sql + go-duckdb pairing.
const schemaVersion = 1

// ErrSchemaMismatch is returned by Load when an index blob was built
// with an incompatible schema version.
type ErrSchemaMismatch struct {
	Path    string
	Found   int
	Wanted  int
}

func (e *ErrSchemaMismatch) Error() string {
	return fmt.Sprintf("index file %s has schema version %d, need %d: rebuild with build-annotation", e.Path, e.Found, e.Wanted)
}

// GenesFile and ExonsFile are the fixed blob names spec.md §4.A/§6 name
// within the annotation directory.
const (
	GenesFile = "genes"
	ExonsFile = "exons"
)

// Save writes the two index blobs (genes, exons) into outDir, each a
// small DuckDB database file with a schema_version table and a
// features table.
func Save(outDir string, result *BuildResult) error {
	if err := saveOne(filepath.Join(outDir, GenesFile), result.Genes); err != nil {
		return fmt.Errorf("save genes index: %w", err)
	}
	if err := saveOne(filepath.Join(outDir, ExonsFile), result.Exons); err != nil {
		return fmt.Errorf("save exons index: %w", err)
	}
	return nil
}

func saveOne(path string, features []model.Feature) error {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("create duckdb file %s: %w", path, err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER)`); err != nil {
		return err
	}
	if _, err := db.Exec(`DELETE FROM schema_version`); err != nil {
		return err
	}
	if _, err := db.Exec(`INSERT INTO schema_version VALUES (?)`, schemaVersion); err != nil {
		return err
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS features (
		feature_id VARCHAR,
		chrom VARCHAR,
		start_pos BIGINT,
		end_pos BIGINT,
		kind VARCHAR,
		strand TINYINT,
		parent_gene VARCHAR
	)`); err != nil {
		return err
	}
	if _, err := db.Exec(`DELETE FROM features`); err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO features VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	for _, f := range features {
		if _, err := stmt.Exec(f.FeatureID, f.Chrom, f.Start, f.End, f.Kind.String(), int8(f.Strand), f.ParentGene); err != nil {
			stmt.Close()
			tx.Rollback()
			return err
		}
	}
	stmt.Close()
	return tx.Commit()
}

// Load reads both index blobs from dir and builds the runtime Index
// (spec.md §4.B). Returns *ErrSchemaMismatch if either file's
// schema_version doesn't match this build.
func Load(dir string) (*Index, error) {
	genes, err := loadOne(filepath.Join(dir, GenesFile), model.KindGene)
	if err != nil {
		return nil, fmt.Errorf("load genes index: %w", err)
	}
	exons, err := loadOne(filepath.Join(dir, ExonsFile), model.KindExon)
	if err != nil {
		return nil, fmt.Errorf("load exons index: %w", err)
	}
	return FromFeatures(genes, exons), nil
}

func loadOne(path string, kind model.FeatureKind) ([]model.Feature, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb file %s: %w", path, err)
	}
	defer db.Close()

	var version int
	row := db.QueryRow(`SELECT version FROM schema_version LIMIT 1`)
	if err := row.Scan(&version); err != nil {
		return nil, fmt.Errorf("read schema_version from %s: %w", path, err)
	}
	if version != schemaVersion {
		return nil, &ErrSchemaMismatch{Path: path, Found: version, Wanted: schemaVersion}
	}

	rows, err := db.Query(`SELECT feature_id, chrom, start_pos, end_pos, kind, strand, parent_gene FROM features`)
	if err != nil {
		return nil, fmt.Errorf("query features from %s: %w", path, err)
	}
	defer rows.Close()

	var out []model.Feature
	for rows.Next() {
		var f model.Feature
		var kindStr string
		var strand int8
		if err := rows.Scan(&f.FeatureID, &f.Chrom, &f.Start, &f.End, &kindStr, &strand, &f.ParentGene); err != nil {
			return nil, fmt.Errorf("scan feature row from %s: %w", path, err)
		}
		f.Kind = kind
		f.Strand = model.Strand(strand)
		out = append(out, f)
	}
	return out, rows.Err()
}

// Exists reports whether both index blobs are present in dir.
func Exists(dir string) bool {
	return fileExists(filepath.Join(dir, GenesFile)) && fileExists(filepath.Join(dir, ExonsFile))
}
