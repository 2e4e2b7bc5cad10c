package application

import (
	"context"
	"embed"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MigrationRegistry collects the schema files modules embed and applies them
// in registration order. Schemas are written to be idempotent
// (CREATE TABLE IF NOT EXISTS and friends), so re-applying is safe.
type MigrationRegistry struct {
	schemas []*embed.FS
}

func NewMigrationRegistry() *MigrationRegistry {
	return &MigrationRegistry{}
}

func (m *MigrationRegistry) RegisterSchema(schema *embed.FS) {
	m.schemas = append(m.schemas, schema)
}

func (m *MigrationRegistry) Apply(ctx context.Context, pool *pgxpool.Pool) error {
	for _, schema := range m.schemas {
		files, err := sqlFiles(schema)
		if err != nil {
			return err
		}
		for _, file := range files {
			contents, err := schema.ReadFile(file)
			if err != nil {
				return err
			}
			if _, err := pool.Exec(ctx, string(contents)); err != nil {
				return err
			}
		}
	}
	return nil
}

func sqlFiles(schema *embed.FS) ([]string, error) {
	var files []string
	err := fs.WalkDir(schema, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".sql") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
