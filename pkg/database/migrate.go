package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"

	schemafs "github.com/MohamedAshiq09/authentify/pkg/database/sql"
	"github.com/MohamedAshiq09/authentify/pkg/logging"
)

// ApplySchema applies the embedded schema files in lexical order.
// Statements are idempotent (IF NOT EXISTS) so this is safe to run at startup.
func ApplySchema(ctx context.Context, db *sql.DB, logger logging.Logger) error {
	entries, err := fs.Glob(schemafs.Content, "schema/*.sql")
	if err != nil {
		return fmt.Errorf("failed to list schema files: %w", err)
	}
	sort.Strings(entries)

	for _, name := range entries {
		contents, err := schemafs.Content.ReadFile(name)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(contents)); err != nil {
			return fmt.Errorf("failed to apply %s: %w", name, err)
		}
		logger.WithField("file", name).Debug("Applied schema file")
	}

	return nil
}
