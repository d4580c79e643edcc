package store

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// execer is satisfied by *sql.DB and by the pgx pool adapter
type execer interface {
	exec(ctx context.Context, query string) error
}

// runMigrations applies every embedded migration in file name order.
// Migrations are written to be idempotent, so they run on every open.
func runMigrations(ctx context.Context, db execer) error {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := migrationFiles.ReadFile(name)
		if err != nil {
			return err
		}
		if err := db.exec(ctx, string(body)); err != nil {
			return fmt.Errorf("migration %s failed: %w", name, err)
		}
	}

	return nil
}
