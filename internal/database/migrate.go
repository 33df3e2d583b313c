package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
)

// Migrate runs every "*.up.sql" (direction "up") or "*.down.sql" (direction
// "down") file found at the root of fsys. Up files run in name order, down
// files in reverse. It returns the number of files applied.
func Migrate(ctx context.Context, db *sql.DB, fsys fs.FS, direction string) (int, error) {
	if direction != "up" && direction != "down" {
		return 0, fmt.Errorf("direction must be 'up' or 'down', got %q", direction)
	}

	files, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return 0, fmt.Errorf("read migration directory: %w", err)
	}

	var migrationFiles []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), fmt.Sprintf(".%s.sql", direction)) {
			migrationFiles = append(migrationFiles, file.Name())
		}
	}

	sort.Strings(migrationFiles)
	if direction == "down" {
		for i, j := 0, len(migrationFiles)-1; i < j; i, j = i+1, j-1 {
			migrationFiles[i], migrationFiles[j] = migrationFiles[j], migrationFiles[i]
		}
	}

	for _, filename := range migrationFiles {
		content, err := fs.ReadFile(fsys, filename)
		if err != nil {
			return 0, fmt.Errorf("read migration file %s: %w", filename, err)
		}

		slog.InfoContext(ctx, "running migration", "file", filename)
		if _, err := db.ExecContext(ctx, string(content)); err != nil {
			return 0, fmt.Errorf("execute migration %s: %w", filename, err)
		}
	}

	return len(migrationFiles), nil
}
