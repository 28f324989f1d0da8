package journal

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// ErrNewerSchema means the journal was written by a newer warden that applied
// migrations this binary does not ship.
var ErrNewerSchema = errors.New("journal schema is newer than this binary")

type migration struct {
	version string
	sql     string
}

// journalMigrations returns the embedded migrations in version order.
func journalMigrations() ([]migration, error) {
	names, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	slices.Sort(names)

	steps := make([]migration, 0, len(names))
	for _, name := range names {
		data, err := migrationFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		steps = append(steps, migration{
			version: strings.TrimSuffix(path.Base(name), ".sql"),
			sql:     string(data),
		})
	}
	return steps, nil
}

// migrate brings the journal schema up to date in one transaction. Applied
// versions are kept in journal_schema with the time they were applied.
func (s *Store) migrate(ctx context.Context) error {
	steps, err := journalMigrations()
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS journal_schema (
		version TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("ensure journal_schema: %w", err)
	}

	applied, err := appliedVersions(ctx, tx)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(steps))
	for _, step := range steps {
		known[step.version] = true
	}
	for version := range applied {
		if !known[version] {
			return fmt.Errorf("%w: %s has version %s", ErrNewerSchema, s.path, version)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, step := range steps {
		if applied[step.version] {
			continue
		}
		if _, err := tx.ExecContext(ctx, step.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", step.version, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO journal_schema (version, applied_at) VALUES (?, ?)", step.version, now); err != nil {
			return fmt.Errorf("record migration %s: %w", step.version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	return nil
}

func appliedVersions(ctx context.Context, tx *sql.Tx) (map[string]bool, error) {
	rows, err := tx.QueryContext(ctx, "SELECT version FROM journal_schema")
	if err != nil {
		return nil, fmt.Errorf("query journal_schema: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scan migration version: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}
