package postgres

import (
	"context"
	"embed"
	"io/fs"
	"sort"

	ierr "github.com/academyhub/paycore/internal/errors"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate applies the embedded schema files that were not applied yet, in name order.
// With dryRun the pending statements are returned without being executed.
func (db *DB) Migrate(ctx context.Context, dryRun bool) ([]string, error) {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrSystem)
	}
	sort.Strings(names)

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		name VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to prepare migrations table").
			Mark(ierr.ErrDatabase)
	}

	var applied []string
	if err := db.SelectContext(ctx, &applied, `SELECT name FROM schema_migrations`); err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	done := make(map[string]bool, len(applied))
	for _, name := range applied {
		done[name] = true
	}

	var pending []string
	for _, name := range names {
		if done[name] {
			continue
		}
		pending = append(pending, name)
		if dryRun {
			continue
		}

		body, err := migrationFiles.ReadFile(name)
		if err != nil {
			return pending, ierr.WithError(err).Mark(ierr.ErrSystem)
		}

		err = db.WithTx(ctx, func(ctx context.Context) error {
			q := db.GetQuerier(ctx)
			if _, err := q.ExecContext(ctx, string(body)); err != nil {
				return ierr.WithError(err).
					WithHintf("Migration %s failed", name).
					Mark(ierr.ErrDatabase)
			}
			_, err := q.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name)
			return err
		})
		if err != nil {
			return pending, err
		}
		db.logger.Infow("applied migration", "name", name)
	}
	return pending, nil
}
