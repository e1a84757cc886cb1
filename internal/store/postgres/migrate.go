package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies embedded migrations that have not been recorded in
// schema_migrations yet, each in its own transaction and in file-name order.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (
		     name       TEXT PRIMARY KEY,
		     applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		 )`,
	)
	if err != nil {
		return fmt.Errorf("postgres.Migrate: create schema_migrations: %w", err)
	}

	names, err := migrationNames(migrationsFS)
	if err != nil {
		return fmt.Errorf("postgres.Migrate: %w", err)
	}

	for _, name := range names {
		applied, err := s.applyMigration(ctx, name)
		if err != nil {
			return fmt.Errorf("postgres.Migrate: %s: %w", name, err)
		}
		if applied {
			log.Info().Str("migration", name).Msg("migration applied")
		}
	}

	return nil
}

func (s *Store) applyMigration(ctx context.Context, name string) (bool, error) {
	sqlBytes, err := migrationsFS.ReadFile(name)
	if err != nil {
		return false, fmt.Errorf("read: %w", err)
	}

	applied := false
	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`INSERT INTO schema_migrations (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`,
			name,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		if _, err := tx.Exec(ctx, string(sqlBytes)); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return applied, nil
}

func migrationNames(fsys fs.FS) ([]string, error) {
	names, err := fs.Glob(fsys, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)
	return names, nil
}
