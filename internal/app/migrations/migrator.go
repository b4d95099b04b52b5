package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// lockKey serializes migrators of several instances starting at once
const lockKey = 0x5c4001b00c

// Migration is one SQL file, applied once
type Migration struct {
	Version string
	Name    string
	SQL     string
}

// Load reads every .sql file of dir in name order. The version is the part
// of the name before the first underscore, "001_init.sql" => "001".
func Load(dir fs.FS) ([]Migration, error) {
	names, err := fs.Glob(dir, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("listing migrations: %w", err)
	}
	sort.Strings(names)

	seen := make(map[string]string, len(names))
	migrations := make([]Migration, 0, len(names))
	for _, name := range names {
		version, _, _ := strings.Cut(path.Base(name), "_")
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migrations %s and %s share version %s", prev, name, version)
		}
		seen[version] = name

		body, err := fs.ReadFile(dir, name)
		if err != nil {
			return nil, fmt.Errorf("reading migration %s: %w", name, err)
		}
		migrations = append(migrations, Migration{Version: version, Name: name, SQL: string(body)})
	}
	return migrations, nil
}

// Migrator applies pending migrations, each in its own transaction
type Migrator struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewMigrator(pool *pgxpool.Pool, logger zerolog.Logger) *Migrator {
	return &Migrator{pool: pool, logger: logger.With().Str("component", "migrator").Logger()}
}

// Up applies every migration of dir not yet recorded in schema_migrations
func (m *Migrator) Up(ctx context.Context, dir fs.FS) error {
	migrations, err := Load(dir)
	if err != nil {
		return err
	}

	if _, err := m.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	for _, mig := range migrations {
		applied, err := m.apply(ctx, mig)
		if err != nil {
			return err
		}
		if applied {
			m.logger.Info().Str("file", mig.Name).Msg("Migration applied")
		}
	}
	return nil
}

func (m *Migrator) apply(ctx context.Context, mig Migration) (bool, error) {
	applied := false
	err := pgx.BeginFunc(ctx, m.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, lockKey); err != nil {
			return fmt.Errorf("locking migrations: %w", err)
		}

		var done bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, mig.Version,
		).Scan(&done); err != nil {
			return fmt.Errorf("checking migration %s: %w", mig.Name, err)
		}
		if done {
			return nil
		}

		if _, err := tx.Exec(ctx, mig.SQL); err != nil {
			return fmt.Errorf("running migration %s: %w", mig.Name, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, mig.Version); err != nil {
			return fmt.Errorf("recording migration %s: %w", mig.Name, err)
		}
		applied = true
		return nil
	})
	return applied, err
}
