package sqlite

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Layout migrations are forward only: migrations/NNN_description.sql.
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

var migrationName = regexp.MustCompile(`^(\d+)_(.+)\.sql$`)

// Migration is one step of the table layout.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrator applies layout migrations to the records database. These are
// unrelated to the record schema version kept in the meta table.
type Migrator struct {
	db *sql.DB
}

func NewMigrator(db *sql.DB) *Migrator {
	return &Migrator{db: db}
}

// LoadMigrations returns the embedded migrations in version order.
func (m *Migrator) LoadMigrations() ([]Migration, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("reading migrations: %w", err)
	}

	var out []Migration

	for _, e := range entries {
		match := migrationName.FindStringSubmatch(e.Name())
		if e.IsDir() || match == nil {
			continue
		}

		version, err := strconv.Atoi(match[1])
		if err != nil {
			return nil, fmt.Errorf("migration %s: %w", e.Name(), err)
		}

		body, err := migrationsFS.ReadFile("migrations/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("reading migration %s: %w", e.Name(), err)
		}

		if n := len(out); n > 0 && out[n-1].Version == version {
			return nil, fmt.Errorf("migration version %d is used twice", version)
		}

		out = append(out, Migration{
			Version:     version,
			Description: strings.ReplaceAll(match[2], "_", " "),
			SQL:         string(body),
		})
	}

	return out, nil
}

// CurrentVersion returns the highest applied layout version, 0 for a new
// database.
func (m *Migrator) CurrentVersion() (int, error) {
	var version int

	err := m.db.QueryRow(`
		SELECT COALESCE(MAX(version), 0) FROM schema_migrations
	`).Scan(&version)
	if err != nil && strings.Contains(err.Error(), "no such table") {
		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("reading layout version: %w", err)
	}

	return version, nil
}

// PendingMigrations returns the migrations newer than the applied version.
func (m *Migrator) PendingMigrations() ([]Migration, error) {
	all, err := m.LoadMigrations()
	if err != nil {
		return nil, err
	}

	current, err := m.CurrentVersion()
	if err != nil {
		return nil, err
	}

	var pending []Migration

	for _, mig := range all {
		if mig.Version > current {
			pending = append(pending, mig)
		}
	}

	return pending, nil
}

// MigrateUp applies every pending migration, each in its own transaction.
func (m *Migrator) MigrateUp() error {
	pending, err := m.PendingMigrations()
	if err != nil {
		return err
	}

	for _, mig := range pending {
		if err := m.apply(mig); err != nil {
			return fmt.Errorf("applying migration %d (%s): %w", mig.Version, mig.Description, err)
		}
	}

	return nil
}

func (m *Migrator) apply(mig Migration) (err error) {
	tx, err := m.db.Begin()
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmts := []struct {
		query string
		args  []any
	}{
		{query: `CREATE TABLE IF NOT EXISTS schema_migrations (
			version     INTEGER PRIMARY KEY,
			applied_at  TIMESTAMP NOT NULL,
			description TEXT
		)`},
		{query: mig.SQL},
		{
			query: `INSERT INTO schema_migrations (version, applied_at, description) VALUES (?, ?, ?)`,
			args:  []any{mig.Version, time.Now().UTC(), mig.Description},
		},
	}

	for _, s := range stmts {
		if _, err = tx.Exec(s.query, s.args...); err != nil {
			return err
		}
	}

	return tx.Commit()
}
