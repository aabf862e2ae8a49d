package db

import (
	"database/sql"
	"embed"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/joulebench/errors"
)

//go:embed sqlite/migrations/*.sql postgres/migrations/*.sql
var migrations embed.FS

// migrationDir returns the embedded directory holding the dialect's migrations
func migrationDir(dialect Dialect) string {
	if dialect == Postgres {
		return "postgres/migrations"
	}
	return "sqlite/migrations"
}

// Migrate runs all pending migrations for the dialect.
// Every migration is written to be idempotent so concurrent first runs converge.
// If logger is provided, logs migration progress; otherwise operates silently.
func Migrate(db *sql.DB, dialect Dialect, logger *zap.SugaredLogger) error {
	if db == nil {
		return errors.Wrap(errors.ErrStorageUnavailable, "migrate")
	}

	dir := migrationDir(dialect)
	entries, err := migrations.ReadDir(dir)
	if err != nil {
		return errors.Wrap(err, "read migrations")
	}

	// 000_create_schema_migrations.sql runs first
	var migrationFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			migrationFiles = append(migrationFiles, entry.Name())
		}
	}
	sort.Strings(migrationFiles)

	applied := 0
	for _, filename := range migrationFiles {
		version := strings.Split(filename, "_")[0]

		var exists bool
		err := db.QueryRow(dialect.Rebind("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)"), version).Scan(&exists)
		if err != nil {
			if IsDatabaseClosed(err) {
				return ClassifyError(err, "check migrations")
			}
			// Table doesn't exist yet - this must be migration 000
			if version != "000" {
				return errors.Newf("schema_migrations table missing, but migration is not 000: %s", filename)
			}
		} else if exists {
			if logger != nil {
				logger.Debugw("Skipping migration (already applied)",
					"migration", filename,
					"version", version,
				)
			}
			continue
		}

		sqlBytes, err := migrations.ReadFile(path.Join(dir, filename))
		if err != nil {
			return errors.Wrapf(err, "read %s", filename)
		}

		if logger != nil {
			logger.Infow("Applying migration",
				"migration", filename,
				"version", version,
			)
		}

		tx, err := db.Begin()
		if err != nil {
			return ClassifyError(err, "begin tx for "+filename)
		}

		if _, err := tx.Exec(string(sqlBytes)); err != nil {
			tx.Rollback()
			return ClassifyError(err, "execute "+filename)
		}

		if _, err := tx.Exec(dialect.Rebind("INSERT INTO schema_migrations (version) VALUES (?) ON CONFLICT (version) DO NOTHING"), version); err != nil {
			tx.Rollback()
			return ClassifyError(err, "record "+filename)
		}

		if err := tx.Commit(); err != nil {
			return ClassifyError(err, "commit "+filename)
		}
		applied++
	}

	if logger != nil && applied > 0 {
		logger.Infow("Migrations complete",
			"applied", applied,
			"total_migrations", len(migrationFiles),
		)
	}

	return nil
}

// AppliedVersions returns the recorded migration versions in order
func AppliedVersions(db *sql.DB, dialect Dialect) ([]string, error) {
	if db == nil {
		return nil, errors.Mark(errors.New("database is nil"), errors.ErrStorageUnavailable)
	}

	rows, err := db.Query(dialect.Rebind("SELECT version FROM schema_migrations ORDER BY version"))
	if err != nil {
		return nil, ClassifyError(err, "failed to read schema_migrations")
	}
	defer rows.Close()

	versions := []string{}
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, ClassifyError(err, "failed to scan migration version")
		}
		versions = append(versions, version)
	}
	return versions, ClassifyError(rows.Err(), "failed to read schema_migrations")
}
