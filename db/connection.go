package db

import (
	"database/sql"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/teranos/joulebench/errors"
)

// SQLiteBusyTimeoutMS is how long SQLite waits on a locked database before failing a write
const SQLiteBusyTimeoutMS = 5000

// Open opens the database for the given driver and data source.
// For SQLite dsn is a file path; for Postgres a connection string.
// If logger is provided, logs database operations; otherwise operates silently.
func Open(driver, dsn string, logger *zap.SugaredLogger) (*sql.DB, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	if dsn == "" {
		return nil, errors.Mark(errors.Newf("no data source configured for %s", dialect), errors.ErrStorageUnavailable)
	}

	if logger != nil {
		logger.Debugw("Opening database", "driver", dialect, "dsn", redactDSN(dialect, dsn))
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to open database"), errors.ErrStorageUnavailable)
	}

	switch dialect {
	case SQLite:
		err = configureSQLite(db)
	case Postgres:
		err = db.Ping()
		if err != nil {
			err = errors.Wrap(err, "failed to ping database")
		}
	}
	if err != nil {
		db.Close()
		return nil, errors.Mark(err, errors.ErrStorageUnavailable)
	}

	if logger != nil {
		logger.Infow("Database opened successfully", "driver", dialect, "dsn", redactDSN(dialect, dsn))
	}

	return db, nil
}

// OpenWithMigrations opens the database and applies all pending migrations
func OpenWithMigrations(driver, dsn string, logger *zap.SugaredLogger) (*sql.DB, error) {
	db, err := Open(driver, dsn, logger)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}

	dialect, _ := DialectFor(driver)
	if err := Migrate(db, dialect, logger); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate")
	}
	return db, nil
}

func configureSQLite(db *sql.DB) error {
	// WAL for concurrent reads during imports
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return errors.Wrap(err, "failed to enable WAL mode")
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return errors.Wrap(err, "failed to set busy timeout")
	}
	return nil
}

// redactDSN hides credentials in Postgres connection strings for logging
func redactDSN(dialect Dialect, dsn string) string {
	if dialect != Postgres {
		return dsn
	}
	return "<redacted>"
}
