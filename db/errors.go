package db

import (
	"strings"

	"github.com/teranos/joulebench/errors"
)

// ErrDatabaseClosed is returned when operations are attempted on a closed database.
// This typically occurs during graceful shutdown when the connection is
// closed before an in-flight request has finished.
var ErrDatabaseClosed = errors.New("database is closed")

// IsDatabaseClosed checks if an error indicates the database connection is closed.
// This handles both:
// - Wrapped ErrDatabaseClosed errors from this package
// - Raw sql driver errors that contain "database is closed" in their message
//
// The string matching fallback is necessary because database/sql returns its
// own unexported error values that we cannot wrap at the source.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}

	errMsg := err.Error()
	return strings.Contains(errMsg, "database is closed") ||
		strings.Contains(errMsg, "sql: database is closed")
}

// ClassifyError marks a driver error with the storage kind it represents:
// a closed or unreachable database is ErrStorageUnavailable, anything else ErrStorage.
func ClassifyError(err error, context string) error {
	if err == nil {
		return nil
	}
	if IsDatabaseClosed(err) || errors.Is(err, errors.ErrStorageUnavailable) {
		return errors.Mark(errors.Wrap(err, context), errors.ErrStorageUnavailable)
	}
	return errors.WrapStorage(err, context)
}
