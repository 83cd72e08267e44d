package sqlite

import (
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// errorCode returns the extended SQLite result code carried by err, or 0.
func errorCode(err error) int {
	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code()
	}
	return 0
}

// isBusy reports transient lock contention worth retrying.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	switch errorCode(err) & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

// isUniqueViolation reports a duplicate run id or fixture key.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	switch errorCode(err) {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isQuerySyntax reports an FTS5 MATCH expression the engine rejected.
func isQuerySyntax(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range []string{"fts5: syntax error", "unterminated string", "no such column", "unknown special query"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return errorCode(err) == sqlite3.SQLITE_ERROR && strings.Contains(msg, "fts5")
}
