package sql

import (
	"errors"
	"strings"
)

// errorCoder is implemented by database errors carrying a string code.
type errorCoder interface {
	Code() string
}

// sqlStateError is implemented by errors exposing a SQLSTATE code (pq, pgx).
type sqlStateError interface {
	SQLState() string
}

// PostgreSQL SQLSTATE codes (Class 42).
const (
	pgUndefinedTable  = "42P01"
	pgUndefinedColumn = "42703"
	pgSyntaxError     = "42601"
)

// IsUndefinedTableError reports whether the database rejected a statement
// because a referenced table does not exist.
func IsUndefinedTableError(err error) bool {
	if err == nil {
		return false
	}
	if hasCode(err, pgUndefinedTable) {
		return true
	}
	return containsAny(err.Error(),
		"Error 1146",    // MySQL
		"ORA-00942",     // Oracle
		"no such table", // SQLite
	)
}

// IsUndefinedColumnError reports whether the database rejected a statement
// because a referenced column does not exist.
func IsUndefinedColumnError(err error) bool {
	if err == nil {
		return false
	}
	if hasCode(err, pgUndefinedColumn) {
		return true
	}
	return containsAny(err.Error(),
		"Error 1054",     // MySQL
		"ORA-00904",      // Oracle
		"no such column", // SQLite
	)
}

// IsSyntaxError reports whether the database failed to parse a statement,
// which usually means it was rendered for another dialect.
func IsSyntaxError(err error) bool {
	if err == nil {
		return false
	}
	if hasCode(err, pgSyntaxError) {
		return true
	}
	return containsAny(err.Error(),
		"Error 1064",   // MySQL
		"ORA-00933",    // Oracle
		"syntax error", // SQLite, Postgres
	)
}

func hasCode(err error, code string) bool {
	if e, ok := asError[sqlStateError](err); ok && e.SQLState() == code {
		return true
	}
	if e, ok := asError[errorCoder](err); ok && e.Code() == code {
		return true
	}
	return false
}

// asError extracts an error implementing T from the chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
