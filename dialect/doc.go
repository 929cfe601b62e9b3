// Package dialect provides database dialect abstraction for selectq.
//
// This package defines the interfaces used for database-specific behavior,
// allowing the statement builders in dialect/sql to stay dialect-agnostic.
//
// # Supported Dialects
//
// The following dialects are registered by default:
//
//   - Postgres: PostgreSQL ($1 placeholders, FOR UPDATE)
//   - MySQL: MySQL/MariaDB (? placeholders, backtick quoting)
//   - SQLite: SQLite (? placeholders, no row-level locks, 1/0 booleans)
//   - Oracle: Oracle (:1 placeholders, DUAL dummy table, 1/0 booleans)
//   - Generic: portable SQL with :p1 named placeholders
//
// # Capabilities
//
// Every place where dialects diverge is isolated behind Capabilities:
//
//	type Capabilities interface {
//	    Name() string
//	    DummyTable() (string, bool)
//	    LockClause() string
//	    BoolLiteral(v bool) string
//	    QuoteIdent(name string) string
//	    Placeholder() PlaceholderStyle
//	    IsReserved(word string) bool
//	}
//
// New dialects are described with a Config and registered:
//
//	dialect.Register(dialect.New(dialect.Config{
//	    Name:  "mssql",
//	    True:  "1",
//	    False: "0",
//	    QuoteOpen: "[", QuoteClose: "]",
//	    Style: dialect.PlaceholderNamed,
//	}))
//
// # Driver Interface
//
// The Driver interface is implemented by the execution collaborator that
// runs rendered statements:
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// # Sub-packages
//
//   - dialect/sql: SELECT statement builder and database/sql driver implementation
package dialect
