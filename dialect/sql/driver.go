package sql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/syssam/selectq/dialect"
)

// driverDialects maps database/sql driver names to dialect names when they
// differ.
var driverDialects = map[string]string{
	"pgx":     dialect.Postgres,
	"sqlite3": dialect.SQLite,
	"godror":  dialect.Oracle,
	"oracle":  dialect.Oracle,
}

// DialectOf returns the dialect name for a database/sql driver name.
func DialectOf(driverName string) string {
	if d, ok := driverDialects[driverName]; ok {
		return d
	}
	for _, name := range []string{dialect.MySQL, dialect.SQLite, dialect.Postgres, dialect.Oracle} {
		if strings.HasPrefix(driverName, name) {
			return name
		}
	}
	return driverName
}

// Driver is a dialect.Driver implementation for SQL based databases.
type Driver struct {
	Conn
	dialect string
}

// NewDriver creates a new Driver with the given Conn and dialect.
func NewDriver(dialect string, c Conn) *Driver {
	return &Driver{dialect: dialect, Conn: c}
}

// Open wraps database/sql.Open. The dialect is derived from the driver name,
// so "pgx" and "postgres" both yield the postgres dialect.
func Open(driverName, source string) (*Driver, error) {
	db, err := sql.Open(driverName, source)
	if err != nil {
		return nil, err
	}
	return OpenDB(DialectOf(driverName), db), nil
}

// OpenDB wraps the given database/sql.DB with a Driver.
func OpenDB(dialect string, db *sql.DB) *Driver {
	return NewDriver(dialect, Conn{db, dialect})
}

// DB returns the underlying *sql.DB instance.
func (d Driver) DB() *sql.DB {
	return d.ExecQuerier.(*sql.DB)
}

// Dialect implements the dialect.Dialect method.
func (d Driver) Dialect() string {
	return DialectOf(d.dialect)
}

// Tx starts and returns a transaction.
func (d *Driver) Tx(ctx context.Context) (dialect.Tx, error) {
	return d.BeginTx(ctx, nil)
}

// BeginTx starts a transaction with options.
func (d *Driver) BeginTx(ctx context.Context, opts *TxOptions) (dialect.Tx, error) {
	tx, err := d.DB().BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{
		Conn: Conn{tx, d.dialect},
		Tx:   tx,
	}, nil
}

// Close closes the underlying connection.
func (d *Driver) Close() error { return d.DB().Close() }

// Tx implements dialect.Tx interface.
type Tx struct {
	Conn
	driver.Tx
}

// ExecQuerier wraps the standard Exec and Query methods.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn implements dialect.ExecQuerier given ExecQuerier.
type Conn struct {
	ExecQuerier
	dialect string
}

// Exec implements the dialect.Exec method.
func (c Conn) Exec(ctx context.Context, query string, args, v any) error {
	argv, ok := args.([]any)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect []any for args", args)
	}
	switch v := v.(type) {
	case nil:
		if _, err := c.ExecContext(ctx, query, argv...); err != nil {
			return fmt.Errorf("dialect/sql: exec: %w", err)
		}
	case *sql.Result:
		res, err := c.ExecContext(ctx, query, argv...)
		if err != nil {
			return fmt.Errorf("dialect/sql: exec: %w", err)
		}
		*v = res
	default:
		return fmt.Errorf("dialect/sql: invalid type %T. expect *sql.Result", v)
	}
	return nil
}

// Query implements the dialect.Query method.
func (c Conn) Query(ctx context.Context, query string, args, v any) error {
	vr, ok := v.(*Rows)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect *sql.Rows", v)
	}
	argv, ok := args.([]any)
	if !ok {
		return fmt.Errorf("dialect/sql: invalid type %T. expect []any for args", args)
	}
	rows, err := c.QueryContext(ctx, query, argv...)
	if err != nil {
		return fmt.Errorf("dialect/sql: query: %w", err)
	}
	*vr = Rows{rows}
	return nil
}

// SelectQuerier is implemented by drivers and transactions that can run a
// rendered Selector. Driver, Tx and the stats/debug wrappers all satisfy it.
type SelectQuerier interface {
	Query(ctx context.Context, query string, args, v any) error
	Dialect() string
}

// QuerySelector renders s and runs it through q, scanning into rows.
// It fails before touching the database if s cannot be rendered or was
// built for a different dialect than q.
func QuerySelector(ctx context.Context, q SelectQuerier, s *Selector, rows *Rows) error {
	if want, got := q.Dialect(), s.Dialect(); want != got && got != dialect.Generic {
		return fmt.Errorf("dialect/sql: selector dialect %q does not match driver dialect %q", got, want)
	}
	query, args, err := s.Query()
	if err != nil {
		return err
	}
	if args == nil {
		args = []any{}
	}
	return q.Query(ctx, query, args, rows)
}

// Dialect returns the dialect of the transaction's driver.
func (tx *Tx) Dialect() string { return DialectOf(tx.Conn.dialect) }

var _ dialect.Driver = (*Driver)(nil)

type (
	// Rows wraps the sql.Rows to avoid locks copy.
	Rows struct{ ColumnScanner }
	// Result is an alias to sql.Result.
	Result = sql.Result
	// NullString is an alias to sql.NullString.
	NullString = sql.NullString
	// TxOptions holds the transaction options to be used in DB.BeginTx.
	TxOptions = sql.TxOptions
)

// ColumnScanner is the interface that wraps the standard
// sql.Rows methods used for scanning database rows.
type ColumnScanner interface {
	Close() error
	ColumnTypes() ([]*sql.ColumnType, error)
	Columns() ([]string, error)
	Err() error
	Next() bool
	NextResultSet() bool
	Scan(dest ...any) error
}

// ScanStrings reads every remaining row as text. NULL values are returned
// as "NULL". The rows are closed when it returns.
func ScanStrings(rows *Rows) (columns []string, values [][]string, err error) {
	defer rows.Close()
	if columns, err = rows.Columns(); err != nil {
		return nil, nil, fmt.Errorf("dialect/sql: columns: %w", err)
	}
	for rows.Next() {
		raw := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, nil, fmt.Errorf("dialect/sql: scan: %w", err)
		}
		row := make([]string, len(columns))
		for i, v := range raw {
			switch v := v.(type) {
			case nil:
				row[i] = "NULL"
			case []byte:
				row[i] = string(v)
			default:
				row[i] = fmt.Sprint(v)
			}
		}
		values = append(values, row)
	}
	return columns, values, rows.Err()
}
