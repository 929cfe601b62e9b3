// Package sql provides a database-independent SELECT statement builder and a
// database/sql based driver to run the statements it renders.
//
// # Selector
//
// A Selector accumulates clause calls and renders them, on demand, into one
// statement. Clause methods may be called repeatedly and in any order; each
// call extends its clause buffer, and Query always emits the clauses in the
// canonical order (projection, sources, filter, grouping, post-filter,
// ordering, pagination, lock):
//
//	s := sql.Dialect(dialect.Postgres).Select("id", "name")
//	e := s.Expr()
//	s.From("users u").
//	    LeftJoin("posts p", "u.id", "p.user_id").
//	    Where(e.EQ("u.status", "active"), e.GT("u.age", 18)).
//	    OrderBy("u.name").
//	    LimitOffset(10, 20)
//	query, args, err := s.Query()
//	// SELECT id, name FROM users u LEFT JOIN posts p ON u.id = p.user_id
//	// WHERE u.status = $1 AND u.age > $2 ORDER BY u.name LIMIT 10 OFFSET 20
//
// # Clause Order Rules
//
// Two clauses depend on what was appended immediately before them:
//
//   - joins must directly follow From, UseIndex or another join
//   - Having must directly follow GroupBy or another Having
//
// SelectDistinct is rejected once a non-distinct projection was started, and
// Query is rejected while no column was selected.
//
// # Errors
//
// Clause methods return the Selector for chaining. A failing call records a
// typed error and leaves the builder untouched:
//
//	s.From("t1").Where(e.EQ("a", 1)).InnerJoin("t2", "t1.id", "t2.id")
//	err := s.Err()
//	sql.IsInvalidStateError(err) // true
//	errors.Is(err, sql.ErrInvalidState) // true
//
// ArityError reports missing arguments, InvalidStateError out of order
// clauses, and TypeError arguments of the wrong shape.
//
// # Collaborators
//
// Identifier quoting is delegated to a Resolver and literal values to a
// Binder. The defaults, IdentResolver and ParamBinder, follow the dialect's
// Capabilities (see package dialect). Filter and join conditions are opaque
// Fragments, typically built with Expr:
//
//	e.EQ("name", "john")          // name = $1
//	e.In("status", "a", "b")      // status IN ($1, $2)
//	e.Bool("active", true)        // active = TRUE (active = 1 on SQLite)
//	e.Or(e.IsNull("x"), e.GT("x", 0))
//
// # Execution
//
// Driver wraps database/sql; QuerySelector renders a Selector and runs it:
//
//	drv, err := sql.Open("pgx", dsn)
//	var rows sql.Rows
//	err = sql.QuerySelector(ctx, drv, s, &rows)
package sql
