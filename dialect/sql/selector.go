package sql

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/syssam/selectq/dialect"
)

// Direction is an ORDER BY direction.
type Direction uint8

// Order directions.
const (
	Asc Direction = iota
	Desc
)

// String returns the SQL keyword for the direction.
func (d Direction) String() string {
	switch d {
	case Asc:
		return "ASC"
	case Desc:
		return "DESC"
	}
	return "Direction(" + strconv.Itoa(int(d)) + ")"
}

// source is one FROM entry: a table token, its index hints and the joins
// declared directly after it.
type source struct {
	table string
	hints []string
	joins []string
}

func (s source) String() string {
	var b strings.Builder
	b.WriteString(s.table)
	for _, h := range s.hints {
		b.WriteByte(' ')
		b.WriteString(h)
	}
	for _, j := range s.joins {
		b.WriteByte(' ')
		b.WriteString(j)
	}
	return b.String()
}

type pagination struct {
	limit  string
	offset string
}

// Selector is a builder for SELECT statements. Every clause method may be
// called multiple times and accumulates into its clause buffer; Query
// assembles the buffers in canonical clause order.
//
// A clause method that is called with invalid arguments, or out of order,
// records a typed error (see Err) and leaves every buffer untouched.
//
// A Selector is not safe for concurrent use. Use one Selector per statement.
type Selector struct {
	caps     dialect.Capabilities
	resolver Resolver
	binder   Binder

	distinct   bool
	projection []string
	sources    []source
	filter     []Fragment
	grouping   []string
	postFilter []Fragment
	ordering   []string
	page       *pagination
	lock       bool
	last       ClauseKind
	errs       []error

	// initErr is a construction error. Reset and ClearErr keep it.
	initErr error
}

// Option configures a Selector.
type Option func(*Selector)

// WithDialect sets the dialect capabilities. It also resets the resolver and
// binder to the defaults of the dialect, so it should come before
// WithResolver and WithBinder.
func WithDialect(caps dialect.Capabilities) Option {
	return func(s *Selector) {
		s.caps = caps
		s.resolver = NewIdentResolver(caps, QuoteAsNeeded)
		s.binder = NewParamBinder(caps.Placeholder())
	}
}

// WithQuoteMode replaces the resolver with an IdentResolver using mode.
func WithQuoteMode(mode QuoteMode) Option {
	return func(s *Selector) {
		s.resolver = NewIdentResolver(s.caps, mode)
	}
}

// WithResolver sets a custom identifier resolver.
func WithResolver(r Resolver) Option {
	return func(s *Selector) { s.resolver = r }
}

// WithBinder sets a custom value binder.
func WithBinder(b Binder) Option {
	return func(s *Selector) { s.binder = b }
}

// NewSelector returns an empty Selector. Without options it uses the generic
// dialect, which renders :p1 style named placeholders.
func NewSelector(opts ...Option) *Selector {
	s := &Selector{}
	WithDialect(dialect.MustGet(dialect.Generic))(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select returns a new generic-dialect Selector with the given columns.
func Select(columns ...string) *Selector {
	return NewSelector().Select(columns...)
}

// SelectDistinct returns a new generic-dialect Selector with the given
// columns and DISTINCT projection.
func SelectDistinct(columns ...string) *Selector {
	return NewSelector().SelectDistinct(columns...)
}

// DialectBuilder prefixes every Selector it creates with a dialect.
type DialectBuilder struct {
	name string
	opts []Option
}

// Dialect creates a new DialectBuilder with the given dialect name.
//
//	sql.Dialect(dialect.Postgres).Select("id").From("users")
func Dialect(name string, opts ...Option) *DialectBuilder {
	return &DialectBuilder{name: name, opts: opts}
}

// New returns an empty Selector for the builder's dialect. With an unknown
// dialect name the returned Selector never renders; Reset and ClearErr do
// not lift that.
func (d *DialectBuilder) New() *Selector {
	caps, err := dialect.Get(d.name)
	if err != nil {
		s := NewSelector(d.opts...)
		s.initErr = fmt.Errorf("dialect/sql: %w", err)
		return s
	}
	return NewSelector(append([]Option{WithDialect(caps)}, d.opts...)...)
}

// Select returns a new Selector for the builder's dialect.
func (d *DialectBuilder) Select(columns ...string) *Selector {
	return d.New().Select(columns...)
}

// SelectDistinct returns a new DISTINCT Selector for the builder's dialect.
func (d *DialectBuilder) SelectDistinct(columns ...string) *Selector {
	return d.New().SelectDistinct(columns...)
}

// Dialect returns the dialect name of the selector.
func (s *Selector) Dialect() string { return s.caps.Name() }

// Capabilities returns the dialect capabilities of the selector.
func (s *Selector) Capabilities() dialect.Capabilities { return s.caps }

// Expr returns an expression builder sharing the selector's resolver and binder.
func (s *Selector) Expr() *Expr { return NewExpr(s.caps, s.resolver, s.binder) }

// Bind registers a literal with the selector's binder and returns its placeholder.
func (s *Selector) Bind(v any) string { return s.binder.Bind(v) }

// C resolves a column or table name with the selector's resolver.
func (s *Selector) C(name string) string { return s.resolver.Resolve(name) }

// Last returns the most recently appended clause kind.
func (s *Selector) Last() ClauseKind { return s.last }

// Select appends columns to the projection. If the projection was started
// with SelectDistinct it stays DISTINCT.
func (s *Selector) Select(columns ...string) *Selector {
	return s.project("SELECT", false, columns)
}

// SelectDistinct appends columns to a DISTINCT projection. It fails if a
// non-distinct projection was already started.
func (s *Selector) SelectDistinct(columns ...string) *Selector {
	return s.project("SELECT DISTINCT", true, columns)
}

func (s *Selector) project(clause string, distinct bool, columns []string) *Selector {
	names := flatten(columns)
	if len(names) == 0 {
		return s.AddError(&ArityError{Clause: clause, Expected: "at least 1", Got: 0})
	}
	if distinct && !s.distinct && len(s.projection) > 0 {
		return s.AddError(&InvalidStateError{
			Clause: clause,
			Last:   s.last,
			Reason: "a non-distinct projection was already started",
		})
	}
	if distinct {
		s.distinct = true
	}
	s.projection = append(s.projection, s.resolver.ResolveAll(names)...)
	s.last = ClauseProjection
	return s
}

// From appends tables to the FROM clause.
func (s *Selector) From(tables ...string) *Selector {
	names := flatten(tables)
	if len(names) == 0 {
		return s.AddError(&ArityError{Clause: "FROM", Expected: "at least 1", Got: 0})
	}
	for _, t := range s.resolver.ResolveAll(names) {
		s.sources = append(s.sources, source{table: t})
	}
	s.last = ClauseSource
	return s
}

// UseIndex attaches a MySQL-style "USE INDEX (...)" hint to the most
// recently declared FROM table. Index names are embedded unresolved.
func (s *Selector) UseIndex(indexes ...string) *Selector {
	names := flatten(indexes)
	if len(names) == 0 {
		return s.AddError(&ArityError{Clause: "USE INDEX", Expected: "at least 1", Got: 0})
	}
	if len(s.sources) == 0 {
		return s.AddError(&InvalidStateError{
			Clause: "USE INDEX",
			Last:   s.last,
			Reason: "requires a preceding FROM table",
		})
	}
	src := &s.sources[len(s.sources)-1]
	src.hints = append(src.hints, "USE INDEX ("+strings.Join(names, ", ")+")")
	s.last = ClauseIndexHint
	return s
}

// Where conjoins the given fragments with the WHERE clause.
func (s *Selector) Where(preds ...Fragment) *Selector {
	frags := flattenFragments(preds)
	if len(frags) == 0 {
		return s.AddError(&ArityError{Clause: "WHERE", Expected: "at least 1", Got: 0})
	}
	s.filter = append(s.filter, frags...)
	s.last = ClauseFilter
	return s
}

// GroupBy appends columns to the GROUP BY clause.
func (s *Selector) GroupBy(columns ...string) *Selector {
	names := flatten(columns)
	if len(names) == 0 {
		return s.AddError(&ArityError{Clause: "GROUP BY", Expected: "at least 1", Got: 0})
	}
	s.grouping = append(s.grouping, s.resolver.ResolveAll(names)...)
	s.last = ClauseGrouping
	return s
}

// Having conjoins the given fragments with the HAVING clause. It must
// directly follow GroupBy or another Having call.
func (s *Selector) Having(preds ...Fragment) *Selector {
	if !s.last.allowsHaving() {
		return s.AddError(&InvalidStateError{
			Clause: "HAVING",
			Last:   s.last,
			Reason: "must directly follow GROUP BY or HAVING",
		})
	}
	frags := flattenFragments(preds)
	if len(frags) == 0 {
		return s.AddError(&ArityError{Clause: "HAVING", Expected: "at least 1", Got: 0})
	}
	s.postFilter = append(s.postFilter, frags...)
	s.last = ClausePostFilter
	return s
}

// OrderBy appends one column to the ORDER BY clause. The direction
// defaults to Asc.
//
//	s.OrderBy("name").OrderBy("created_at", sql.Desc)
func (s *Selector) OrderBy(column string, dir ...Direction) *Selector {
	column = strings.TrimSpace(column)
	if column == "" {
		return s.AddError(&ArityError{Clause: "ORDER BY", Expected: "1 column", Got: 0})
	}
	if len(dir) > 1 {
		return s.AddError(&ArityError{Clause: "ORDER BY", Expected: "at most 1 direction", Got: len(dir)})
	}
	if len(dir) == 1 && dir[0] != Asc && dir[0] != Desc {
		return s.AddError(&TypeError{Clause: "ORDER BY", Index: 1, Want: "Asc or Desc", Got: dir[0]})
	}
	term := s.resolver.Resolve(column)
	if len(dir) == 1 && dir[0] == Desc {
		term += " DESC"
	}
	s.ordering = append(s.ordering, term)
	s.last = ClauseOrdering
	return s
}

// Limit sets the row count and clears any offset. Later calls replace
// earlier ones.
func (s *Selector) Limit(n int) *Selector {
	if n < 0 {
		return s.AddError(&TypeError{Clause: "LIMIT", Index: 0, Want: "non-negative integer", Got: n})
	}
	return s.paginate(strconv.Itoa(n), "")
}

// LimitOffset sets the row count and the offset. Later calls replace
// earlier ones.
func (s *Selector) LimitOffset(n, offset int) *Selector {
	if n < 0 {
		return s.AddError(&TypeError{Clause: "LIMIT", Index: 0, Want: "non-negative integer", Got: n})
	}
	if offset < 0 {
		return s.AddError(&TypeError{Clause: "LIMIT", Index: 1, Want: "non-negative integer", Got: offset})
	}
	return s.paginate(strconv.Itoa(n), strconv.Itoa(offset))
}

// LimitExpr sets the row count, and optionally the offset, from opaque SQL
// expressions such as placeholders returned by Bind.
func (s *Selector) LimitExpr(n string, offset ...string) *Selector {
	n = strings.TrimSpace(n)
	if n == "" {
		return s.AddError(&ArityError{Clause: "LIMIT", Expected: "1 or 2", Got: 0})
	}
	switch len(offset) {
	case 0:
		return s.paginate(n, "")
	case 1:
		off := strings.TrimSpace(offset[0])
		if off == "" {
			return s.AddError(&TypeError{Clause: "LIMIT", Index: 1, Want: "non-empty expression", Got: offset[0]})
		}
		return s.paginate(n, off)
	default:
		return s.AddError(&ArityError{Clause: "LIMIT", Expected: "1 or 2", Got: 1 + len(offset)})
	}
}

func (s *Selector) paginate(limit, offset string) *Selector {
	s.page = &pagination{limit: limit, offset: offset}
	s.last = ClausePagination
	return s
}

// ForUpdate sets the row lock flag. The lock clause text comes from the
// dialect; dialects without row-level locks render nothing.
func (s *Selector) ForUpdate() *Selector {
	s.lock = true
	return s
}

// DoLock is an alias for ForUpdate.
func (s *Selector) DoLock() *Selector { return s.ForUpdate() }

// AddError records err on the selector. Query fails while errors are recorded.
func (s *Selector) AddError(err error) *Selector {
	if err != nil {
		s.errs = append(s.errs, err)
	}
	return s
}

// Err returns the construction error and the errors recorded by failed
// clause calls, joined.
func (s *Selector) Err() error {
	if s.initErr != nil {
		return errors.Join(append([]error{s.initErr}, s.errs...)...)
	}
	return errors.Join(s.errs...)
}

// ClearErr drops the errors recorded by clause calls. Failed calls never
// mutate clause buffers, so the same Selector can be retried with corrected
// arguments.
func (s *Selector) ClearErr() *Selector {
	s.errs = nil
	return s
}

// Reset clears every clause buffer, the recorded errors and the binder,
// leaving the selector as if newly created.
func (s *Selector) Reset() *Selector {
	s.distinct = false
	s.projection = nil
	s.sources = nil
	s.filter = nil
	s.grouping = nil
	s.postFilter = nil
	s.ordering = nil
	s.page = nil
	s.lock = false
	s.last = ClauseNone
	s.errs = nil
	s.binder.Reset()
	return s
}

// Query returns the statement text and its arguments. Arguments follow the
// placeholders of the rendered text, whatever order the clauses were added
// in. It does not mutate the selector, so it may be called repeatedly.
func (s *Selector) Query() (string, []any, error) {
	text, err := s.assemble()
	if err != nil {
		return "", nil, err
	}
	if f, ok := s.binder.(Finalizer); ok {
		query, args := f.Finalize(text)
		return query, args, nil
	}
	return text, s.binder.Args(), nil
}

// Render returns the statement text of Query.
func (s *Selector) Render() (string, error) {
	query, _, err := s.Query()
	return query, err
}

// assemble joins the clause buffers in canonical order: projection,
// sources, filter, grouping, post-filter, ordering, pagination, lock.
func (s *Selector) assemble() (string, error) {
	if err := s.Err(); err != nil {
		return "", err
	}
	if len(s.projection) == 0 {
		return "", &InvalidStateError{Clause: "render", Last: s.last, Reason: "no columns were selected"}
	}
	var b strings.Builder
	b.WriteString("SELECT ")
	if s.distinct {
		b.WriteString("DISTINCT ")
	}
	b.WriteString(strings.Join(s.projection, ", "))
	switch {
	case len(s.sources) > 0:
		b.WriteString(" FROM ")
		for i, src := range s.sources {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(src.String())
		}
	default:
		if dummy, ok := s.caps.DummyTable(); ok {
			b.WriteString(" FROM ")
			b.WriteString(dummy)
		}
	}
	if len(s.filter) > 0 {
		b.WriteString(" WHERE ")
		writeConj(&b, s.filter)
	}
	if len(s.grouping) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(s.grouping, ", "))
	}
	if len(s.postFilter) > 0 {
		b.WriteString(" HAVING ")
		writeConj(&b, s.postFilter)
	}
	if len(s.ordering) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(s.ordering, ", "))
	}
	if s.page != nil {
		b.WriteString(" LIMIT ")
		b.WriteString(s.page.limit)
		if s.page.offset != "" {
			b.WriteString(" OFFSET ")
			b.WriteString(s.page.offset)
		}
	}
	if s.lock {
		if lc := s.caps.LockClause(); lc != "" {
			b.WriteByte(' ')
			b.WriteString(lc)
		}
	}
	return b.String(), nil
}

// String returns the rendered statement, or the error text if it cannot be
// rendered.
func (s *Selector) String() string {
	q, err := s.Render()
	if err != nil {
		return err.Error()
	}
	return q
}

func writeConj(b *strings.Builder, frags []Fragment) {
	for i, f := range frags {
		if i > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString(string(f))
	}
}

// flatten trims names and drops empty ones.
func flatten(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func flattenFragments(fs []Fragment) []Fragment {
	out := make([]Fragment, 0, len(fs))
	for _, f := range fs {
		if f = Fragment(strings.TrimSpace(string(f))); f != "" {
			out = append(out, f)
		}
	}
	return out
}
