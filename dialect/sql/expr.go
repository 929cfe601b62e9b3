package sql

import (
	"strings"

	"github.com/syssam/selectq/dialect"
)

// Fragment is an opaque, already valid SQL boolean expression. Builders never
// parse or rewrite fragments; they only conjoin them.
type Fragment string

// String implements fmt.Stringer.
func (f Fragment) String() string { return string(f) }

// Expr builds boolean fragments. Column names go through the resolver and
// values through the binder of the Selector that created it, so the
// placeholders it embeds line up with the selector's arguments.
//
//	e := s.Expr()
//	s.Where(e.EQ("status", "active"), e.GT("age", 18))
type Expr struct {
	caps     dialect.Capabilities
	resolver Resolver
	binder   Binder
}

// NewExpr returns an expression builder over the given collaborators.
func NewExpr(caps dialect.Capabilities, r Resolver, b Binder) *Expr {
	return &Expr{caps: caps, resolver: r, binder: b}
}

// P wraps a raw SQL fragment.
func (e *Expr) P(raw string) Fragment { return Fragment(raw) }

// EQ returns a "col = v" predicate.
func (e *Expr) EQ(col string, v any) Fragment { return e.cmp(col, "=", v) }

// NEQ returns a "col <> v" predicate.
func (e *Expr) NEQ(col string, v any) Fragment { return e.cmp(col, "<>", v) }

// GT returns a "col > v" predicate.
func (e *Expr) GT(col string, v any) Fragment { return e.cmp(col, ">", v) }

// GTE returns a "col >= v" predicate.
func (e *Expr) GTE(col string, v any) Fragment { return e.cmp(col, ">=", v) }

// LT returns a "col < v" predicate.
func (e *Expr) LT(col string, v any) Fragment { return e.cmp(col, "<", v) }

// LTE returns a "col <= v" predicate.
func (e *Expr) LTE(col string, v any) Fragment { return e.cmp(col, "<=", v) }

// Like returns a "col LIKE pattern" predicate. The pattern is bound as is.
func (e *Expr) Like(col, pattern string) Fragment { return e.cmp(col, "LIKE", pattern) }

// Contains returns a predicate matching values that contain sub.
// LIKE metacharacters in sub are not escaped.
func (e *Expr) Contains(col, sub string) Fragment { return e.Like(col, "%"+sub+"%") }

// HasPrefix returns a predicate matching values that start with prefix.
func (e *Expr) HasPrefix(col, prefix string) Fragment { return e.Like(col, prefix+"%") }

// HasSuffix returns a predicate matching values that end with suffix.
func (e *Expr) HasSuffix(col, suffix string) Fragment { return e.Like(col, "%"+suffix) }

// In returns a "col IN (...)" predicate. An empty list matches nothing.
func (e *Expr) In(col string, vs ...any) Fragment {
	if len(vs) == 0 {
		return "1 = 0"
	}
	return Fragment(e.resolver.Resolve(col) + " IN (" + e.bindAll(vs) + ")")
}

// NotIn returns a "col NOT IN (...)" predicate. An empty list matches everything.
func (e *Expr) NotIn(col string, vs ...any) Fragment {
	if len(vs) == 0 {
		return "1 = 1"
	}
	return Fragment(e.resolver.Resolve(col) + " NOT IN (" + e.bindAll(vs) + ")")
}

// IsNull returns a "col IS NULL" predicate.
func (e *Expr) IsNull(col string) Fragment {
	return Fragment(e.resolver.Resolve(col) + " IS NULL")
}

// NotNull returns a "col IS NOT NULL" predicate.
func (e *Expr) NotNull(col string) Fragment {
	return Fragment(e.resolver.Resolve(col) + " IS NOT NULL")
}

// Between returns a "col BETWEEN lo AND hi" predicate.
func (e *Expr) Between(col string, lo, hi any) Fragment {
	return Fragment(e.resolver.Resolve(col) + " BETWEEN " + e.binder.Bind(lo) + " AND " + e.binder.Bind(hi))
}

// ColumnsEQ returns a "c1 = c2" predicate comparing two columns.
func (e *Expr) ColumnsEQ(c1, c2 string) Fragment {
	return Fragment(e.resolver.Resolve(c1) + " = " + e.resolver.Resolve(c2))
}

// Bool compares col with the dialect's boolean literal, e.g. "active = TRUE"
// on Postgres and "active = 1" on SQLite.
func (e *Expr) Bool(col string, v bool) Fragment {
	return Fragment(e.resolver.Resolve(col) + " = " + e.caps.BoolLiteral(v))
}

// And conjoins the non-empty fragments.
func (e *Expr) And(fs ...Fragment) Fragment { return junction(" AND ", fs) }

// Or disjoins the non-empty fragments.
func (e *Expr) Or(fs ...Fragment) Fragment { return junction(" OR ", fs) }

// Not negates f.
func (e *Expr) Not(f Fragment) Fragment {
	if f == "" {
		return ""
	}
	return "NOT (" + f + ")"
}

func (e *Expr) cmp(col, op string, v any) Fragment {
	return Fragment(e.resolver.Resolve(col) + " " + op + " " + e.binder.Bind(v))
}

func (e *Expr) bindAll(vs []any) string {
	tokens := make([]string, len(vs))
	for i, v := range vs {
		tokens[i] = e.binder.Bind(v)
	}
	return strings.Join(tokens, ", ")
}

func junction(sep string, fs []Fragment) Fragment {
	parts := make([]string, 0, len(fs))
	for _, f := range fs {
		if f != "" {
			parts = append(parts, string(f))
		}
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return Fragment(parts[0])
	default:
		return Fragment("(" + strings.Join(parts, sep) + ")")
	}
}
