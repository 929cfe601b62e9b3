package sql

// Column is a typed column name. Its methods build fragments through an Expr,
// so comparisons against a column are checked against its Go type:
//
//	var (
//		Email = sql.Column[string]("u.email")
//		Age   = sql.Column[int]("u.age")
//	)
//	e := s.Expr()
//	s.Where(Email.HasPrefix(e, "admin"), Age.GTE(e, 18))
type Column[T any] string

// Name returns the raw column name.
func (c Column[T]) Name() string { return string(c) }

// EQ returns a "col = v" predicate.
func (c Column[T]) EQ(e *Expr, v T) Fragment { return e.EQ(string(c), v) }

// NEQ returns a "col <> v" predicate.
func (c Column[T]) NEQ(e *Expr, v T) Fragment { return e.NEQ(string(c), v) }

// GT returns a "col > v" predicate.
func (c Column[T]) GT(e *Expr, v T) Fragment { return e.GT(string(c), v) }

// GTE returns a "col >= v" predicate.
func (c Column[T]) GTE(e *Expr, v T) Fragment { return e.GTE(string(c), v) }

// LT returns a "col < v" predicate.
func (c Column[T]) LT(e *Expr, v T) Fragment { return e.LT(string(c), v) }

// LTE returns a "col <= v" predicate.
func (c Column[T]) LTE(e *Expr, v T) Fragment { return e.LTE(string(c), v) }

// In returns a "col IN (...)" predicate.
func (c Column[T]) In(e *Expr, vs ...T) Fragment { return e.In(string(c), anys(vs)...) }

// NotIn returns a "col NOT IN (...)" predicate.
func (c Column[T]) NotIn(e *Expr, vs ...T) Fragment { return e.NotIn(string(c), anys(vs)...) }

// Between returns a "col BETWEEN lo AND hi" predicate.
func (c Column[T]) Between(e *Expr, lo, hi T) Fragment { return e.Between(string(c), lo, hi) }

// IsNull returns a "col IS NULL" predicate.
func (c Column[T]) IsNull(e *Expr) Fragment { return e.IsNull(string(c)) }

// NotNull returns a "col IS NOT NULL" predicate.
func (c Column[T]) NotNull(e *Expr) Fragment { return e.NotNull(string(c)) }

// StringColumn is a Column of text with pattern predicates.
type StringColumn string

// Column returns c as a generic Column.
func (c StringColumn) Column() Column[string] { return Column[string](c) }

// EQ returns a "col = v" predicate.
func (c StringColumn) EQ(e *Expr, v string) Fragment { return e.EQ(string(c), v) }

// In returns a "col IN (...)" predicate.
func (c StringColumn) In(e *Expr, vs ...string) Fragment { return c.Column().In(e, vs...) }

// Contains returns a "col LIKE %v%" predicate.
func (c StringColumn) Contains(e *Expr, v string) Fragment { return e.Contains(string(c), v) }

// HasPrefix returns a "col LIKE v%" predicate.
func (c StringColumn) HasPrefix(e *Expr, v string) Fragment { return e.HasPrefix(string(c), v) }

// HasSuffix returns a "col LIKE %v" predicate.
func (c StringColumn) HasSuffix(e *Expr, v string) Fragment { return e.HasSuffix(string(c), v) }

// BoolColumn is a boolean column compared with the dialect's literals.
type BoolColumn string

// IsTrue returns a "col = TRUE" predicate in the dialect's spelling.
func (c BoolColumn) IsTrue(e *Expr) Fragment { return e.Bool(string(c), true) }

// IsFalse returns a "col = FALSE" predicate in the dialect's spelling.
func (c BoolColumn) IsFalse(e *Expr) Fragment { return e.Bool(string(c), false) }

func anys[T any](vs []T) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}
