package sql

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/selectq/dialect"
)

func TestSelectorEndToEnd(t *testing.T) {
	b := NewParamBinder(dialect.PlaceholderNamed)
	s := NewSelector(WithBinder(b))
	e := s.Expr()
	s.Select("id").From("users").Where(e.EQ("active", 1))

	query, args, err := s.Query()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM users WHERE active = :p1", query)
	require.Len(t, args, 1)
	v, ok := b.Value(":p1")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestSelectorCanonicalOrder(t *testing.T) {
	build := func(s *Selector) {
		e := s.Expr()
		s.ForUpdate().
			OrderBy("name", Desc).
			Limit(10).
			Select("dept", "COUNT(*) AS cnt").
			Where(e.P("salary > 100")).
			From("emp").
			GroupBy("dept").
			Having(e.P("COUNT(*) > 2"))
	}
	s1 := NewSelector()
	build(s1)
	require.NoError(t, s1.Err())

	s2 := NewSelector()
	s2.Select("dept", "COUNT(*) AS cnt").
		From("emp").
		Where("salary > 100").
		GroupBy("dept").
		Having("COUNT(*) > 2").
		OrderBy("name", Desc).
		Limit(10).
		ForUpdate()

	want := "SELECT dept, COUNT(*) AS cnt FROM emp WHERE salary > 100 GROUP BY dept HAVING COUNT(*) > 2 ORDER BY name DESC LIMIT 10 FOR UPDATE"
	for _, s := range []*Selector{s1, s2} {
		q, err := s.Render()
		require.NoError(t, err)
		assert.Equal(t, want, q)
	}
}

func TestSelectorRenderIdempotent(t *testing.T) {
	s := Dialect(dialect.Postgres).Select("id").From("users")
	e := s.Expr()
	s.Where(e.EQ("name", "a"))
	q1, args1, err := s.Query()
	require.NoError(t, err)
	q2, args2, err := s.Query()
	require.NoError(t, err)
	assert.Equal(t, q1, q2)
	assert.Equal(t, args1, args2)
	assert.Equal(t, q1, s.String())
}

func TestSelectorAccumulation(t *testing.T) {
	s1 := Select("a").Select("b")
	s2 := Select("a", "b")
	q1, err := s1.Render()
	require.NoError(t, err)
	q2, err := s2.Render()
	require.NoError(t, err)
	assert.Equal(t, "SELECT a, b", q1)
	assert.Equal(t, q1, q2)

	q, err := Select("*").From("t1").From("t2", "t3").
		Where("a = 1").Where("b = 2", "c = 3").
		GroupBy("x").GroupBy("y").
		OrderBy("x").OrderBy("y", Desc).
		Render()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t1, t2, t3 WHERE a = 1 AND b = 2 AND c = 3 GROUP BY x, y ORDER BY x, y DESC", q)
}

func TestSelectorDistinct(t *testing.T) {
	t.Run("DistinctThenPlain", func(t *testing.T) {
		s := SelectDistinct("a").Select("b")
		q, err := s.Render()
		require.NoError(t, err)
		assert.Equal(t, "SELECT DISTINCT a, b", q)
	})
	t.Run("DistinctTwice", func(t *testing.T) {
		q, err := SelectDistinct("a").SelectDistinct("b").Render()
		require.NoError(t, err)
		assert.Equal(t, "SELECT DISTINCT a, b", q)
	})
	t.Run("PlainThenDistinct", func(t *testing.T) {
		s := Select("a").SelectDistinct("b")
		err := s.Err()
		require.Error(t, err)
		assert.True(t, IsInvalidStateError(err))
		s.ClearErr()
		q, err := s.Render()
		require.NoError(t, err)
		assert.Equal(t, "SELECT a", q, "failed call must not mutate the projection")
	})
}

func TestSelectorArity(t *testing.T) {
	tests := []struct {
		name string
		call func(*Selector) *Selector
	}{
		{"Select", func(s *Selector) *Selector { return s.Select() }},
		{"SelectBlank", func(s *Selector) *Selector { return s.Select("", "  ") }},
		{"SelectDistinct", func(s *Selector) *Selector { return s.SelectDistinct() }},
		{"From", func(s *Selector) *Selector { return s.From() }},
		{"UseIndex", func(s *Selector) *Selector { return s.From("t").UseIndex() }},
		{"Where", func(s *Selector) *Selector { return s.Where() }},
		{"WhereEmpty", func(s *Selector) *Selector { return s.Where("", s.Expr().And()) }},
		{"GroupBy", func(s *Selector) *Selector { return s.GroupBy() }},
		{"Having", func(s *Selector) *Selector { return s.GroupBy("a").Having() }},
		{"OrderBy", func(s *Selector) *Selector { return s.OrderBy("") }},
		{"OrderByDirections", func(s *Selector) *Selector { return s.OrderBy("a", Asc, Desc) }},
		{"LimitExpr", func(s *Selector) *Selector { return s.LimitExpr("") }},
		{"LimitExprOffsets", func(s *Selector) *Selector { return s.LimitExpr("1", "2", "3") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call(NewSelector()).Err()
			require.Error(t, err)
			assert.True(t, IsArityError(err), "got %v", err)
			assert.True(t, errors.Is(err, ErrArity))
		})
	}
}

func TestSelectorHaving(t *testing.T) {
	t.Run("AfterGroupBy", func(t *testing.T) {
		s := Select("x").From("t").GroupBy("x").Having("COUNT(*) > 1").Having("SUM(y) < 5")
		q, err := s.Render()
		require.NoError(t, err)
		assert.Equal(t, "SELECT x FROM t GROUP BY x HAVING COUNT(*) > 1 AND SUM(y) < 5", q)
		assert.Equal(t, ClausePostFilter, s.Last())
	})
	t.Run("AfterWhere", func(t *testing.T) {
		s := Select("x").From("t").Where("a = 1").Having("b = 2")
		err := s.Err()
		require.Error(t, err)
		var se *InvalidStateError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, "HAVING", se.Clause)
		assert.Equal(t, ClauseFilter, se.Last)
		assert.Equal(t, ClauseFilter, s.Last(), "failed call keeps the clause state")
	})
	t.Run("StateCheckedBeforeArity", func(t *testing.T) {
		err := NewSelector().Having().Err()
		assert.True(t, IsInvalidStateError(err))
	})
}

func TestSelectorOrderByDirection(t *testing.T) {
	s := Select("a").From("t").OrderBy("a", Desc).OrderBy("b", Asc)
	q, err := s.Render()
	require.NoError(t, err)
	assert.Equal(t, "SELECT a FROM t ORDER BY a DESC, b", q)

	s.OrderBy("c", Direction(7))
	err = s.Err()
	require.Error(t, err)
	var te *TypeError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "ORDER BY", te.Clause)
	assert.Equal(t, 1, te.Index)
	assert.Contains(t, err.Error(), "Direction(7)")

	s.ClearErr()
	q, err = s.Render()
	require.NoError(t, err)
	assert.Equal(t, "SELECT a FROM t ORDER BY a DESC, b", q, "failed call leaves ordering untouched")
}

func TestSelectorRenderGuard(t *testing.T) {
	_, _, err := NewSelector().From("t").Query()
	require.Error(t, err)
	assert.True(t, IsInvalidStateError(err))

	_, err = NewSelector().Render()
	assert.True(t, errors.Is(err, ErrInvalidState))
}

func TestSelectorRenderReportsRecordedErrors(t *testing.T) {
	s := Select("a").From()
	_, _, err := s.Query()
	require.Error(t, err)
	assert.True(t, IsArityError(err))
	assert.Contains(t, s.String(), "FROM")
}

func TestSelectorPagination(t *testing.T) {
	s := Select("*").From("t").Limit(10).LimitOffset(5, 20)
	q, err := s.Render()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t LIMIT 5 OFFSET 20", q)

	s.Limit(3)
	q, err = s.Render()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t LIMIT 3", q)

	s.LimitExpr(s.Bind(7), s.Bind(14))
	q, err = s.Render()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t LIMIT :p1 OFFSET :p2", q)

	err = NewSelector().Limit(-1).Err()
	assert.True(t, IsTypeError(err))
	err = NewSelector().LimitOffset(1, -1).Err()
	assert.True(t, IsTypeError(err))
	err = NewSelector().LimitExpr("1", " ").Err()
	assert.True(t, IsTypeError(err))
}

func TestSelectorLock(t *testing.T) {
	tests := []struct {
		dialect string
		want    string
	}{
		{dialect.Postgres, "SELECT id FROM t FOR UPDATE"},
		{dialect.MySQL, "SELECT id FROM t FOR UPDATE"},
		{dialect.SQLite, "SELECT id FROM t"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			s := Dialect(tt.dialect).Select("id").From("t").DoLock().DoLock()
			q, err := s.Render()
			require.NoError(t, err)
			assert.Equal(t, tt.want, q)
		})
	}
}

func TestSelectorDummyTable(t *testing.T) {
	q, err := Dialect(dialect.Oracle).Select("1+1").Render()
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1+1 FROM DUAL", q)

	q, err = Dialect(dialect.Postgres).Select("1+1").Render()
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1+1", q)

	q, err = Dialect(dialect.Oracle).Select("id").From("t").Render()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM t", q)
}

func TestSelectorReset(t *testing.T) {
	fresh := NewSelector()
	_, _, freshErr := fresh.Query()

	s := NewSelector()
	e := s.Expr()
	s.SelectDistinct("a").From("t").Where(e.EQ("a", 1)).GroupBy("a").Limit(1).ForUpdate().From()
	require.Error(t, s.Err())

	s.Reset()
	assert.NoError(t, s.Err())
	assert.Equal(t, ClauseNone, s.Last())
	_, _, err := s.Query()
	require.Error(t, err)
	assert.Equal(t, freshErr.Error(), err.Error())

	s.Select("b").Where(s.Expr().EQ("b", 2))
	q, args, err := s.Query()
	require.NoError(t, err)
	assert.Equal(t, "SELECT b WHERE b = :p1", q, "binder counter restarts and distinct is cleared")
	assert.Len(t, args, 1)
}

func TestSelectorUseIndex(t *testing.T) {
	s := Dialect(dialect.MySQL).Select("*").
		From("users u").UseIndex("idx_a", "idx_b").
		InnerJoin("posts p", "u.id", "p.user_id")
	q, err := s.Render()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users u USE INDEX (idx_a, idx_b) INNER JOIN posts p ON u.id = p.user_id", q)

	err = NewSelector().UseIndex("idx").Err()
	assert.True(t, IsInvalidStateError(err))
}

func TestSelectorQuoting(t *testing.T) {
	q, err := Dialect(dialect.MySQL).Select("order", "u.Name").From("user u").OrderBy("order", Desc).Render()
	require.NoError(t, err)
	assert.Equal(t, "SELECT `order`, u.`Name` FROM user u ORDER BY `order` DESC", q)

	q, err = Dialect(dialect.Postgres, WithQuoteMode(QuoteAlways)).Select("id").From("users").Render()
	require.NoError(t, err)
	assert.Equal(t, `SELECT "id" FROM "users"`, q)

	q, err = Dialect(dialect.Postgres).Select("id").From("users; DROP TABLE users").Render()
	require.NoError(t, err)
	assert.Equal(t, `SELECT id FROM "users; DROP TABLE users"`, q)
}

func TestDialectBuilderUnknown(t *testing.T) {
	s := Dialect("nosuch").Select("a")
	err := s.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nosuch")

	fresh := Dialect("nosuch").New()
	_, _, freshErr := fresh.Query()
	require.Error(t, freshErr)

	s.Reset()
	require.Error(t, s.Err(), "reset keeps the construction error")
	_, _, err = s.Query()
	require.Error(t, err)
	assert.Equal(t, freshErr.Error(), err.Error())

	_, _, err = s.Select("a").ClearErr().Query()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown dialect "nosuch"`)
}

func TestSelectorArgsFollowRenderedOrder(t *testing.T) {
	tests := []struct {
		dialect string
		want    string
		args    []any
	}{
		{dialect.MySQL, "SELECT a, COUNT(*) AS cnt FROM t WHERE b = ? GROUP BY a HAVING COUNT(*) > ? LIMIT ?", []any{1, 5, 10}},
		{dialect.SQLite, "SELECT a, COUNT(*) AS cnt FROM t WHERE b = ? GROUP BY a HAVING COUNT(*) > ? LIMIT ?", []any{1, 5, 10}},
		{dialect.Oracle, "SELECT a, COUNT(*) AS cnt FROM t WHERE b = :1 GROUP BY a HAVING COUNT(*) > :2 LIMIT :3", []any{1, 5, 10}},
		{dialect.Postgres, "SELECT a, COUNT(*) AS cnt FROM t WHERE b = $3 GROUP BY a HAVING COUNT(*) > $2 LIMIT $1", []any{10, 5, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			s := Dialect(tt.dialect).Select("a", "COUNT(*) AS cnt").From("t")
			e := s.Expr()
			s.LimitExpr(s.Bind(10))
			s.GroupBy("a").Having(e.GT("COUNT(*)", 5)).Where(e.EQ("b", 1))
			q, args, err := s.Query()
			require.NoError(t, err)
			assert.Equal(t, tt.want, q)
			assert.Equal(t, tt.args, args)

			q2, args2, err := s.Query()
			require.NoError(t, err)
			assert.Equal(t, q, q2)
			assert.Equal(t, args, args2)
		})
	}
}

func TestSelectorPlaceholders(t *testing.T) {
	tests := []struct {
		dialect string
		want    string
	}{
		{dialect.Postgres, "SELECT id FROM t WHERE a = $1 AND b IN ($2, $3)"},
		{dialect.MySQL, "SELECT id FROM t WHERE a = ? AND b IN (?, ?)"},
		{dialect.Oracle, "SELECT id FROM t WHERE a = :1 AND b IN (:2, :3)"},
		{dialect.Generic, "SELECT id FROM t WHERE a = :p1 AND b IN (:p2, :p3)"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			s := Dialect(tt.dialect).Select("id").From("t")
			e := s.Expr()
			q, args, err := s.Where(e.EQ("a", 1), e.In("b", 2, 3)).Query()
			require.NoError(t, err)
			assert.Equal(t, tt.want, q)
			assert.Len(t, args, 3)
		})
	}
}
