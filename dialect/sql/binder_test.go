package sql

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/selectq/dialect"
)

func TestParamBinder(t *testing.T) {
	tests := []struct {
		style dialect.PlaceholderStyle
		want  string
	}{
		{dialect.PlaceholderQuestion, "a = ? AND b IN (?, ?)"},
		{dialect.PlaceholderDollar, "a = $1 AND b IN ($2, $3)"},
		{dialect.PlaceholderColon, "a = :1 AND b IN (:2, :3)"},
		{dialect.PlaceholderNamed, "a = :p1 AND b IN (:p2, :p3)"},
	}
	for _, tt := range tests {
		t.Run(tt.style.String(), func(t *testing.T) {
			b := NewParamBinder(tt.style)
			assert.Nil(t, b.Args())
			var tokens []string
			for _, v := range []any{"a", 2, nil} {
				tokens = append(tokens, b.Bind(v))
			}
			assert.Equal(t, 3, b.Len())
			assert.Len(t, b.Args(), 3)
			q, args := b.Finalize("a = " + tokens[0] + " AND b IN (" + tokens[1] + ", " + tokens[2] + ")")
			assert.Equal(t, tt.want, q)
			assert.Len(t, args, 3)

			first := tokens[0]
			b.Reset()
			assert.Zero(t, b.Len())
			assert.Nil(t, b.Args())
			assert.Equal(t, first, b.Bind("again"), "counter restarts after reset")
		})
	}
}

func TestParamBinderFinalizeOrdinal(t *testing.T) {
	for _, style := range []dialect.PlaceholderStyle{dialect.PlaceholderQuestion, dialect.PlaceholderColon} {
		t.Run(style.String(), func(t *testing.T) {
			b := NewParamBinder(style)
			having := b.Bind(5)
			where := b.Bind(1)
			b.Bind("unused")
			q, args := b.Finalize("WHERE b = " + where + " OR c = " + where + " HAVING n > " + having)
			assert.Equal(t, []any{1, 1, 5}, args, "values follow the text, repeats included, unused dropped")
			if style == dialect.PlaceholderQuestion {
				assert.Equal(t, "WHERE b = ? OR c = ? HAVING n > ?", q)
			} else {
				assert.Equal(t, "WHERE b = :1 OR c = :2 HAVING n > :3", q)
			}

			q, args = b.Finalize("SELECT 1")
			assert.Equal(t, "SELECT 1", q)
			assert.Empty(t, args)
		})
	}
}

func TestParamBinderArgs(t *testing.T) {
	b := NewParamBinder(dialect.PlaceholderDollar)
	b.Bind("x")
	b.Bind(42)
	assert.Equal(t, []any{"x", 42}, b.Args())

	nb := NewParamBinder(dialect.PlaceholderNamed)
	nb.Bind("x")
	nb.Bind(42)
	assert.Equal(t, []any{sql.Named("p1", "x"), sql.Named("p2", 42)}, nb.Args())
}

func TestParamBinderValue(t *testing.T) {
	b := NewParamBinder(dialect.PlaceholderNamed)
	tok := b.Bind("john")
	v, ok := b.Value(tok)
	require.True(t, ok)
	assert.Equal(t, "john", v)
	_, ok = b.Value(":p9")
	assert.False(t, ok)

	q := NewParamBinder(dialect.PlaceholderQuestion)
	q.Bind(0)
	v, ok = q.Value(q.Bind(1))
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

type recordingBinder struct {
	values []any
}

func (b *recordingBinder) Bind(v any) string {
	b.values = append(b.values, v)
	return "@v"
}

func (b *recordingBinder) Args() []any { return b.values }
func (b *recordingBinder) Len() int    { return len(b.values) }
func (b *recordingBinder) Reset()      { b.values = nil }

func TestCustomBinder(t *testing.T) {
	b := &recordingBinder{}
	s := NewSelector(WithBinder(b))
	e := s.Expr()
	q, args, err := s.Select("id").From("t").Where(e.EQ("a", 1), e.Between("b", 2, 3)).Query()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM t WHERE a = @v AND b BETWEEN @v AND @v", q)
	assert.Equal(t, []any{1, 2, 3}, args)

	s.Reset()
	assert.Zero(t, b.Len())
}
