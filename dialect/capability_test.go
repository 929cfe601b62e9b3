package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceholderStyle(t *testing.T) {
	tests := []struct {
		style      PlaceholderStyle
		want       string
		positional bool
		ordinal    bool
	}{
		{PlaceholderQuestion, "?", true, true},
		{PlaceholderDollar, "$3", false, false},
		{PlaceholderColon, ":3", false, true},
		{PlaceholderNamed, ":p3", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.style.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.style.Format(3))
			assert.Equal(t, tt.positional, tt.style.Positional())
			assert.Equal(t, tt.ordinal, tt.style.Ordinal())
		})
	}
}

func TestBuiltinDialects(t *testing.T) {
	tests := []struct {
		name      string
		dummy     string
		lock      string
		trueLit   string
		quoted    string
		style     PlaceholderStyle
		reservedW string
	}{
		{Postgres, "", "FOR UPDATE", "TRUE", `"order"`, PlaceholderDollar, "user"},
		{MySQL, "", "FOR UPDATE", "TRUE", "`order`", PlaceholderQuestion, "interval"},
		{SQLite, "", "", "1", `"order"`, PlaceholderQuestion, "glob"},
		{Oracle, "DUAL", "FOR UPDATE", "1", `"order"`, PlaceholderColon, "rownum"},
		{Generic, "", "FOR UPDATE", "TRUE", `"order"`, PlaceholderNamed, "select"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Get(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.name, c.Name())
			dummy, ok := c.DummyTable()
			assert.Equal(t, tt.dummy, dummy)
			assert.Equal(t, tt.dummy != "", ok)
			assert.Equal(t, tt.lock, c.LockClause())
			assert.Equal(t, tt.trueLit, c.BoolLiteral(true))
			assert.Equal(t, tt.quoted, c.QuoteIdent("order"))
			assert.Equal(t, tt.style, c.Placeholder())
			assert.True(t, c.IsReserved(tt.reservedW))
			assert.True(t, c.IsReserved("ORDER"), "reserved lookup is case-insensitive")
			assert.False(t, c.IsReserved("users"))
		})
	}
}

func TestQuoteIdentEscapes(t *testing.T) {
	assert.Equal(t, `"a""b"`, MustGet(Postgres).QuoteIdent(`a"b`))
	assert.Equal(t, "`a``b`", MustGet(MySQL).QuoteIdent("a`b"))
}

func TestRegister(t *testing.T) {
	_, err := Get("mssql")
	require.Error(t, err)

	Register(New(Config{
		Name: "mssql", True: "1", False: "0",
		QuoteOpen: "[", QuoteClose: "]", Style: PlaceholderNamed,
	}))
	c, err := Get("mssql")
	require.NoError(t, err)
	assert.Equal(t, "[x]]y]", c.QuoteIdent("x]y"))
	assert.Contains(t, Names(), "mssql")
	assert.Contains(t, Names(), Postgres)
}

func TestMustGetPanics(t *testing.T) {
	assert.Panics(t, func() { MustGet("nope") })
}
