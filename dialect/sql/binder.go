package sql

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/syssam/selectq/dialect"
)

// Binder registers literal values and hands back the placeholder token to
// embed in statement text. Builders never store literal values themselves.
type Binder interface {
	// Bind registers v and returns its placeholder token.
	Bind(v any) string
	// Args returns the bound values in binding order, ready to be passed to
	// the driver.
	Args() []any
	// Len returns the number of bound values.
	Len() int
	// Reset drops every bound value and restarts the placeholder counter.
	Reset()
}

// Finalizer is implemented by binders whose tokens are rewritten once the
// statement text is complete. Finalize returns the statement with its final
// placeholders and the arguments in the order the driver expects them.
// Selectors use it instead of Args when the binder implements it.
type Finalizer interface {
	Finalize(query string) (string, []any)
}

// markerDelim brackets the tokens handed out for ordinal styles. It cannot
// appear in identifiers accepted by IdentResolver.
const markerDelim = "\x00"

// ParamBinder is the default Binder. The counter increases monotonically
// from 1 until Reset.
//
// Numbered and named styles ($n, :pn) return their final token from Bind.
// Ordinal styles (?, :n) are matched to values by position, and clauses are
// rendered in canonical order regardless of call order, so Bind returns an
// opaque marker instead. Finalize replaces the markers in order of
// appearance and returns the values in that same order.
type ParamBinder struct {
	style  dialect.PlaceholderStyle
	args   []any
	tokens []string
}

var _ Finalizer = (*ParamBinder)(nil)

// NewParamBinder returns a binder using the given placeholder style.
func NewParamBinder(style dialect.PlaceholderStyle) *ParamBinder {
	return &ParamBinder{style: style}
}

// Bind implements Binder.
func (b *ParamBinder) Bind(v any) string {
	b.args = append(b.args, v)
	n := len(b.args)
	tok := b.style.Format(n)
	if b.style.Ordinal() {
		tok = markerDelim + strconv.Itoa(n) + markerDelim
	}
	b.tokens = append(b.tokens, tok)
	return tok
}

// Args implements Binder. Values bound with the named style are returned
// as sql.NamedArg so database/sql binds them by name.
func (b *ParamBinder) Args() []any {
	if len(b.args) == 0 {
		return nil
	}
	args := make([]any, len(b.args))
	for i, v := range b.args {
		if b.style == dialect.PlaceholderNamed {
			v = sql.Named(strings.TrimPrefix(b.tokens[i], ":"), v)
		}
		args[i] = v
	}
	return args
}

// Finalize implements Finalizer. For ordinal styles, every marker in query
// becomes the dialect placeholder for its position and the returned values
// follow the markers, so a value whose marker appears twice is returned
// twice and values that never reached the statement are dropped. Other
// styles return query and Args unchanged.
func (b *ParamBinder) Finalize(query string) (string, []any) {
	if !b.style.Ordinal() {
		return query, b.Args()
	}
	var (
		out  strings.Builder
		args []any
		rest = query
	)
	for {
		i := strings.Index(rest, markerDelim)
		if i < 0 {
			break
		}
		j := strings.Index(rest[i+1:], markerDelim)
		if j < 0 {
			break
		}
		n, err := strconv.Atoi(rest[i+1 : i+1+j])
		if err != nil || n < 1 || n > len(b.args) {
			break
		}
		args = append(args, b.args[n-1])
		out.WriteString(rest[:i])
		out.WriteString(b.style.Format(len(args)))
		rest = rest[i+j+2:]
	}
	out.WriteString(rest)
	return out.String(), args
}

// Len implements Binder.
func (b *ParamBinder) Len() int { return len(b.args) }

// Reset implements Binder.
func (b *ParamBinder) Reset() {
	b.args = nil
	b.tokens = nil
}

// Value returns the literal bound to the token returned by Bind.
func (b *ParamBinder) Value(token string) (any, bool) {
	for i, t := range b.tokens {
		if t == token {
			return b.args[i], true
		}
	}
	return nil, false
}
