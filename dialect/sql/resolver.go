package sql

import (
	"regexp"
	"strings"

	"github.com/syssam/selectq/dialect"
)

// Resolver maps raw table and column names to safe SQL tokens. Clause
// accumulators call it once per raw name and embed the result verbatim.
// It is never applied to opaque fragments (filters, join conditions).
type Resolver interface {
	Resolve(name string) string
	ResolveAll(names []string) []string
}

// QuoteMode controls when IdentResolver quotes identifiers.
type QuoteMode uint8

const (
	// QuoteAsNeeded quotes reserved words and identifiers that would not
	// survive case folding (anything outside [a-z0-9_]).
	QuoteAsNeeded QuoteMode = iota
	// QuoteAlways quotes every identifier part.
	QuoteAlways
)

// ParseQuoteMode parses "as-needed" or "always".
func ParseQuoteMode(s string) (QuoteMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "as-needed", "as_needed":
		return QuoteAsNeeded, true
	case "always":
		return QuoteAlways, true
	}
	return QuoteAsNeeded, false
}

var (
	// pathRe matches dotted identifier paths like "t.c", "s.t.c" or "t.*".
	pathRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*(\.([A-Za-z_][A-Za-z0-9_$]*|\*))*$`)
	// identRe matches a single unquoted identifier.
	identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)
	// plainRe matches identifiers that never need quoting.
	plainRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
	// wordsRe matches bare word sequences like "t UNION SELECT x".
	wordsRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*(\s+[A-Za-z_][A-Za-z0-9_$]*)+$`)
)

// IdentResolver is the default Resolver. It quotes identifier parts with the
// dialect's quoting rules and keeps expressions (function calls, literals,
// already quoted names) untouched. Anything else, including text carrying a
// statement separator or comment, is quoted as a single identifier.
type IdentResolver struct {
	caps dialect.Capabilities
	mode QuoteMode
}

// NewIdentResolver returns a resolver for the given dialect.
func NewIdentResolver(caps dialect.Capabilities, mode QuoteMode) *IdentResolver {
	return &IdentResolver{caps: caps, mode: mode}
}

// Resolve implements Resolver.
//
//	id              -> id
//	order           -> "order"
//	u.id            -> u.id
//	users u         -> users u
//	name AS n       -> name AS n
//	COUNT(*) AS cnt -> COUNT(*) AS cnt
//	t; DROP TABLE t -> "t; DROP TABLE t"
func (r *IdentResolver) Resolve(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || name == "*" {
		return name
	}
	if pathRe.MatchString(name) {
		return r.path(name)
	}
	if expr, alias, as, ok := splitAlias(name); ok {
		sep := " "
		if as {
			sep = " AS "
		}
		return r.Resolve(expr) + sep + r.part(alias)
	}
	if !safeExpr(name) {
		return r.caps.QuoteIdent(name)
	}
	return name
}

// ResolveAll implements Resolver.
func (r *IdentResolver) ResolveAll(names []string) []string {
	tokens := make([]string, len(names))
	for i, n := range names {
		tokens[i] = r.Resolve(n)
	}
	return tokens
}

func (r *IdentResolver) path(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if p != "*" {
			parts[i] = r.part(p)
		}
	}
	return strings.Join(parts, ".")
}

func (r *IdentResolver) part(p string) string {
	if r.mode == QuoteAlways || r.caps.IsReserved(p) || !plainRe.MatchString(p) {
		return r.caps.QuoteIdent(p)
	}
	return p
}

// safeExpr reports whether name can be embedded as an expression. Statement
// separators, comments, unbalanced quotes or parentheses and bare runs of
// three or more words are not expressions.
func safeExpr(name string) bool {
	for _, bad := range []string{";", "--", "/*", "*/", markerDelim} {
		if strings.Contains(name, bad) {
			return false
		}
	}
	if wordsRe.MatchString(name) {
		return false
	}
	var (
		depth int
		quote rune
	)
	for _, c := range name {
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			if depth--; depth < 0 {
				return false
			}
		}
	}
	return quote == 0 && depth == 0
}

// splitAlias splits "expr AS alias" and "table alias" forms. The boolean as
// reports whether the AS keyword was present.
func splitAlias(name string) (expr, alias string, as, ok bool) {
	if i := strings.LastIndex(strings.ToLower(name), " as "); i > 0 {
		expr, alias = strings.TrimSpace(name[:i]), strings.TrimSpace(name[i+4:])
		if expr != "" && identRe.MatchString(alias) {
			return expr, alias, true, true
		}
	}
	if f := strings.Fields(name); len(f) == 2 && pathRe.MatchString(f[0]) && identRe.MatchString(f[1]) {
		return f[0], f[1], false, true
	}
	return "", "", false, false
}
