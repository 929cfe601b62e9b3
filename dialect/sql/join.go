package sql

import "strings"

// JoinKind is the type of a table join.
type JoinKind uint8

// Join kinds.
const (
	JoinInner JoinKind = iota
	JoinLeft
	JoinLeftOuter
	JoinRight
)

// String returns the join keyword, e.g. "LEFT OUTER JOIN".
func (k JoinKind) String() string {
	switch k {
	case JoinLeft:
		return "LEFT JOIN"
	case JoinLeftOuter:
		return "LEFT OUTER JOIN"
	case JoinRight:
		return "RIGHT JOIN"
	default:
		return "INNER JOIN"
	}
}

// ParseJoinKind parses "inner", "left", "left outer" and "right"
// (case-insensitive, an optional trailing "join" is ignored).
func ParseJoinKind(s string) (JoinKind, bool) {
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	s = strings.TrimSuffix(strings.TrimSuffix(s, "join"), " ")
	switch s {
	case "", "inner":
		return JoinInner, true
	case "left":
		return JoinLeft, true
	case "left outer", "left_outer":
		return JoinLeftOuter, true
	case "right":
		return JoinRight, true
	}
	return JoinInner, false
}

// InnerJoin appends an INNER JOIN. See Join for the accepted arguments.
func (s *Selector) InnerJoin(args ...any) *Selector { return s.Join(JoinInner, args...) }

// LeftJoin appends a LEFT JOIN. See Join for the accepted arguments.
func (s *Selector) LeftJoin(args ...any) *Selector { return s.Join(JoinLeft, args...) }

// LeftOuterJoin appends a LEFT OUTER JOIN. See Join for the accepted arguments.
func (s *Selector) LeftOuterJoin(args ...any) *Selector { return s.Join(JoinLeftOuter, args...) }

// RightJoin appends a RIGHT JOIN. See Join for the accepted arguments.
func (s *Selector) RightJoin(args ...any) *Selector { return s.Join(JoinRight, args...) }

// Join extends the most recent FROM table with "<KIND> JOIN <table> ON <cond>".
// Two call shapes are accepted:
//
//	s.Join(sql.JoinLeft, "posts p", "u.id = p.user_id")    // opaque condition (string or Fragment)
//	s.Join(sql.JoinLeft, "posts p", "u.id", "p.user_id")   // column equality
//
// A join must directly follow From, UseIndex or another join.
func (s *Selector) Join(kind JoinKind, args ...any) *Selector {
	clause := kind.String()
	if !s.last.allowsJoin() || len(s.sources) == 0 {
		return s.AddError(&InvalidStateError{
			Clause: clause,
			Last:   s.last,
			Reason: "must directly follow FROM or USE INDEX",
		})
	}
	frag, err := s.joinFragment(kind, args)
	if err != nil {
		return s.AddError(err)
	}
	src := &s.sources[len(s.sources)-1]
	src.joins = append(src.joins, frag)
	s.last = ClauseSource
	return s
}

func (s *Selector) joinFragment(kind JoinKind, args []any) (string, error) {
	clause := kind.String()
	if len(args) != 2 && len(args) != 3 {
		return "", &ArityError{Clause: clause, Expected: "2 or 3", Got: len(args)}
	}
	table, ok := nonEmptyString(args[0])
	if !ok {
		return "", &TypeError{Clause: clause, Index: 0, Want: "table name", Got: args[0]}
	}
	var cond string
	if len(args) == 2 {
		switch c := args[1].(type) {
		case Fragment:
			cond = strings.TrimSpace(string(c))
		case string:
			cond = strings.TrimSpace(c)
		}
		if cond == "" {
			return "", &TypeError{Clause: clause, Index: 1, Want: "join condition", Got: args[1]}
		}
	} else {
		left, ok := nonEmptyString(args[1])
		if !ok {
			return "", &TypeError{Clause: clause, Index: 1, Want: "column name", Got: args[1]}
		}
		right, ok := nonEmptyString(args[2])
		if !ok {
			return "", &TypeError{Clause: clause, Index: 2, Want: "column name", Got: args[2]}
		}
		cond = s.resolver.Resolve(left) + " = " + s.resolver.Resolve(right)
	}
	return clause + " " + s.resolver.Resolve(table) + " ON " + cond, nil
}

func nonEmptyString(v any) (string, bool) {
	str, ok := v.(string)
	if !ok {
		return "", false
	}
	str = strings.TrimSpace(str)
	return str, str != ""
}

// JoinFragment renders "<table1> <KIND> JOIN <table2> ON <col1> = <col2>"
// without touching any builder state.
//
// Deprecated: build the condition with Expr.ColumnsEQ and call Selector.Join
// after Selector.From, which enforces clause order.
func JoinFragment(r Resolver, kind JoinKind, table1, table2, col1, col2 string) string {
	return r.Resolve(table1) + " " + kind.String() + " " + r.Resolve(table2) +
		" ON " + r.Resolve(col1) + " = " + r.Resolve(col2)
}
