// Package querydef decodes SELECT statements described in YAML and replays
// them on a sql.Selector.
//
//	select: [u.id, u.name]
//	entity: user            # or from: [users u]
//	joins:
//	  - {type: left, table: posts p, on: [u.id, p.user_id]}
//	where:
//	  - {col: u.active, bool: true}
//	  - {col: u.age, op: ">=", value: 18}
//	order_by: [u.name, {col: u.id, desc: true}]
//	limit: 10
package querydef

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-openapi/inflect"
	"gopkg.in/yaml.v3"

	"github.com/syssam/selectq/dialect/sql"
)

// Definition is one SELECT statement.
type Definition struct {
	Name     string      `yaml:"name,omitempty"`
	Distinct bool        `yaml:"distinct,omitempty"`
	Select   []string    `yaml:"select"`
	From     []string    `yaml:"from,omitempty"`
	Entity   string      `yaml:"entity,omitempty"`
	Alias    string      `yaml:"alias,omitempty"`
	UseIndex []string    `yaml:"use_index,omitempty"`
	Joins    []Join      `yaml:"joins,omitempty"`
	Where    []Predicate `yaml:"where,omitempty"`
	GroupBy  []string    `yaml:"group_by,omitempty"`
	Having   []Predicate `yaml:"having,omitempty"`
	OrderBy  []Order     `yaml:"order_by,omitempty"`
	Limit    *int        `yaml:"limit,omitempty"`
	Offset   *int        `yaml:"offset,omitempty"`
	Lock     bool        `yaml:"lock,omitempty"`
}

// Join is one join of the most recent FROM table.
type Join struct {
	Type  string `yaml:"type,omitempty"`
	Table any    `yaml:"table"`
	On    On     `yaml:"on"`
}

// On is a join condition: either a raw SQL condition or a pair of columns.
type On struct {
	Cond    string
	Columns []any
}

// UnmarshalYAML accepts a scalar condition or a sequence of columns.
func (o *On) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&o.Cond)
	case yaml.SequenceNode:
		return node.Decode(&o.Columns)
	default:
		return fmt.Errorf("querydef: line %d: join condition must be a string or a list of columns", node.Line)
	}
}

// Predicate is a WHERE or HAVING condition.
type Predicate struct {
	Raw   string `yaml:"raw,omitempty"`
	Col   string `yaml:"col,omitempty"`
	Op    string `yaml:"op,omitempty"`
	Value any    `yaml:"value,omitempty"`
	Bool  *bool  `yaml:"bool,omitempty"`
}

// Order is one ORDER BY term. A plain string is read as an ascending column.
type Order struct {
	Col  string `yaml:"col"`
	Desc bool   `yaml:"desc,omitempty"`
}

// UnmarshalYAML accepts "col" or {col: c, desc: true}.
func (o *Order) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&o.Col)
	}
	type plain Order
	return node.Decode((*plain)(o))
}

// Decode reads every YAML document in r. Unknown keys are rejected.
func Decode(r io.Reader) ([]*Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var defs []*Definition
	for {
		def := &Definition{}
		err := dec.Decode(def)
		if errors.Is(err, io.EOF) {
			return defs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("querydef: %w", err)
		}
		defs = append(defs, def)
	}
}

// Parse decodes the definitions in data.
func Parse(data []byte) ([]*Definition, error) {
	return Decode(bytes.NewReader(data))
}

// ReadFile decodes the definitions in the named file. Definitions without a
// name are named after the file and their position in it.
func ReadFile(path string) ([]*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	defs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for i, def := range defs {
		if def.Name == "" {
			def.Name = path
			if len(defs) > 1 {
				def.Name = fmt.Sprintf("%s#%d", path, i+1)
			}
		}
	}
	return defs, nil
}

var rules = inflect.NewDefaultRuleset()

// TableName returns the table of an entity: the plural, snake cased name.
//
//	User     -> users
//	BlogPost -> blog_posts
//	category -> categories
func TableName(entity string) string {
	return rules.Underscore(rules.Pluralize(strings.TrimSpace(entity)))
}

// Tables returns the FROM tables of the definition.
func (d *Definition) Tables() []string {
	if d.Entity == "" {
		return d.From
	}
	table := TableName(d.Entity)
	if d.Alias != "" {
		table += " " + d.Alias
	}
	return append([]string{table}, d.From...)
}

// Build replays the definition on s and returns it. Invalid definitions are
// recorded on the selector like any other failed clause call, so the result
// must be checked with s.Err or s.Query.
func (d *Definition) Build(s *sql.Selector) *sql.Selector {
	if d.Distinct {
		s.SelectDistinct(d.Select...)
	} else {
		s.Select(d.Select...)
	}
	if tables := d.Tables(); len(tables) > 0 {
		s.From(tables...)
	}
	if len(d.UseIndex) > 0 {
		s.UseIndex(d.UseIndex...)
	}
	for i, j := range d.Joins {
		kind, ok := sql.ParseJoinKind(j.Type)
		if !ok {
			s.AddError(fmt.Errorf("querydef: join %d: unknown join type %q", i+1, j.Type))
			continue
		}
		args := []any{j.Table}
		switch {
		case j.On.Cond != "":
			args = append(args, j.On.Cond)
		case len(j.On.Columns) > 0:
			args = append(args, j.On.Columns...)
		}
		s.Join(kind, args...)
	}
	e := s.Expr()
	if len(d.Where) > 0 {
		s.Where(predicates(s, e, "where", d.Where)...)
	}
	if len(d.GroupBy) > 0 {
		s.GroupBy(d.GroupBy...)
	}
	if len(d.Having) > 0 {
		s.Having(predicates(s, e, "having", d.Having)...)
	}
	for _, o := range d.OrderBy {
		if o.Desc {
			s.OrderBy(o.Col, sql.Desc)
		} else {
			s.OrderBy(o.Col)
		}
	}
	switch {
	case d.Limit != nil && d.Offset != nil:
		s.LimitOffset(*d.Limit, *d.Offset)
	case d.Limit != nil:
		s.Limit(*d.Limit)
	case d.Offset != nil:
		s.AddError(fmt.Errorf("querydef: offset %d requires a limit", *d.Offset))
	}
	if d.Lock {
		s.ForUpdate()
	}
	return s
}

func predicates(s *sql.Selector, e *sql.Expr, clause string, ps []Predicate) []sql.Fragment {
	frags := make([]sql.Fragment, 0, len(ps))
	for i, p := range ps {
		f, err := p.Fragment(e)
		if err != nil {
			s.AddError(fmt.Errorf("querydef: %s %d: %w", clause, i+1, err))
			continue
		}
		frags = append(frags, f)
	}
	return frags
}

// Fragment builds the predicate with e.
func (p Predicate) Fragment(e *sql.Expr) (sql.Fragment, error) {
	if p.Raw != "" {
		return e.P(p.Raw), nil
	}
	if p.Col == "" {
		return "", errors.New("predicate needs raw or col")
	}
	if p.Bool != nil {
		return e.Bool(p.Col, *p.Bool), nil
	}
	switch op := strings.ToLower(strings.TrimSpace(p.Op)); op {
	case "", "=", "eq":
		return e.EQ(p.Col, p.Value), nil
	case "<>", "!=", "neq":
		return e.NEQ(p.Col, p.Value), nil
	case ">", "gt":
		return e.GT(p.Col, p.Value), nil
	case ">=", "gte":
		return e.GTE(p.Col, p.Value), nil
	case "<", "lt":
		return e.LT(p.Col, p.Value), nil
	case "<=", "lte":
		return e.LTE(p.Col, p.Value), nil
	case "like", "contains", "has_prefix", "has_suffix":
		s, ok := p.Value.(string)
		if !ok {
			return "", fmt.Errorf("%s on %s needs a string value, got %T", op, p.Col, p.Value)
		}
		switch op {
		case "contains":
			return e.Contains(p.Col, s), nil
		case "has_prefix":
			return e.HasPrefix(p.Col, s), nil
		case "has_suffix":
			return e.HasSuffix(p.Col, s), nil
		}
		return e.Like(p.Col, s), nil
	case "in", "not_in", "not in":
		vs, ok := p.Value.([]any)
		if !ok {
			return "", fmt.Errorf("%s on %s needs a list value, got %T", op, p.Col, p.Value)
		}
		if op == "in" {
			return e.In(p.Col, vs...), nil
		}
		return e.NotIn(p.Col, vs...), nil
	case "is_null", "is null":
		return e.IsNull(p.Col), nil
	case "not_null", "is not null":
		return e.NotNull(p.Col), nil
	case "between":
		vs, ok := p.Value.([]any)
		if !ok || len(vs) != 2 {
			return "", fmt.Errorf("between on %s needs a [low, high] value", p.Col)
		}
		return e.Between(p.Col, vs[0], vs[1]), nil
	default:
		return "", fmt.Errorf("unknown operator %q", p.Op)
	}
}
