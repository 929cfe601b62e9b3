package dialect

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// PlaceholderStyle describes how bind parameters are spelled in statement text.
type PlaceholderStyle uint8

// Placeholder styles.
const (
	// PlaceholderQuestion renders every parameter as "?".
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar renders parameters as "$1", "$2", ...
	PlaceholderDollar
	// PlaceholderColon renders parameters as ":1", ":2", ...
	PlaceholderColon
	// PlaceholderNamed renders parameters as ":p1", ":p2", ...
	PlaceholderNamed
)

// Format returns the placeholder token for the n-th (1-based) parameter.
func (s PlaceholderStyle) Format(n int) string {
	switch s {
	case PlaceholderDollar:
		return "$" + strconv.Itoa(n)
	case PlaceholderColon:
		return ":" + strconv.Itoa(n)
	case PlaceholderNamed:
		return ":p" + strconv.Itoa(n)
	default:
		return "?"
	}
}

// Positional reports whether the style produces the same token for every
// parameter, so values can only be matched to tokens by order.
func (s PlaceholderStyle) Positional() bool {
	return s == PlaceholderQuestion
}

// Ordinal reports whether drivers match values to placeholders by their
// order of appearance in the statement text rather than by name or number.
func (s PlaceholderStyle) Ordinal() bool {
	return s == PlaceholderQuestion || s == PlaceholderColon
}

// String returns the style name.
func (s PlaceholderStyle) String() string {
	switch s {
	case PlaceholderDollar:
		return "dollar"
	case PlaceholderColon:
		return "colon"
	case PlaceholderNamed:
		return "named"
	default:
		return "question"
	}
}

// Capabilities isolates the places where SQL dialects diverge from each
// other. The statement builders only talk to this interface, so adding a
// dialect means implementing it (or building one from a Config) and
// registering it, never branching inside a builder.
type Capabilities interface {
	// Name returns the dialect name.
	Name() string
	// DummyTable returns the table a dialect requires for table-less
	// projections such as SELECT 1+1. The boolean is false when none is needed.
	DummyTable() (string, bool)
	// LockClause returns the row-locking suffix, or "" if the dialect has no
	// row-level locks.
	LockClause() string
	// BoolLiteral returns the spelling of a boolean literal.
	BoolLiteral(v bool) string
	// QuoteIdent quotes a single identifier part.
	QuoteIdent(name string) string
	// Placeholder returns the bind parameter style.
	Placeholder() PlaceholderStyle
	// IsReserved reports whether word must be quoted to be used as an identifier.
	IsReserved(word string) bool
}

// Config is the plain data description of a dialect. It is turned into
// Capabilities by New.
type Config struct {
	Name        string
	Dummy       string // dummy table; empty if not required
	Lock        string // row lock clause; empty if unsupported
	True, False string
	QuoteOpen   string
	QuoteClose  string
	Style       PlaceholderStyle
	Reserved    []string
}

// New builds Capabilities from the given configuration.
func New(cfg Config) Capabilities {
	c := &capabilities{cfg: cfg, reserved: make(map[string]struct{}, len(cfg.Reserved))}
	for _, w := range cfg.Reserved {
		c.reserved[strings.ToLower(w)] = struct{}{}
	}
	return c
}

type capabilities struct {
	cfg      Config
	reserved map[string]struct{}
}

func (c *capabilities) Name() string { return c.cfg.Name }

func (c *capabilities) DummyTable() (string, bool) {
	return c.cfg.Dummy, c.cfg.Dummy != ""
}

func (c *capabilities) LockClause() string { return c.cfg.Lock }

func (c *capabilities) BoolLiteral(v bool) string {
	if v {
		return c.cfg.True
	}
	return c.cfg.False
}

func (c *capabilities) QuoteIdent(name string) string {
	if c.cfg.QuoteClose != "" {
		name = strings.ReplaceAll(name, c.cfg.QuoteClose, c.cfg.QuoteClose+c.cfg.QuoteClose)
	}
	return c.cfg.QuoteOpen + name + c.cfg.QuoteClose
}

func (c *capabilities) Placeholder() PlaceholderStyle { return c.cfg.Style }

func (c *capabilities) IsReserved(word string) bool {
	_, ok := c.reserved[strings.ToLower(word)]
	return ok
}

// commonReserved is the set of keywords reserved by every supported dialect.
var commonReserved = []string{
	"all", "and", "as", "asc", "between", "by", "case", "check", "column",
	"constraint", "create", "cross", "default", "delete", "desc", "distinct",
	"drop", "else", "exists", "for", "foreign", "from", "group", "having",
	"in", "index", "inner", "insert", "into", "is", "join", "key", "left",
	"like", "limit", "not", "null", "on", "or", "order", "outer", "primary",
	"references", "right", "select", "set", "table", "then", "to", "union",
	"unique", "update", "using", "values", "when", "where", "with",
}

func reserved(extra ...string) []string {
	return append(append([]string(nil), commonReserved...), extra...)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Capabilities{}
)

func init() {
	for _, c := range []Capabilities{
		New(Config{
			Name: Postgres, Lock: "FOR UPDATE", True: "TRUE", False: "FALSE",
			QuoteOpen: `"`, QuoteClose: `"`, Style: PlaceholderDollar,
			Reserved: reserved("user", "offset", "returning", "analyse", "analyze", "only", "window", "fetch", "ilike"),
		}),
		New(Config{
			Name: MySQL, Lock: "FOR UPDATE", True: "TRUE", False: "FALSE",
			QuoteOpen: "`", QuoteClose: "`", Style: PlaceholderQuestion,
			Reserved: reserved("interval", "match", "range", "read", "rlike", "usage", "status"),
		}),
		New(Config{
			Name: SQLite, True: "1", False: "0",
			QuoteOpen: `"`, QuoteClose: `"`, Style: PlaceholderQuestion,
			Reserved: reserved("offset", "glob", "regexp", "vacuum", "pragma"),
		}),
		New(Config{
			Name: Oracle, Dummy: "DUAL", Lock: "FOR UPDATE", True: "1", False: "0",
			QuoteOpen: `"`, QuoteClose: `"`, Style: PlaceholderColon,
			Reserved: reserved("user", "level", "rownum", "size", "uid", "number", "date", "comment"),
		}),
		New(Config{
			Name: Generic, Lock: "FOR UPDATE", True: "TRUE", False: "FALSE",
			QuoteOpen: `"`, QuoteClose: `"`, Style: PlaceholderNamed,
			Reserved: reserved(),
		}),
	} {
		Register(c)
	}
}

// Register makes a dialect available by its name. Registering a name twice
// replaces the previous entry.
func Register(c Capabilities) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[c.Name()] = c
}

// Get returns the registered dialect with the given name.
func Get(name string) (Capabilities, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	c, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("dialect: unknown dialect %q", name)
	}
	return c, nil
}

// MustGet is like Get but panics if the dialect is not registered.
func MustGet(name string) Capabilities {
	c, err := Get(name)
	if err != nil {
		panic(err)
	}
	return c
}

// Names returns the registered dialect names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
