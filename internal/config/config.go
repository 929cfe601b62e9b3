// Package config loads selectq settings from defaults, a YAML file,
// SELECTQ_ environment variables and command line flags, in increasing
// order of precedence.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/syssam/selectq/dialect"
	"github.com/syssam/selectq/dialect/sql"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "SELECTQ_"

// Default configuration values.
const (
	DefaultDriver        = "sqlite"
	DefaultDSN           = ":memory:"
	DefaultQuote         = "as-needed"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
	DefaultSlowThreshold = 100 * time.Millisecond
)

// configFiles are looked up in the working directory when no file is given.
var configFiles = []string{"selectq.yaml", "selectq.yml", ".selectq.yaml"}

// Config holds the resolved settings.
type Config struct {
	// Dialect names the SQL dialect statements are rendered for. When empty
	// it is derived from Driver.
	Dialect       string        `koanf:"dialect"`
	Driver        string        `koanf:"driver"`
	DSN           string        `koanf:"dsn"`
	Quote         string        `koanf:"quote"`
	SlowThreshold time.Duration `koanf:"slow_threshold"`
	Log           LogConfig     `koanf:"log"`

	// File is the configuration file that was loaded, if any.
	File string `koanf:"-"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Load reads the configuration. cfgFile may be empty, in which case the
// default file names are tried. flags may be nil; only flags that were set
// explicitly override other sources.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{
		"driver":         DefaultDriver,
		"dsn":            DefaultDSN,
		"quote":          DefaultQuote,
		"slow_threshold": DefaultSlowThreshold.String(),
		"log.level":      DefaultLogLevel,
		"log.format":     DefaultLogFormat,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	path := findConfigFile(cfgFile)
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	// SELECTQ_LOG_LEVEL -> log.level, SELECTQ_SLOW_THRESHOLD -> slow_threshold
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return flagKey(f.Name), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = path
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range configFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if rest, ok := strings.CutPrefix(key, "log_"); ok {
		return "log." + rest
	}
	return key
}

func flagKey(name string) string {
	if rest, ok := strings.CutPrefix(name, "log-"); ok {
		return "log." + rest
	}
	return strings.ReplaceAll(name, "-", "_")
}

// Validate resolves the dialect and checks every enumerated setting.
func (c *Config) Validate() error {
	if c.Dialect == "" {
		c.Dialect = dialect.Generic
		if d := sql.DialectOf(c.Driver); d != "" {
			if _, err := dialect.Get(d); err == nil {
				c.Dialect = d
			}
		}
	}
	if _, err := dialect.Get(c.Dialect); err != nil {
		return fmt.Errorf("config: %w (known: %s)", err, strings.Join(dialect.Names(), ", "))
	}
	if _, ok := sql.ParseQuoteMode(c.Quote); !ok {
		return fmt.Errorf("config: invalid quote mode %q (want as-needed or always)", c.Quote)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: invalid log format %q (want text or json)", c.Log.Format)
	}
	if c.SlowThreshold < 0 {
		return fmt.Errorf("config: slow_threshold must not be negative, got %s", c.SlowThreshold)
	}
	return nil
}

// QuoteMode returns the parsed quote mode.
func (c *Config) QuoteMode() sql.QuoteMode {
	mode, _ := sql.ParseQuoteMode(c.Quote)
	return mode
}

// Selector returns an empty Selector for the configured dialect and quote mode.
func (c *Config) Selector() *sql.Selector {
	return sql.Dialect(c.Dialect, sql.WithQuoteMode(c.QuoteMode())).New()
}

// Logger builds a slog logger writing to w with the configured level and format.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: invalid log level %q: %w", s, err)
	}
	return level, nil
}
