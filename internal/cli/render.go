package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/syssam/selectq/internal/config"
	"github.com/syssam/selectq/internal/querydef"
)

// Output formats of the render command.
const (
	FormatText    = "text"
	FormatYAML    = "yaml"
	FormatMsgpack = "msgpack"
)

// Rendered is one rendered query definition.
type Rendered struct {
	File  string `yaml:"file" msgpack:"file"`
	Name  string `yaml:"name" msgpack:"name"`
	Query string `yaml:"query,omitempty" msgpack:"query,omitempty"`
	Args  []any  `yaml:"args,omitempty" msgpack:"args,omitempty"`
	Error string `yaml:"error,omitempty" msgpack:"error,omitempty"`
}

func newRenderCommand() *cobra.Command {
	var (
		watchFiles bool
		format     string
	)
	cmd := &cobra.Command{
		Use:   "render <file>...",
		Short: "Print the SQL of query definition files",
		Long: `Render every query definition in the given YAML files for the configured
dialect and print the statements with their bind arguments. Files are
rendered concurrently; output keeps the order of the arguments.`,
		Example: `  # Render for Postgres
  selectq render --dialect postgres queries/users.yaml

  # Re-render whenever a file changes
  selectq render --watch queries/*.yaml

  # Machine readable output
  selectq render --format yaml queries/*.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case FormatText, FormatYAML, FormatMsgpack:
			default:
				return fmt.Errorf("unknown format %q (want text, yaml or msgpack)", format)
			}
			ctx := cmd.Context()
			cfg := configFrom(ctx)
			logger := loggerFrom(ctx)
			w := cmd.OutOrStdout()

			err := renderAndWrite(ctx, cfg, args, format, w)
			if !watchFiles {
				return err
			}
			if err != nil {
				logger.Warn("render failed", "error", err)
			}
			return watch(ctx, logger, args, func(changed []string) {
				logger.Info("re-rendering", "files", changed)
				if err := renderAndWrite(ctx, cfg, changed, format, w); err != nil {
					logger.Warn("render failed", "error", err)
				}
			})
		},
	}
	cmd.Flags().BoolVarP(&watchFiles, "watch", "w", false, "re-render files when they change")
	cmd.Flags().StringVarP(&format, "format", "f", FormatText, "output format (text|yaml|msgpack)")
	return cmd
}

func renderAndWrite(ctx context.Context, cfg *config.Config, files []string, format string, w io.Writer) error {
	results, err := renderFiles(ctx, cfg, files)
	if err != nil {
		return err
	}
	if err := writeRendered(w, format, results); err != nil {
		return err
	}
	var failed int
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d statements failed to render", failed, len(results))
	}
	return nil
}

// renderFiles renders the files concurrently, one Selector per definition,
// and returns the results in argument order.
func renderFiles(ctx context.Context, cfg *config.Config, files []string) ([]Rendered, error) {
	perFile := make([][]Rendered, len(files))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range files {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				perFile[i] = renderFile(cfg, path)
				return nil
			}
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	var results []Rendered
	for _, rs := range perFile {
		results = append(results, rs...)
	}
	return results, nil
}

func renderFile(cfg *config.Config, path string) []Rendered {
	defs, err := querydef.ReadFile(path)
	if err != nil {
		return []Rendered{{File: path, Name: path, Error: err.Error()}}
	}
	results := make([]Rendered, 0, len(defs))
	for _, def := range defs {
		r := Rendered{File: path, Name: def.Name}
		query, args, err := def.Build(cfg.Selector()).Query()
		if err != nil {
			r.Error = err.Error()
		} else {
			r.Query, r.Args = query, plainArgs(args)
		}
		results = append(results, r)
	}
	return results
}

// plainArgs unwraps named arguments for display.
func plainArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		if na, ok := a.(sql.NamedArg); ok {
			a = na.Value
		}
		out[i] = a
	}
	return out
}

func writeRendered(w io.Writer, format string, results []Rendered) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(results); err != nil {
			return err
		}
		return enc.Close()
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(results)
	default:
		for _, r := range results {
			if r.Error != "" {
				_, _ = fmt.Fprintf(w, "-- %s\n-- error: %s\n", r.Name, r.Error)
				continue
			}
			_, _ = fmt.Fprintf(w, "-- %s\n%s;\n", r.Name, r.Query)
			if len(r.Args) > 0 {
				_, _ = fmt.Fprintf(w, "-- args: %v\n", r.Args)
			}
		}
		return nil
	}
}

// watchDebounce coalesces editor save bursts into one re-render.
const watchDebounce = 100 * time.Millisecond

// watch calls onChange with the changed files until ctx is done. The parent
// directories are watched so that files replaced by rename are still seen.
func watch(ctx context.Context, logger *slog.Logger, files []string, onChange func([]string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	tracked := make(map[string]string, len(files))
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		tracked[abs] = f
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	logger.Info("watching for changes", "files", len(files))

	var (
		pending = make(map[string]bool)
		fire    <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, ok := tracked[filepath.Clean(ev.Name)]
			if !ok || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			pending[name] = true
			fire = time.After(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		case <-fire:
			changed := make([]string, 0, len(pending))
			for name := range pending {
				changed = append(changed, name)
			}
			sort.Strings(changed)
			pending = make(map[string]bool)
			fire = nil
			onChange(changed)
		}
	}
}
