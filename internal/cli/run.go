package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	// Drivers available to the run command.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/syssam/selectq/dialect/sql"
	"github.com/syssam/selectq/internal/config"
	"github.com/syssam/selectq/internal/querydef"
)

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run <file>",
		Short: "Run the query definitions of a file and print the rows",
		Long: `Render every query definition in the file and run it through the
configured driver and DSN. Rows are printed as a table.

Registered drivers: postgres (lib/pq), pgx, mysql, sqlite.`,
		Example: `  selectq run --driver pgx --dsn "$DATABASE_URL" queries/active_users.yaml
  selectq run --driver sqlite --dsn app.db queries/report.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return runFile(ctx, configFrom(ctx), loggerFrom(ctx), args[0], cmd.OutOrStdout())
		},
	}
}

func runFile(ctx context.Context, cfg *config.Config, logger *slog.Logger, path string, w io.Writer) error {
	defs, err := querydef.ReadFile(path)
	if err != nil {
		return err
	}
	drv, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	defer func() { _ = drv.Close() }()

	stats := sql.NewStatsDriver(drv,
		sql.WithSlowThreshold(cfg.SlowThreshold),
		sql.WithSlowQueryLog(logger),
	)
	var querier sql.SelectQuerier = stats
	if logger.Enabled(ctx, slog.LevelDebug) {
		querier = sql.NewDebugDriver(stats, logger)
	}

	for _, def := range defs {
		s := def.Build(cfg.Selector())
		var rows sql.Rows
		if err := sql.QuerySelector(ctx, querier, s, &rows); err != nil {
			return fmt.Errorf("%s: %w%s", def.Name, err, hint(err, cfg))
		}
		columns, values, err := sql.ScanStrings(&rows)
		if err != nil {
			return fmt.Errorf("%s: %w", def.Name, err)
		}
		writeTable(w, def.Name, columns, values)
	}
	logger.Info("done", "definitions", len(defs), "stats", stats.QueryStats().Snapshot())
	return nil
}

// hint suggests a fix for common database errors.
func hint(err error, cfg *config.Config) string {
	switch {
	case sql.IsUndefinedTableError(err):
		return " (hint: check the from/entity tables exist in " + cfg.DSN + ")"
	case sql.IsUndefinedColumnError(err):
		return " (hint: check the selected and filtered columns)"
	case sql.IsSyntaxError(err):
		return fmt.Sprintf(" (hint: the statement was rendered for the %s dialect)", cfg.Dialect)
	}
	return ""
}

func writeTable(w io.Writer, title string, columns []string, values [][]string) {
	if len(values) == 0 {
		_, _ = fmt.Fprintf(w, "%s\n(0 rows)\n", title)
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	header := make(table.Row, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	t.AppendHeader(header)
	for _, v := range values {
		row := make(table.Row, len(v))
		for i, cell := range v {
			row[i] = cell
		}
		t.AppendRow(row)
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(values))
}
