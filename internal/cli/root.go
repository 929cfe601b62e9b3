// Package cli provides the selectq command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/syssam/selectq/internal/config"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

type (
	configKey struct{}
	loggerKey struct{}
)

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	var cfgFile string
	root := &cobra.Command{
		Use:   "selectq",
		Short: "Render and run SELECT statements described in YAML",
		Long: `selectq builds SELECT statements from YAML query definitions for a
chosen SQL dialect, prints them with their bind arguments, and optionally runs
them against a database.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			logger := cfg.Logger(cmd.ErrOrStderr())
			if cfg.File != "" {
				logger.Debug("using config file", "path", cfg.File)
			}
			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			ctx = context.WithValue(ctx, loggerKey{}, logger)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./selectq.yaml)")
	flags.String("dialect", "", "SQL dialect (default: derived from --driver)")
	flags.String("driver", "", "database/sql driver name used by run")
	flags.String("dsn", "", "data source name used by run")
	flags.String("quote", "", "identifier quoting (as-needed|always)")
	flags.String("log-level", "", "log level (debug|info|warn|error)")
	flags.String("log-format", "", "log format (text|json)")
	flags.Duration("slow-threshold", 0, "log statements slower than this")

	_ = root.RegisterFlagCompletionFunc("quote", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"as-needed", "always"}, cobra.ShellCompDirectiveNoFileComp
	})

	root.AddCommand(
		newRenderCommand(),
		newRunCommand(),
		newDialectsCommand(),
		newVersionCommand(),
	)
	return root
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func configFrom(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	c := &config.Config{Driver: config.DefaultDriver, DSN: config.DefaultDSN, Quote: config.DefaultQuote}
	_ = c.Validate()
	return c
}

func loggerFrom(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
