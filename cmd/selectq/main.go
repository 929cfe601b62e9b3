// Package main provides the selectq CLI.
//
// Usage:
//
//	selectq [flags] <command>
//
// Commands:
//   - render: print the SQL and arguments of YAML query definitions
//   - run: execute query definitions against a database
//   - dialects: list the registered dialects
//   - version: print version information
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/syssam/selectq/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
