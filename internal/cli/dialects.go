package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/syssam/selectq/dialect"
)

func newDialectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List the registered SQL dialects and their capabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeDialects(cmd.OutOrStdout())
		},
	}
}

var dialectColumns = []string{"name", "placeholder", "quote", "true", "false", "lock clause", "dummy table"}

func writeDialects(w io.Writer) error {
	title := cases.Title(language.English)
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = 0
	header := make(table.Row, len(dialectColumns))
	for i, c := range dialectColumns {
		header[i] = title.String(c)
	}
	t.AppendHeader(header)
	for _, name := range dialect.Names() {
		caps, err := dialect.Get(name)
		if err != nil {
			return err
		}
		dummy, ok := caps.DummyTable()
		if !ok {
			dummy = "-"
		}
		lock := caps.LockClause()
		if lock == "" {
			lock = "-"
		}
		t.AppendRow(table.Row{
			name,
			fmt.Sprintf("%s (%s)", caps.Placeholder(), caps.Placeholder().Format(1)),
			caps.QuoteIdent("id"),
			caps.BoolLiteral(true),
			caps.BoolLiteral(false),
			lock,
			dummy,
		})
	}
	t.Render()
	return nil
}
