package cli

import (
	"context"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/issueql/pkg/query"
)

func (a *app) fmtCommand() *Command {
	fs := flag.NewFlagSet("fmt", flag.ContinueOnError)

	return &Command{
		Flags: fs,
		Usage: "fmt <query>",
		Short: "normalize a query into canonical text",
		Long: "Round-trip a query through the structured filter builder and print\n" +
			"its canonical spelling. Queries using \"or\" cannot be normalized\n" +
			"this way and are rejected.",
		Examples: `fmt 'priority: 1 .. 5 and  subject: exact'`,
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("missing query argument")
			}

			queryText := strings.Join(args, " ")

			objects, sort, err := a.engine.ParseToObjects(queryText)
			if err != nil {
				return err
			}

			o.Println(query.BuildQueryText(objects, sort))

			return nil
		},
	}
}
