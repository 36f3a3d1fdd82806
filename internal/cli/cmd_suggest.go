package cli

import (
	"context"
	"strings"

	flag "github.com/spf13/pflag"
)

func (a *app) suggestCommand() *Command {
	fs := flag.NewFlagSet("suggest", flag.ContinueOnError)

	return &Command{
		Flags: fs,
		Usage: "suggest <partial-query>",
		Short: "list completion candidates for a partial query",
		Long: "List completion candidates for a possibly-incomplete query, one\n" +
			"per line, in the order a completion menu would show them.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			partial := strings.Join(args, " ")

			for _, candidate := range a.engine.Suggest(partial) {
				o.Println(candidate)
			}

			return nil
		},
	}
}
