package cli

import (
	"context"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/issueql/pkg/query"
)

func (a *app) savedCommand() *Command {
	fs := flag.NewFlagSet("saved", flag.ContinueOnError)

	return &Command{
		Flags: fs,
		Usage: "saved [add <name> <query> | rm <name> | show <name>]",
		Short: "manage saved searches",
		Long: "List, add, remove or show saved searches. Queries are validated\n" +
			"against the loaded catalog before they are saved; listing re-checks\n" +
			"them and warns about entries the current catalog no longer accepts.",
		Examples: `saved
saved add mine 'assignee: me and #unresolved'
saved show mine`,
		Exec: func(_ context.Context, o *IO, args []string) error {
			store, err := loadSaved(a.savedPath)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				// Searches validate at save time, but the catalog can drift
				// out from under them.
				for _, name := range store.names() {
					q, _ := store.get(name)

					if err := a.validate(q); err != nil {
						o.Warn(fmt.Sprintf("saved search %q no longer compiles: %v", name, err))
					}

					o.Printf("%s\t%s\n", name, q)
				}

				return nil
			}

			switch args[0] {
			case "add":
				if len(args) < 3 {
					return fmt.Errorf("usage: saved add <name> <query>")
				}

				name := args[1]
				queryText := strings.Join(args[2:], " ")

				if err := a.validate(queryText); err != nil {
					return fmt.Errorf("query is invalid: %w", err)
				}

				return store.put(name, queryText)

			case "rm":
				if len(args) != 2 {
					return fmt.Errorf("usage: saved rm <name>")
				}

				return store.remove(args[1])

			case "show":
				if len(args) != 2 {
					return fmt.Errorf("usage: saved show <name>")
				}

				q, ok := store.get(args[1])
				if !ok {
					return fmt.Errorf("no saved search named %q", args[1])
				}

				o.Println(q)

				return nil
			}

			return fmt.Errorf("unknown saved action %q", args[0])
		},
	}
}

// validate compiles a query end to end without using the result.
func (a *app) validate(queryText string) error {
	filterPart, sortPart := query.SplitQuery(queryText)

	if _, err := a.engine.ParseFilter(filterPart); err != nil {
		return err
	}

	if _, err := a.engine.ParseSort(sortPart); err != nil {
		return err
	}

	return nil
}
