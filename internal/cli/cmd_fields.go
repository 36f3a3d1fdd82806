package cli

import (
	"context"
	"strings"

	flag "github.com/spf13/pflag"
)

func (a *app) fieldsCommand() *Command {
	fs := flag.NewFlagSet("fields", flag.ContinueOnError)

	withOptions := fs.Bool("options", false, "also list option values per field")

	return &Command{
		Flags: fs,
		Usage: "fields [--options]",
		Short: "list the queryable fields of the loaded catalog",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			catalog := a.engine.Catalog()

			for _, name := range catalog.Names() {
				for _, field := range catalog.Fields(name) {
					line := field.Name + "\t" + field.Type.String()

					if field.Nullable {
						line += "\tnullable"
					}

					o.Println(line)

					if !*withOptions {
						continue
					}

					options := field.Options
					if field.GroupID != "" {
						options = catalog.GroupOptions(field.GroupID)
					}

					for _, opt := range options {
						suffix := ""

						if opt.Resolved {
							suffix += " (resolved)"
						}

						if opt.Archived {
							suffix += " (archived)"
						}

						o.Println("  " + opt.Value + suffix)
					}
				}
			}

			if projects := catalog.Projects(); len(projects) > 0 {
				o.Println()
				o.Println("projects:", strings.Join(projects, ", "))
			}

			return nil
		},
	}
}
