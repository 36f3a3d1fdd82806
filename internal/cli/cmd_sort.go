package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/issueql/pkg/query"
)

func (a *app) sortCommand() *Command {
	fs := flag.NewFlagSet("sort", flag.ContinueOnError)

	return &Command{
		Flags: fs,
		Usage: "sort [clause]",
		Short: "parse a sort clause into ordered sort keys",
		Long: "Parse the body of a \"sort by:\" clause into ordered sort keys,\n" +
			"printed as JSON. An empty clause yields the default ordering.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			clause := strings.Join(args, " ")

			// Accept both "updated_at desc" and a full query with the marker.
			if _, sortPart := query.SplitQuery(clause); sortPart != "" {
				clause = sortPart
			}

			keys, err := a.engine.ParseSort(clause)
			if err != nil {
				return err
			}

			encoded, err := json.MarshalIndent(keys, "", "  ")
			if err != nil {
				return fmt.Errorf("encode sort keys: %w", err)
			}

			o.Println(string(encoded))

			return nil
		},
	}
}
