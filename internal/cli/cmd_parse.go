package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/issueql/pkg/query"
)

// parseResult is the JSON output of "iql parse".
type parseResult struct {
	Filter json.RawMessage `json:"filter"`
	Sort   []query.SortKey `json:"sort"`
}

func (a *app) parseCommand() *Command {
	fs := flag.NewFlagSet("parse", flag.ContinueOnError)

	compact := fs.Bool("compact", false, "emit the result on one line")

	return &Command{
		Flags: fs,
		Usage: "parse <query>",
		Short: "compile a query into its filter and sort JSON",
		Long: "Compile a query into the structured filter and sort specification\n" +
			"the host's document store would execute, printed as JSON.",
		Examples: `parse 'project: FOO and priority: 1..5'
parse --compact 'due: this week and #unresolved'`,
		Exec: func(_ context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("missing query argument")
			}

			queryText := strings.Join(args, " ")

			filterPart, sortPart := query.SplitQuery(queryText)

			filter, err := a.engine.ParseFilter(filterPart)
			if err != nil {
				return err
			}

			sort, err := a.engine.ParseSort(sortPart)
			if err != nil {
				return err
			}

			filterJSON, err := json.Marshal(filter)
			if err != nil {
				return fmt.Errorf("encode filter: %w", err)
			}

			result := parseResult{Filter: filterJSON, Sort: sort}

			var encoded []byte

			if *compact {
				encoded, err = json.Marshal(result)
			} else {
				encoded, err = json.MarshalIndent(result, "", "  ")
			}

			if err != nil {
				return fmt.Errorf("encode result: %w", err)
			}

			o.Println(string(encoded))

			return nil
		},
	}
}
