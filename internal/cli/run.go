package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/issueql/internal/catalog"
	"github.com/calvinalkan/issueql/pkg/query"
)

// app holds the state shared by every subcommand: the compiled engine plus
// the paths the global flags resolved.
type app struct {
	engine      *query.Engine
	catalogPath string
	savedPath   string
}

// Run executes the iql CLI and returns the process exit code.
func Run(out, errOut io.Writer, args []string) int {
	o := NewIO(out, errOut)

	globals := flag.NewFlagSet("iql", flag.ContinueOnError)
	globals.SetInterspersed(false)
	globals.SetOutput(&strings.Builder{})

	catalogPath := globals.String("catalog", "catalog.jsonc", "path to the field catalog file")
	userOverride := globals.String("user", "", "current user email (overrides the catalog's current_user)")
	savedPath := globals.String("saved", defaultSavedPath(), "path to the saved-searches file")
	help := globals.BoolP("help", "h", false, "show help")

	if err := globals.Parse(args); err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	rest := globals.Args()

	if *help || len(rest) == 0 {
		printGlobalHelp(o, globals)

		if *help {
			return 0
		}

		return 1
	}

	snapshot, user, err := catalog.Load(*catalogPath)
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	if *userOverride != "" {
		user = *userOverride
	}

	a := &app{
		engine:      query.NewEngine(snapshot, user),
		catalogPath: *catalogPath,
		savedPath:   *savedPath,
	}

	commands := a.commands()

	name := rest[0]

	for _, cmd := range commands {
		if cmd.Name() != name {
			continue
		}

		if code := cmd.Run(context.Background(), o, rest[1:]); code != 0 {
			return code
		}

		return o.Finish()
	}

	o.ErrPrintln(fmt.Sprintf("error: unknown command %q", name))
	o.ErrPrintln()
	printGlobalHelp(o, globals)

	return 1
}

func (a *app) commands() []*Command {
	return []*Command{
		a.parseCommand(),
		a.sortCommand(),
		a.suggestCommand(),
		a.fmtCommand(),
		a.fieldsCommand(),
		a.savedCommand(),
		a.replCommand(),
	}
}

func printGlobalHelp(o *IO, globals *flag.FlagSet) {
	o.Println("Usage: iql [global flags] <command> [args]")
	o.Println()
	o.Println("Compile and inspect issue search queries.")
	o.Println()
	o.Println("Commands:")

	a := &app{}
	for _, cmd := range a.commands() {
		o.Println(cmd.HelpLine())
	}

	o.Println()
	o.Println("Global flags:")

	var buf strings.Builder
	globals.SetOutput(&buf)
	globals.PrintDefaults()
	o.Printf("%s", buf.String())
}
