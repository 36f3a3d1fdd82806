package cli

import (
	"context"
	"errors"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command is one iql subcommand. Most commands take the query text as
// positional arguments and have few or no flags of their own; help output is
// generated from the fields here so every command documents itself the same
// way.
type Command struct {
	// Flags holds the command's own flag set. Global flags are parsed before
	// dispatch and never appear here.
	Flags *flag.FlagSet

	// Usage is the command name followed by its argument syntax, e.g.
	// "parse <query>". The first word doubles as the dispatch name.
	Usage string

	// Short is the one-line description in the command listing.
	Short string

	// Long replaces Short in per-command help when set.
	Long string

	// Examples lists example invocations, one per line, without the leading
	// "iql".
	Examples string

	// Exec runs the command with the remaining positional arguments.
	Exec func(ctx context.Context, o *IO, args []string) error
}

// Name returns the dispatch name, the first word of Usage.
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")

	return name
}

// PrintHelp writes the command's full help text.
func (c *Command) PrintHelp(o *IO) {
	o.Println("Usage: iql", c.Usage)

	desc := c.Long
	if desc == "" {
		desc = c.Short
	}

	if desc != "" {
		o.Println()
		o.Println(desc)
	}

	if c.Flags != nil && c.Flags.HasFlags() {
		o.Println()
		o.Println("Flags:")

		var buf strings.Builder
		c.Flags.SetOutput(&buf)
		c.Flags.PrintDefaults()
		o.Printf("%s", buf.String())
	}

	if c.Examples != "" {
		o.Println()
		o.Println("Examples:")

		for _, line := range strings.Split(strings.TrimSpace(c.Examples), "\n") {
			o.Println("  iql " + strings.TrimSpace(line))
		}
	}
}

// HelpLine is the command's row in the global command listing.
func (c *Command) HelpLine() string {
	return "  " + padRight(c.Usage, 26) + c.Short
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s + " "
	}

	return s + strings.Repeat(" ", width-len(s))
}

// Run parses the command's flags and executes it, returning the process exit
// code. Errors print to stderr; -h/--help prints the command help instead.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	c.Flags.SetOutput(&strings.Builder{}) // discard pflag's own output

	// Query text may start with "-" (e.g. a -inf range bound); flags stop at
	// the first positional argument.
	c.Flags.SetInterspersed(false)

	if err := c.Flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(o)

			return 0
		}

		o.ErrPrintln("error:", err)
		o.ErrPrintln()
		c.PrintHelp(o)

		return 1
	}

	if err := c.Exec(ctx, o, c.Flags.Args()); err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	return 0
}
