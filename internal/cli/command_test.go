package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	flag "github.com/spf13/pflag"
)

func captureCommand(exec func(ctx context.Context, o *IO, args []string) error) (*Command, *bytes.Buffer, *bytes.Buffer, *IO) {
	fs := flag.NewFlagSet("x", flag.ContinueOnError)
	fs.Bool("verbose", false, "say more")

	cmd := &Command{
		Flags:    fs,
		Usage:    "echo <query>",
		Short:    "short description",
		Examples: "echo 'priority: 1'\necho 'due: this week'",
		Exec:     exec,
	}

	var out, errOut bytes.Buffer

	return cmd, &out, &errOut, NewIO(&out, &errOut)
}

// Contract: per-command help shows usage, description, flags and example
// invocations.
func Test_Command_PrintHelp_Includes_Examples(t *testing.T) {
	t.Parallel()

	cmd, out, _, o := captureCommand(nil)

	cmd.PrintHelp(o)

	help := out.String()

	for _, want := range []string{
		"Usage: iql echo <query>",
		"short description",
		"--verbose",
		"Examples:",
		"  iql echo 'priority: 1'",
		"  iql echo 'due: this week'",
	} {
		if !strings.Contains(help, want) {
			t.Fatalf("help missing %q:\n%s", want, help)
		}
	}
}

// Contract: query text may begin with a dash; flag parsing stops at the first
// positional argument so "-inf.." range bounds reach Exec untouched.
func Test_Command_Run_Keeps_Dashed_Query_Arguments(t *testing.T) {
	t.Parallel()

	var got []string

	cmd, _, errOut, o := captureCommand(func(_ context.Context, _ *IO, args []string) error {
		got = append(got, args...)

		return nil
	})

	code := cmd.Run(context.Background(), o, []string{"priority:", "-inf..5"})
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, errOut.String())
	}

	if len(got) != 2 || got[0] != "priority:" || got[1] != "-inf..5" {
		t.Fatalf("args = %v, want [priority: -inf..5]", got)
	}
}

// Contract: the dispatch name is the first word of Usage.
func Test_Command_Name_Is_First_Usage_Word(t *testing.T) {
	t.Parallel()

	cmd, _, _, _ := captureCommand(nil)

	if cmd.Name() != "echo" {
		t.Fatalf("Name = %q, want echo", cmd.Name())
	}
}
