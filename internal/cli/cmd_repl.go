package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/issueql/pkg/query"
)

func (a *app) replCommand() *Command {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)

	historyPath := fs.String("history", defaultHistoryPath(), "readline history file")

	return &Command{
		Flags: fs,
		Usage: "repl [flags]",
		Short: "interactive query shell with completion",
		Long: "Start an interactive shell. Each line is compiled and printed as\n" +
			"filter and sort JSON; tab completes fields, values and operators.\n" +
			"Dot commands: .save <name>, .saved, .rm <name>, .help, .quit.",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			r := &repl{app: a, o: o, historyPath: *historyPath}

			return r.loop()
		},
	}
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".iql_history"
	}

	return filepath.Join(home, ".iql_history")
}

type repl struct {
	app         *app
	o           *IO
	historyPath string

	// lastQuery is the most recent successfully compiled line, the target of
	// ".save <name>".
	lastQuery string
}

func (r *repl) loop() error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(r.complete)

	if f, err := os.Open(r.historyPath); err == nil {
		_, _ = line.ReadHistory(f)
		_ = f.Close()
	}

	defer func() {
		if f, err := os.Create(r.historyPath); err == nil {
			_, _ = line.WriteHistory(f)
			_ = f.Close()
		}
	}()

	r.o.Println("iql repl. Tab completes, .help lists commands, .quit exits.")

	for {
		input, err := line.Prompt("iql> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("read line: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		line.AppendHistory(input)

		if strings.HasPrefix(input, ".") {
			if quit := r.dotCommand(input); quit {
				return nil
			}

			continue
		}

		r.eval(input)
	}
}

// complete adapts engine suggestions to liner's whole-line completion model:
// candidates are appended to the current line, with a separating space for
// word-like candidates when the line does not already end in one.
func (r *repl) complete(line string) []string {
	candidates := r.app.engine.Suggest(line)
	if len(candidates) == 0 {
		return nil
	}

	endsInSpace := line == "" || strings.HasSuffix(line, " ")

	out := make([]string, 0, len(candidates))

	for _, c := range candidates {
		switch c {
		case "and", "or", ")":
			if !endsInSpace {
				c = " " + c
			}
		}

		out = append(out, line+c)
	}

	return out
}

func (r *repl) eval(input string) {
	filterPart, sortPart := query.SplitQuery(input)

	filter, err := r.app.engine.ParseFilter(filterPart)
	if err != nil {
		r.o.ErrPrintln("error:", err)

		return
	}

	sort, err := r.app.engine.ParseSort(sortPart)
	if err != nil {
		r.o.ErrPrintln("error:", err)

		return
	}

	filterJSON, err := json.MarshalIndent(filter, "", "  ")
	if err != nil {
		r.o.ErrPrintln("error:", err)

		return
	}

	sortJSON, err := json.Marshal(sort)
	if err != nil {
		r.o.ErrPrintln("error:", err)

		return
	}

	r.o.Println(string(filterJSON))
	r.o.Println("sort:", string(sortJSON))

	r.lastQuery = input
}

// dotCommand handles the repl's meta commands. Returns true to exit the loop.
func (r *repl) dotCommand(input string) bool {
	cmd, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case ".quit", ".exit":
		return true

	case ".help":
		r.o.Println(".save <name>   save the last successful query")
		r.o.Println(".saved         list saved searches")
		r.o.Println(".rm <name>     remove a saved search")
		r.o.Println(".quit          exit")

	case ".save":
		if rest == "" {
			r.o.ErrPrintln("error: usage: .save <name>")

			break
		}

		if r.lastQuery == "" {
			r.o.ErrPrintln("error: no successful query to save yet")

			break
		}

		r.withStore(func(store *savedSearches) error {
			return store.put(rest, r.lastQuery)
		})

	case ".saved":
		r.withStore(func(store *savedSearches) error {
			for _, name := range store.names() {
				q, _ := store.get(name)
				r.o.Printf("%s\t%s\n", name, q)
			}

			return nil
		})

	case ".rm":
		if rest == "" {
			r.o.ErrPrintln("error: usage: .rm <name>")

			break
		}

		r.withStore(func(store *savedSearches) error {
			return store.remove(rest)
		})

	default:
		r.o.ErrPrintln(fmt.Sprintf("error: unknown command %q, try .help", cmd))
	}

	return false
}

func (r *repl) withStore(fn func(*savedSearches) error) {
	store, err := loadSaved(r.app.savedPath)
	if err != nil {
		r.o.ErrPrintln("error:", err)

		return
	}

	if err := fn(store); err != nil {
		r.o.ErrPrintln("error:", err)
	}
}
