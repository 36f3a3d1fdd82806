package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/calvinalkan/issueql/pkg/query"
)

func newTestApp(t *testing.T) *app {
	t.Helper()

	catalog := query.NewCatalog([]query.Field{
		{Name: "priority", Type: query.TypeInteger},
	}, nil)

	return &app{
		engine:    query.NewEngine(catalog, "alice@example.com"),
		savedPath: filepath.Join(t.TempDir(), "saved.json"),
	}
}

// Contract: listing saved searches still prints every entry, but entries that
// no longer compile against the current catalog surface as warnings and flip
// the exit code.
func Test_SavedCommand_Warns_When_Stored_Query_No_Longer_Compiles(t *testing.T) {
	t.Parallel()

	a := newTestApp(t)

	store, err := loadSaved(a.savedPath)
	if err != nil {
		t.Fatalf("loadSaved: %v", err)
	}

	if err := store.put("good", "priority: 1"); err != nil {
		t.Fatalf("put: %v", err)
	}

	// A field that existed when the search was saved, since removed.
	if err := store.put("stale", "severity: high"); err != nil {
		t.Fatalf("put: %v", err)
	}

	var out, errOut bytes.Buffer

	o := NewIO(&out, &errOut)

	if code := a.savedCommand().Run(context.Background(), o, nil); code != 0 {
		t.Fatalf("saved command exit code = %d, want 0, stderr: %s", code, errOut.String())
	}

	if !strings.Contains(out.String(), "good\tpriority: 1") {
		t.Fatalf("stdout missing valid entry:\n%s", out.String())
	}

	if !strings.Contains(out.String(), "stale\tseverity: high") {
		t.Fatalf("stdout missing stale entry:\n%s", out.String())
	}

	if code := o.Finish(); code != 1 {
		t.Fatalf("Finish = %d, want 1 after warning", code)
	}

	if !strings.Contains(errOut.String(), `saved search "stale" no longer compiles`) {
		t.Fatalf("stderr missing warning:\n%s", errOut.String())
	}
}

// Contract: a fully valid saved-search file lists without warnings and keeps
// exit code 0.
func Test_SavedCommand_Lists_Cleanly_When_All_Entries_Compile(t *testing.T) {
	t.Parallel()

	a := newTestApp(t)

	store, err := loadSaved(a.savedPath)
	if err != nil {
		t.Fatalf("loadSaved: %v", err)
	}

	if err := store.put("good", "priority: 1..5"); err != nil {
		t.Fatalf("put: %v", err)
	}

	var out, errOut bytes.Buffer

	o := NewIO(&out, &errOut)

	if code := a.savedCommand().Run(context.Background(), o, nil); code != 0 {
		t.Fatalf("saved command exit code = %d, want 0", code)
	}

	if code := o.Finish(); code != 0 {
		t.Fatalf("Finish = %d, want 0, stderr: %s", code, errOut.String())
	}
}
