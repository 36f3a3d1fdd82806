package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/calvinalkan/issueql/internal/catalog"
	"github.com/calvinalkan/issueql/pkg/query"
)

const sampleCatalog = `{
	// the signed-in user
	"current_user": "alice@example.com",
	"projects": ["FOO", "BAR"],
	"fields": [
		{
			"name": "Status",
			"type": "state",
			"options": [
				{"id": "s1", "value": "Open"},
				{"value": "Done", "resolved": true}, // id generated
			],
		},
		{"name": "priority", "type": "integer"},
		{"name": "due", "type": "date", "nullable": true},
	],
}`

// Contract: catalog files are JSONC; comments and trailing commas parse.
func Test_Parse_Accepts_JSONC(t *testing.T) {
	t.Parallel()

	snapshot, user, err := catalog.Parse([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if user != "alice@example.com" {
		t.Fatalf("user = %q, want alice@example.com", user)
	}

	fields := snapshot.Fields("status")
	if len(fields) != 1 {
		t.Fatalf("status fields = %d, want 1", len(fields))
	}

	if fields[0].Type != query.TypeState {
		t.Fatalf("status type = %v, want state", fields[0].Type)
	}

	if got := snapshot.Projects(); len(got) != 2 {
		t.Fatalf("projects = %v, want 2 entries", got)
	}
}

// Contract: options without an id get a generated one so host-side bookkeeping
// never sees empty ids.
func Test_Parse_Generates_Missing_Option_IDs(t *testing.T) {
	t.Parallel()

	snapshot, _, err := catalog.Parse([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	for _, opt := range snapshot.Fields("status")[0].Options {
		if opt.ID == "" {
			t.Fatalf("option %q has empty id", opt.Value)
		}
	}
}

func Test_Parse_Rejects_Invalid_Definitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"unknown type", `{"fields": [{"name": "x", "type": "blob"}]}`},
		{"missing name", `{"fields": [{"type": "string"}]}`},
		{"option without value", `{"fields": [{"name": "x", "type": "enum", "options": [{"id": "a"}]}]}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, _, err := catalog.Parse([]byte(tt.data)); err == nil {
				t.Fatal("parse succeeded, want error")
			}
		})
	}
}

// Contract: Load wraps file errors with the path so the CLI can print a usable
// message.
func Test_Load_Reads_Catalog_From_Disk(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.jsonc")
	if err := os.WriteFile(path, []byte(sampleCatalog), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	snapshot, user, err := catalog.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if snapshot == nil || user == "" {
		t.Fatal("load returned empty snapshot")
	}

	if _, _, err := catalog.Load(filepath.Join(t.TempDir(), "missing.jsonc")); err == nil {
		t.Fatal("load of missing file succeeded, want error")
	}
}
