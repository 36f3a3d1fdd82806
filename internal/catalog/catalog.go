// Package catalog loads field-catalog snapshots from JSONC files for the iql
// command. The host application normally assembles snapshots from its own
// custom-field store; the file format here stands in for that collaborator.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/tailscale/hujson"

	"github.com/calvinalkan/issueql/pkg/query"
)

// ErrCatalogInvalid reports a catalog file that failed to parse or validate.
var ErrCatalogInvalid = errors.New("invalid catalog")

// File is the on-disk catalog format. Comments and trailing commas are
// allowed (JSONC).
type File struct {
	CurrentUser string     `json:"current_user,omitempty"`
	Projects    []string   `json:"projects,omitempty"`
	Fields      []FieldDef `json:"fields"`
}

// FieldDef is one field definition of the catalog file.
type FieldDef struct {
	Name     string      `json:"name"`
	GroupID  string      `json:"group_id,omitempty"`
	Type     string      `json:"type"`
	Nullable bool        `json:"nullable,omitempty"`
	Options  []OptionDef `json:"options,omitempty"`
}

// OptionDef is one option of an option-based field. A missing id gets a
// generated one; the query engine only ever compares display values, so
// generated ids are purely for host-side bookkeeping.
type OptionDef struct {
	ID       string `json:"id,omitempty"`
	Value    string `json:"value"`
	Resolved bool   `json:"resolved,omitempty"`
	Archived bool   `json:"archived,omitempty"`
}

// Load reads and parses a catalog file.
func Load(path string) (*query.Catalog, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read catalog: %w", err)
	}

	snapshot, user, err := Parse(data)
	if err != nil {
		return nil, "", fmt.Errorf("%w %s: %w", ErrCatalogInvalid, path, err)
	}

	return snapshot, user, nil
}

// Parse builds a catalog snapshot from JSONC data. Returns the snapshot and
// the configured current-user email.
func Parse(data []byte) (*query.Catalog, string, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, "", fmt.Errorf("invalid JSONC: %w", err)
	}

	var file File

	unmarshalErr := json.Unmarshal(standardized, &file)
	if unmarshalErr != nil {
		return nil, "", fmt.Errorf("invalid JSON: %w", unmarshalErr)
	}

	fields := make([]query.Field, 0, len(file.Fields))

	for i, def := range file.Fields {
		if def.Name == "" {
			return nil, "", fmt.Errorf("field %d has no name", i)
		}

		fieldType, typeErr := query.ParseFieldType(def.Type)
		if typeErr != nil {
			return nil, "", fmt.Errorf("field %q: %w", def.Name, typeErr)
		}

		options := make([]query.Option, 0, len(def.Options))

		for _, opt := range def.Options {
			if opt.Value == "" {
				return nil, "", fmt.Errorf("field %q has an option without a value", def.Name)
			}

			id := opt.ID
			if id == "" {
				id = uuid.NewString()
			}

			options = append(options, query.Option{
				ID:       id,
				Value:    opt.Value,
				Resolved: opt.Resolved,
				Archived: opt.Archived,
			})
		}

		fields = append(fields, query.Field{
			Name:     def.Name,
			GroupID:  def.GroupID,
			Type:     fieldType,
			Nullable: def.Nullable,
			Options:  options,
		})
	}

	return query.NewCatalog(fields, file.Projects), file.CurrentUser, nil
}
