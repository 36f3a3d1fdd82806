package query

import (
	"fmt"
	"sort"
	"strings"
)

// FieldType identifies the value semantics of a catalog field.
//
// The set is closed: the value transformer switches exhaustively over it, so
// adding a type here without teaching the transformer about it is a compile
// break, not a silent fallthrough.
type FieldType int

const (
	TypeString FieldType = iota
	TypeInteger
	TypeFloat
	TypeBoolean
	TypeDate
	TypeDateTime
	TypeDuration
	TypeEnum
	TypeEnumMulti
	TypeState
	TypeVersion
	TypeVersionMulti
	TypeUser
	TypeUserMulti
	TypeOwned
	TypeOwnedMulti
	TypeSprint
	TypeSprintMulti
)

var fieldTypeNames = map[FieldType]string{
	TypeString:       "string",
	TypeInteger:      "integer",
	TypeFloat:        "float",
	TypeBoolean:      "boolean",
	TypeDate:         "date",
	TypeDateTime:     "datetime",
	TypeDuration:     "duration",
	TypeEnum:         "enum",
	TypeEnumMulti:    "enum_multi",
	TypeState:        "state",
	TypeVersion:      "version",
	TypeVersionMulti: "version_multi",
	TypeUser:         "user",
	TypeUserMulti:    "user_multi",
	TypeOwned:        "owned",
	TypeOwnedMulti:   "owned_multi",
	TypeSprint:       "sprint",
	TypeSprintMulti:  "sprint_multi",
}

// String returns the canonical lowercase name of the type.
func (t FieldType) String() string {
	if name, ok := fieldTypeNames[t]; ok {
		return name
	}

	return fmt.Sprintf("fieldtype(%d)", int(t))
}

// ParseFieldType parses a canonical type name as produced by [FieldType.String].
func ParseFieldType(name string) (FieldType, error) {
	for t, n := range fieldTypeNames {
		if n == name {
			return t, nil
		}
	}

	return 0, fmt.Errorf("unknown field type: %q", name)
}

// IsOptionBased reports whether legal values for the type come from a closed,
// catalog-defined option set.
func (t FieldType) IsOptionBased() bool {
	switch t {
	case TypeEnum, TypeEnumMulti, TypeState,
		TypeVersion, TypeVersionMulti,
		TypeUser, TypeUserMulti,
		TypeOwned, TypeOwnedMulti,
		TypeSprint, TypeSprintMulti:
		return true
	case TypeString, TypeInteger, TypeFloat, TypeBoolean,
		TypeDate, TypeDateTime, TypeDuration:
		return false
	}

	return false
}

// IsUserBased reports whether the type holds user identities, which makes the
// "me" keyword a legal value.
func (t FieldType) IsUserBased() bool {
	return t == TypeUser || t == TypeUserMulti || t == TypeOwned || t == TypeOwnedMulti
}

// IsDateBased reports whether the type resolves relative-date literals.
func (t FieldType) IsDateBased() bool {
	return t == TypeDate || t == TypeDateTime
}

// Option is one legal value of an option-based field.
type Option struct {
	ID       string // ID is the host-side identifier; the engine never compares on it.
	Value    string // Value is the display value users type in queries.
	Archived bool   // Archived options stay matchable but are not suggested.
	Resolved bool   // Resolved marks STATE options that count as "done" for #resolved.
}

// Field is one searchable field as supplied by the host catalog.
//
// Multiple fields may share the same case-insensitive Name (schema drift across
// projects). GroupID ties together variants meant to be "the same logical
// field"; option sets for suggestions are unioned across a group.
type Field struct {
	Name     string
	GroupID  string
	Type     FieldType
	Nullable bool
	Options  []Option
}

// FindOption returns the option whose display value matches case-insensitively.
func (f Field) FindOption(value string) (Option, bool) {
	for _, opt := range f.Options {
		if strings.EqualFold(opt.Value, value) {
			return opt, true
		}
	}

	return Option{}, false
}

// Catalog is an immutable snapshot of the host's field catalog plus the project
// slugs visible to the querying user. The engine never fetches catalog data
// itself; the host assembles a snapshot per call site.
type Catalog struct {
	byName   map[string][]Field
	byGroup  map[string][]Field
	names    []string
	projects []string
}

// NewCatalog builds a snapshot from host-supplied fields and project slugs.
func NewCatalog(fields []Field, projects []string) *Catalog {
	c := &Catalog{
		byName:  make(map[string][]Field),
		byGroup: make(map[string][]Field),
	}

	for _, f := range fields {
		key := strings.ToLower(f.Name)

		if _, seen := c.byName[key]; !seen {
			c.names = append(c.names, key)
		}

		c.byName[key] = append(c.byName[key], f)

		if f.GroupID != "" {
			c.byGroup[f.GroupID] = append(c.byGroup[f.GroupID], f)
		}
	}

	sort.Strings(c.names)

	c.projects = append(c.projects, projects...)
	sort.Strings(c.projects)

	return c
}

// Fields returns every catalog entry matching the case-insensitive name.
// The returned slice must not be modified.
func (c *Catalog) Fields(name string) []Field {
	if c == nil {
		return nil
	}

	return c.byName[strings.ToLower(name)]
}

// Names returns all known field names, lowercased and sorted.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}

	return c.names
}

// Projects returns the project slugs of the snapshot, sorted.
func (c *Catalog) Projects() []string {
	if c == nil {
		return nil
	}

	return c.projects
}

// GroupOptions returns the union of option sets across a field group, in
// catalog order, deduplicated by display value.
func (c *Catalog) GroupOptions(groupID string) []Option {
	if c == nil {
		return nil
	}

	var (
		out  []Option
		seen = make(map[string]bool)
	)

	for _, f := range c.byGroup[groupID] {
		for _, opt := range f.Options {
			key := strings.ToLower(opt.Value)
			if seen[key] {
				continue
			}

			seen[key] = true

			out = append(out, opt)
		}
	}

	return out
}

// stateFieldNames returns the lowercased names of all STATE-typed fields along
// with the union of resolved display values per name. Used by the #resolved and
// #unresolved hashtag predicates.
func (c *Catalog) stateFieldNames() ([]string, map[string][]string) {
	if c == nil {
		return nil, nil
	}

	resolved := make(map[string][]string)
	seen := make(map[string]bool)

	var names []string

	for _, name := range c.names {
		for _, f := range c.byName[name] {
			if f.Type != TypeState {
				continue
			}

			if !seen[name] {
				seen[name] = true

				names = append(names, name)
			}

			for _, opt := range f.Options {
				if opt.Resolved && !containsFold(resolved[name], opt.Value) {
					resolved[name] = append(resolved[name], opt.Value)
				}
			}
		}
	}

	return names, resolved
}

func containsFold(values []string, v string) bool {
	for _, existing := range values {
		if strings.EqualFold(existing, v) {
			return true
		}
	}

	return false
}
