package query

import "strings"

// SortKey is one entry of a sort specification.
type SortKey struct {
	Field      string `json:"field"`
	Descending bool   `json:"descending,omitempty"`
}

// DefaultSort is the ordering used when a query has no sort clause: most
// recently updated first. Serializing it back to text yields the empty string,
// so "no clause" and "explicit default" round-trip identically.
func DefaultSort() []SortKey {
	return []SortKey{{Field: "updated_at", Descending: true}}
}

// reservedFieldNames are the pseudo-fields every issue has, resolvable before
// any catalog lookup.
var reservedFieldNames = []string{
	"created_at",
	"created_by",
	"id",
	"project",
	"subject",
	"tag",
	"text",
	"updated_at",
	"updated_by",
}

func isReservedField(name string) bool {
	name = strings.ToLower(name)

	for _, reserved := range reservedFieldNames {
		if reserved == name {
			return true
		}
	}

	return false
}

// isSortableField reports whether a name resolves for sorting. The full-text
// pseudo-field has no ordering.
func isSortableField(name string, catalog *Catalog) bool {
	lower := strings.ToLower(name)

	if lower == "text" {
		return false
	}

	return isReservedField(lower) || len(catalog.Fields(lower)) > 0
}

// parseSortClause parses the body of a "sort by:" clause into ordered sort
// keys. Keys are comma-separated; a trailing "asc" or "desc" word sets the
// direction (exact token match), defaulting to ascending. An empty clause
// yields the default ordering.
func parseSortClause(part string, catalog *Catalog) ([]SortKey, error) {
	part = strings.TrimSpace(part)
	if part == "" {
		return DefaultSort(), nil
	}

	var keys []SortKey

	for _, segment := range strings.Split(part, ",") {
		words := strings.Fields(segment)
		if len(words) == 0 {
			return nil, transformErrorf("empty sort field")
		}

		descending := false

		switch words[len(words)-1] {
		case "asc":
			words = words[:len(words)-1]
		case "desc":
			descending = true
			words = words[:len(words)-1]
		}

		name := strings.Join(words, " ")
		if name == "" {
			return nil, transformErrorf("missing field name in sort clause %q", strings.TrimSpace(segment))
		}

		if !isSortableField(name, catalog) {
			return nil, transformErrorf("unknown sort field %q", name)
		}

		keys = append(keys, SortKey{Field: strings.ToLower(name), Descending: descending})
	}

	return keys, nil
}
