package query

import "strings"

// FilterObject is one discrete condition of the form-based query builder: a
// field name plus the value text the user typed. Free-text terms use the
// reserved "text" field; hashtag predicates keep their leading '#' in Field
// and have no value.
type FilterObject struct {
	Field string `json:"field"`
	Value string `json:"value,omitempty"`
}

// ParseToObjects compiles a query into the builder's flat representation: one
// object per expression leaf, in source order, plus the parsed sort keys.
//
// The builder edits an implicit-AND list of conditions, so any query using
// "or" (at any nesting level) is rejected with a user-facing error rather
// than silently flattened.
func (e *Engine) ParseToObjects(queryText string) ([]FilterObject, []SortKey, error) {
	filterPart, sortPart := SplitQuery(queryText)

	tree, err := parseExpression(filterPart)
	if err != nil {
		return nil, nil, err
	}

	leaves, err := collectAndLeaves(tree)
	if err != nil {
		return nil, nil, err
	}

	tr := &transformer{catalog: e.catalog, user: e.user, now: e.now()}

	var objects []FilterObject

	for _, leaf := range leaves {
		objs, err := tr.leafObjects(leaf)
		if err != nil {
			return nil, nil, err
		}

		objects = append(objects, objs...)
	}

	sort, err := parseSortClause(sortPart, e.catalog)
	if err != nil {
		return nil, nil, err
	}

	return objects, sort, nil
}

// collectAndLeaves flattens a pure-AND tree into its leaves, left to right.
func collectAndLeaves(node parseNode) ([]*exprLeaf, error) {
	switch n := node.(type) {
	case nil:
		return nil, nil

	case *exprLeaf:
		return []*exprLeaf{n}, nil

	case *opNode:
		if n.op == opOr {
			return nil, transformErrorf(
				"the structured filter builder supports only \"and\" conditions, rewrite the query without \"or\"")
		}

		left, err := collectAndLeaves(n.left)
		if err != nil {
			return nil, err
		}

		right, err := collectAndLeaves(n.right)
		if err != nil {
			return nil, err
		}

		return append(left, right...), nil
	}

	return nil, transformErrorf("unsupported parse node")
}

// leafObjects mirrors leafFilter's free-text fallback but yields builder
// objects instead of filter fragments. Values are validated through the
// regular transformer so the builder rejects exactly what ParseFilter rejects.
func (t *transformer) leafObjects(leaf *exprLeaf) ([]FilterObject, error) {
	body := leaf.text
	textTerm := ""

	for {
		le, scanErr := scanLeaf(body, t.now.Location())
		if scanErr == nil {
			if _, err := t.fragment(le); err != nil {
				return nil, rebase(err, leaf.pos)
			}

			objects := []FilterObject{objectFor(le)}
			if textTerm != "" {
				objects = append(objects, FilterObject{Field: "text", Value: textTerm})
			}

			return objects, nil
		}

		if !fallbackEligible(scanErr) {
			return nil, rebase(scanErr, leaf.pos)
		}

		rest, word := trimLastWord(body)
		if word == "" {
			return nil, rebase(scanErr, leaf.pos)
		}

		if textTerm == "" {
			textTerm = word
		} else {
			textTerm = word + " " + textTerm
		}

		body = rest

		if strings.TrimSpace(body) == "" {
			return []FilterObject{{Field: "text", Value: textTerm}}, nil
		}
	}
}

// objectFor renders a tokenized leaf as a builder object with a canonical
// value spelling (ranges without inner spaces, quotes stripped).
func objectFor(le leafExpr) FilterObject {
	if le.hashtag != "" {
		return FilterObject{Field: "#" + le.hashtag}
	}

	return FilterObject{Field: le.field, Value: canonicalValue(le)}
}

func canonicalValue(le leafExpr) string {
	if le.rng != nil {
		lo, hi := "-inf", "inf"

		if le.rng.lo != nil {
			lo = le.rng.lo.text
		}

		if le.rng.hi != nil {
			hi = le.rng.hi.text
		}

		return lo + ".." + hi
	}

	return le.value.text
}

// BuildQueryText serializes builder objects back into canonical query text.
// Values that would not survive re-tokenization bare (whitespace, colons,
// brackets, the operator keywords, the empty string) are quoted; conditions
// join with " and "; the sort clause is omitted entirely when it equals the
// single default entry.
func BuildQueryText(filters []FilterObject, sort []SortKey) string {
	parts := make([]string, 0, len(filters))

	for _, f := range filters {
		if strings.HasPrefix(f.Field, "#") {
			parts = append(parts, f.Field)
			continue
		}

		parts = append(parts, f.Field+": "+quoteValue(f.Value))
	}

	out := strings.Join(parts, " and ")

	if clause := serializeSort(sort); clause != "" {
		if out != "" {
			out += " "
		}

		out += clause
	}

	return out
}

func quoteValue(v string) string {
	// Bare "and"/"or" would re-tokenize as operators, brackets would split
	// the leaf or unbalance the expression.
	if v == "and" || v == "or" {
		return `"` + v + `"`
	}

	if v == "" || strings.ContainsAny(v, " \t:()") {
		return `"` + v + `"`
	}

	return v
}

// serializeSort renders sort keys as a "sort by:" clause. The default
// ordering renders as the empty string so that round-tripping a query without
// a sort clause does not invent one.
func serializeSort(sort []SortKey) string {
	if len(sort) == 0 {
		return ""
	}

	if len(sort) == 1 && sort[0] == DefaultSort()[0] {
		return ""
	}

	keys := make([]string, 0, len(sort))

	for _, key := range sort {
		if key.Descending {
			keys = append(keys, key.Field+" desc")
			continue
		}

		keys = append(keys, key.Field)
	}

	return "sort by: " + strings.Join(keys, ", ")
}
