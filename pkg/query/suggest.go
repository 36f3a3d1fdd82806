package query

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// relativeKeywords are the relative-date spellings suggested for date and
// datetime fields.
var relativeKeywords = []string{"now", "today", "this week", "this month", "this year"}

var hashtagKeywords = []string{"#resolved", "#unresolved"}

var relativeUnits = []string{"week", "month", "year"}

// maxSuggestDistance caps the edit distance for near-miss field-name
// suggestions when no field name prefixes the partial input.
const maxSuggestDistance = 2

// Suggest returns completion candidates for a possibly-incomplete query. It is
// a pure function of the query text, the engine's catalog snapshot and user;
// it performs no I/O.
func (e *Engine) Suggest(queryText string) []string {
	filterPart, sortPart := SplitQuery(queryText)

	if filterPart != queryText {
		return e.sortSuggestions(sortPart)
	}

	if berr := validateBrackets(filterPart); berr != nil && berr.Value != "" {
		// A stray close bracket cannot be completed into anything valid.
		return nil
	}

	needsClose := openBracketDepth(filterPart) > 0

	tokens, err := tokenizeLogic(filterPart)
	if err != nil {
		// Unterminated quote: the user is mid-string, nothing to suggest.
		return nil
	}

	if len(tokens) == 0 {
		return e.startSuggestions()
	}

	last := tokens[len(tokens)-1]

	switch last.kind {
	case tokOp, tokLParen:
		return e.startSuggestions()
	case tokRParen:
		return operatorSuggestions(needsClose)
	case tokLeaf:
		return e.leafSuggestions(last.text, needsClose)
	}

	return nil
}

// openBracketDepth counts unclosed open brackets outside quoted spans.
func openBracketDepth(src string) int {
	depth := 0
	inQuote := false

	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '"':
			inQuote = !inQuote
		case '(':
			if !inQuote {
				depth++
			}
		case ')':
			if !inQuote && depth > 0 {
				depth--
			}
		}
	}

	return depth
}

// startSuggestions offers everything that may begin an expression: field
// names, hashtag keywords and an open bracket.
func (e *Engine) startSuggestions() []string {
	names := e.allFieldNames()

	out := make([]string, 0, len(names)+len(hashtagKeywords)+1)
	out = append(out, names...)
	out = append(out, hashtagKeywords...)
	out = append(out, "(")

	return out
}

func operatorSuggestions(needsClose bool) []string {
	if needsClose {
		return []string{")", "and", "or"}
	}

	return []string{"and", "or"}
}

// leafSuggestions inspects the trailing leaf's parse outcome and completes
// the element being typed.
func (e *Engine) leafSuggestions(text string, needsClose bool) []string {
	le, scanErr := scanLeaf(text, e.now().Location())
	if scanErr == nil {
		tr := &transformer{catalog: e.catalog, user: e.user, now: e.now()}

		if _, err := tr.fragment(le); err != nil {
			// The value tokenized but did not validate; a partial option
			// value like "priority: Hi" lands here.
			if name, partial, ok := splitLeafValue(text); ok && partial != "" {
				return completions(e.legalValues(name), partial)
			}

			return nil
		}

		return operatorSuggestions(needsClose)
	}

	switch {
	case scanErr.expects(SymbolRelativeUnit):
		partial := strings.TrimSpace(text[min(scanErr.Pos, len(text)):])

		return completions(relativeUnits, partial)

	case scanErr.expects(SymbolColon), scanErr.expects(SymbolField), scanErr.expects(SymbolHashtag):
		return e.fieldNameSuggestions(strings.TrimSpace(text))

	case scanErr.expects(SymbolNull), scanErr.expects(SymbolValue), scanErr.expects(SymbolRangeEnd):
		name, partial, ok := splitLeafValue(text)
		if !ok {
			return nil
		}

		if partial == "" {
			return e.legalValues(name)
		}

		return completions(e.legalValues(name), partial)
	}

	return nil
}

// fieldNameSuggestions completes a partial field name: the colon when the
// partial already names a known field exactly, prefix completions otherwise,
// and near-miss names by edit distance when nothing prefixes.
func (e *Engine) fieldNameSuggestions(partial string) []string {
	if partial == "" {
		return e.startSuggestions()
	}

	if strings.HasPrefix(partial, "#") {
		return completions(hashtagKeywords, partial)
	}

	lower := strings.ToLower(partial)

	if e.isKnownField(lower) {
		return []string{":"}
	}

	if out := completions(e.allFieldNames(), lower); len(out) > 0 {
		return out
	}

	return e.nearMissFields(lower)
}

func (e *Engine) nearMissFields(partial string) []string {
	type scored struct {
		name string
		dist int
	}

	var candidates []scored

	for _, name := range e.allFieldNames() {
		if dist := levenshtein.ComputeDistance(partial, name); dist <= maxSuggestDistance {
			candidates = append(candidates, scored{name: name, dist: dist})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}

		return candidates[i].name < candidates[j].name
	})

	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.name)
	}

	return out
}

// legalValues lists the known legal values of a field for completion:
// option display values (archived options excluded), "null" for nullable
// fields, relative-date keywords for temporal fields, plus the keywords of
// the reserved pseudo-fields.
func (e *Engine) legalValues(name string) []string {
	switch strings.ToLower(name) {
	case "created_at", "updated_at":
		return relativeKeywords
	case "created_by", "updated_by":
		return []string{"me"}
	case "project":
		return e.catalog.Projects()
	case "subject", "text", "id", "tag":
		return nil
	}

	var (
		out  []string
		seen = make(map[string]bool)
	)

	add := func(v string) {
		key := strings.ToLower(v)
		if !seen[key] {
			seen[key] = true

			out = append(out, v)
		}
	}

	fields := e.catalog.Fields(name)

	for _, f := range fields {
		options := f.Options
		if f.GroupID != "" {
			options = e.catalog.GroupOptions(f.GroupID)
		}

		if f.Type.IsUserBased() && e.user != "" {
			add("me")
		}

		for _, opt := range options {
			if !opt.Archived {
				add(opt.Value)
			}
		}

		switch {
		case f.Type == TypeBoolean:
			add("true")
			add("false")
		case f.Type.IsDateBased():
			for _, kw := range relativeKeywords {
				add(kw)
			}
		}
	}

	for _, f := range fields {
		if f.Nullable {
			add("null")
			break
		}
	}

	return out
}

// sortSuggestions completes field names inside a "sort by:" clause.
func (e *Engine) sortSuggestions(sortPart string) []string {
	segment := sortPart
	if idx := strings.LastIndexByte(sortPart, ','); idx >= 0 {
		segment = sortPart[idx+1:]
	}

	partial := strings.ToLower(strings.TrimSpace(segment))

	var sortable []string

	for _, name := range e.allFieldNames() {
		if name != "text" {
			sortable = append(sortable, name)
		}
	}

	if partial == "" {
		return sortable
	}

	if e.isKnownField(partial) {
		return []string{"asc", "desc"}
	}

	return completions(sortable, partial)
}

// allFieldNames returns reserved and catalog field names, lowercased, sorted,
// deduplicated.
func (e *Engine) allFieldNames() []string {
	seen := make(map[string]bool)

	var out []string

	for _, name := range reservedFieldNames {
		if !seen[name] {
			seen[name] = true

			out = append(out, name)
		}
	}

	for _, name := range e.catalog.Names() {
		if !seen[name] {
			seen[name] = true

			out = append(out, name)
		}
	}

	sort.Strings(out)

	return out
}

func (e *Engine) isKnownField(name string) bool {
	return isReservedField(name) || len(e.catalog.Fields(name)) > 0
}

// splitLeafValue splits a leaf into its field name and the partial value after
// the colon.
func splitLeafValue(text string) (name, partial string, ok bool) {
	idx := strings.IndexByte(text, ':')
	if idx < 0 {
		return "", "", false
	}

	return strings.TrimSpace(text[:idx]), strings.TrimSpace(text[idx+1:]), true
}

// completions returns the remaining characters of every candidate the partial
// input prefixes, case-insensitively.
func completions(candidates []string, partial string) []string {
	var out []string

	for _, candidate := range candidates {
		if len(candidate) <= len(partial) {
			continue
		}

		if strings.EqualFold(candidate[:len(partial)], partial) {
			out = append(out, candidate[len(partial):])
		}
	}

	return out
}
