// Package query compiles the issue search mini-language into structured
// filters and sort specifications.
//
// The language supports:
//   - Field conditions: project: FOO, priority: 1..5, assignee: me
//   - Boolean operators: and, or (equal precedence, left to right)
//   - Parentheses for grouping: (state: Open or state: Blocked) and priority: 1
//   - Hashtag predicates: #resolved, #unresolved
//   - Relative dates: created_at: today, updated_at: now -1d, this week
//   - A trailing sort clause: sort by: updated_at desc, priority
//
// Example queries:
//   - project: FOO and assignee: me and priority: 1..5 and #unresolved
//   - status: Closed and created_at: this month sort by: created_at desc
//   - some free text and subject: "exact subject"
//
// The engine is purely computational: it receives an immutable catalog
// snapshot and query text, and returns a filter tree for the host's document
// store to execute. It performs no I/O, keeps no cross-call state, and is safe
// for concurrent use.
package query

import (
	"strings"
	"time"
)

// Engine compiles queries against one catalog snapshot and user identity.
//
// The zero clock is the wall clock; tests pin it with WithClock so
// relative-date resolution is deterministic.
type Engine struct {
	catalog *Catalog
	user    string
	now     func() time.Time
}

// NewEngine returns an engine for the given catalog snapshot. user is the
// signed-in user's email, substituted for the "me" keyword; empty means
// anonymous, in which case "me" is a query error.
func NewEngine(catalog *Catalog, user string) *Engine {
	return &Engine{catalog: catalog, user: user, now: time.Now}
}

// WithClock returns a copy of the engine that resolves relative dates against
// the given clock instead of the wall clock.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	clone := *e
	clone.now = now

	return &clone
}

// Catalog returns the engine's catalog snapshot.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// ParseFilter compiles the filter part of a query (everything before the
// "sort by:" clause, see SplitQuery) into a structured filter. An empty input
// yields an empty And, which matches everything.
//
// Errors are *BracketError, *OperatorError, *UnexpectedEndOfExpressionError or
// *TransformError; all mean "this query is invalid" and carry user-renderable
// messages.
func (e *Engine) ParseFilter(filterText string) (Filter, error) {
	tree, err := parseExpression(filterText)
	if err != nil {
		return nil, err
	}

	tr := &transformer{catalog: e.catalog, user: e.user, now: e.now()}

	filter, err := tr.filterFor(tree)
	if err != nil {
		return nil, err
	}

	// The full-text index takes a single text predicate per query.
	if countTextPredicates(filter) > 1 {
		return nil, transformErrorf("a query may contain at most one text search term")
	}

	return filter, nil
}

// ParseSort compiles the body of a "sort by:" clause (as returned by
// SplitQuery) into ordered sort keys. An empty clause yields the default
// ordering, most recently updated first.
func (e *Engine) ParseSort(sortText string) ([]SortKey, error) {
	return parseSortClause(sortText, e.catalog)
}

// sortMarker introduces the sort clause. It is matched case-insensitively at a
// word boundary, outside quoted strings.
const sortMarker = "sort by:"

// SplitQuery separates a query into its filter part and the body of its sort
// clause. The sort marker itself is not part of either. The two parts feed
// ParseFilter and ParseSort respectively.
func SplitQuery(queryText string) (filterPart, sortPart string) {
	inQuote := false

	for i := 0; i < len(queryText); i++ {
		if queryText[i] == '"' {
			inQuote = !inQuote
			continue
		}

		if inQuote {
			continue
		}

		if i > 0 && queryText[i-1] != ' ' && queryText[i-1] != '\t' {
			continue
		}

		if len(queryText)-i < len(sortMarker) {
			break
		}

		if strings.EqualFold(queryText[i:i+len(sortMarker)], sortMarker) {
			return queryText[:i], queryText[i+len(sortMarker):]
		}
	}

	return queryText, ""
}
