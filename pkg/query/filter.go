package query

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// Filter is the structured output of a parse: a boolean-combinator tree over
// leaf predicates, expressed in the document store's filter vocabulary. The
// node set is sealed; hosts walk it with a type switch.
type Filter interface {
	filterNode()
}

// And matches documents satisfying every term. An empty And matches everything.
type And struct {
	Terms []Filter
}

// Or matches documents satisfying at least one term. An empty Or matches
// nothing.
type Or struct {
	Terms []Filter
}

// CmpOp is the comparison operator of a leaf predicate.
type CmpOp int

const (
	OpEq     CmpOp = iota // exact equality
	OpEqFold              // case-insensitive equality
	OpGt
	OpGte
	OpLt
	OpLte
	OpIn
	OpNotIn
	OpRegex // case-insensitive regular expression match
)

// Compare is a leaf predicate: one field path, one operator, one operand.
// A nil Value with OpEq means "field is null or absent".
type Compare struct {
	Path  string
	Op    CmpOp
	Value any
}

// TextSearch is a full-text predicate. The underlying index allows at most one
// per query, which the transformer enforces.
type TextSearch struct {
	Term string
}

func (*And) filterNode()        {}
func (*Or) filterNode()         {}
func (*Compare) filterNode()    {}
func (*TextSearch) filterNode() {}

// MarshalJSON renders the combinator in the document store's vocabulary.
func (f *And) MarshalJSON() ([]byte, error) {
	if len(f.Terms) == 0 {
		return []byte(`{}`), nil
	}

	return json.Marshal(map[string]any{"$and": f.Terms})
}

// MarshalJSON renders the combinator in the document store's vocabulary.
// The empty Or has no native spelling, so it renders as $nor over the
// match-everything document.
func (f *Or) MarshalJSON() ([]byte, error) {
	if len(f.Terms) == 0 {
		return []byte(`{"$nor":[{}]}`), nil
	}

	return json.Marshal(map[string]any{"$or": f.Terms})
}

// MarshalJSON renders the predicate in the document store's vocabulary.
func (f *Compare) MarshalJSON() ([]byte, error) {
	var operand any

	switch f.Op {
	case OpEq:
		operand = f.Value
	case OpEqFold:
		operand = map[string]any{
			"$regex":   fmt.Sprintf("^%s$", regexp.QuoteMeta(fmt.Sprint(f.Value))),
			"$options": "i",
		}
	case OpRegex:
		operand = map[string]any{"$regex": f.Value, "$options": "i"}
	case OpGt:
		operand = map[string]any{"$gt": f.Value}
	case OpGte:
		operand = map[string]any{"$gte": f.Value}
	case OpLt:
		operand = map[string]any{"$lt": f.Value}
	case OpLte:
		operand = map[string]any{"$lte": f.Value}
	case OpIn:
		operand = map[string]any{"$in": f.Value}
	case OpNotIn:
		operand = map[string]any{"$nin": f.Value}
	default:
		return nil, fmt.Errorf("unknown comparison operator %d", int(f.Op))
	}

	return json.Marshal(map[string]any{f.Path: operand})
}

// MarshalJSON renders the predicate in the document store's vocabulary.
func (f *TextSearch) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"$text": map[string]any{"$search": f.Term}})
}

// countTextPredicates walks the tree counting TextSearch leaves.
func countTextPredicates(f Filter) int {
	switch node := f.(type) {
	case nil:
		return 0
	case *TextSearch:
		return 1
	case *And:
		n := 0
		for _, term := range node.Terms {
			n += countTextPredicates(term)
		}

		return n
	case *Or:
		n := 0
		for _, term := range node.Terms {
			n += countTextPredicates(term)
		}

		return n
	case *Compare:
		return 0
	}

	return 0
}
