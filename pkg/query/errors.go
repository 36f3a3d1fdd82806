package query

import (
	"fmt"
	"strings"
)

// Grammar symbol names carried in expected-token sets. The suggestion engine
// and the free-text fallback both key off these, so the names are part of the
// package contract.
const (
	SymbolField        = "field name"
	SymbolColon        = ":"
	SymbolValue        = "value"
	SymbolNull         = "null"
	SymbolNumber       = "number"
	SymbolDate         = "date"
	SymbolString       = "string"
	SymbolExpression   = "expression"
	SymbolOpenParen    = "("
	SymbolCloseParen   = ")"
	SymbolHashtag      = "hashtag"
	SymbolRangeEnd     = "range end"
	SymbolRelativeUnit = "week|month|year"
	SymbolOffsetUnit   = "h|d"
	SymbolQuote        = `"`
)

// BracketError reports unbalanced parentheses.
//
// Value holds the offending character for a stray close bracket and is empty
// for a dangling open bracket, which is only detectable at end of input; Pos
// then points at the open bracket that was never closed.
type BracketError struct {
	Value string
	Pos   int
}

func (e *BracketError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("unclosed bracket at position %d", e.Pos)
	}

	return fmt.Sprintf("unexpected %q at position %d", e.Value, e.Pos)
}

// OperatorError reports an and/or token in a position where an operand was
// expected.
type OperatorError struct {
	Operator string
	Pos      int
	Expected []string
}

func (e *OperatorError) Error() string {
	return fmt.Sprintf("unexpected operator %q at position %d, expected %s",
		e.Operator, e.Pos, strings.Join(e.Expected, " or "))
}

// UnexpectedEndOfExpressionError reports input that ends mid-expression, such
// as a trailing operator or an unterminated quote. PrevToken holds the last
// token seen before the end, for context in user-facing messages.
type UnexpectedEndOfExpressionError struct {
	PrevToken string
}

func (e *UnexpectedEndOfExpressionError) Error() string {
	if e.PrevToken == "" {
		return "unexpected end of expression"
	}

	return fmt.Sprintf("unexpected end of expression after %q", e.PrevToken)
}

// TransformError is the catch-all failure for leaf tokenization and all
// field/value validation. Message is meant to be rendered to the end user
// verbatim. Pos is a byte offset into the text being parsed, or -1 when no
// position applies. Expected lists the grammar symbols that would have been
// legal at Pos; the suggestion engine reads it to decide what to complete.
type TransformError struct {
	Message  string
	Pos      int
	Expected []string
}

func (e *TransformError) Error() string {
	return e.Message
}

// expects reports whether the expected set contains the given symbol.
func (e *TransformError) expects(symbol string) bool {
	for _, s := range e.Expected {
		if s == symbol {
			return true
		}
	}

	return false
}

// transformErrorf builds a position-less TransformError.
func transformErrorf(format string, args ...any) *TransformError {
	return &TransformError{Message: fmt.Sprintf(format, args...), Pos: -1}
}

// transformErrorAt builds a TransformError at a byte offset with an expected
// symbol set.
func transformErrorAt(pos int, expected []string, format string, args ...any) *TransformError {
	return &TransformError{
		Message:  fmt.Sprintf(format, args...),
		Pos:      pos,
		Expected: expected,
	}
}
