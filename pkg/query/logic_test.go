package query

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// sexpr renders a parse tree for compact structural assertions.
func sexpr(node parseNode) string {
	switch n := node.(type) {
	case nil:
		return "nil"
	case *exprLeaf:
		return fmt.Sprintf("[%s]", strings.TrimSpace(n.text))
	case *opNode:
		return fmt.Sprintf("(%s %s %s)", n.op, sexpr(n.left), sexpr(n.right))
	}

	return "?"
}

// Contract: AND and OR share one precedence level and associate left to
// right, so "a and b or c" groups as "(a and b) or c".
func Test_ParseExpression_Uses_Flat_LeftAssociative_Precedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  string
		want string
	}{
		{"a: 1", "[a: 1]"},
		{"a: 1 and b: 2", "(and [a: 1] [b: 2])"},
		{"a: 1 and b: 2 or c: 3", "(or (and [a: 1] [b: 2]) [c: 3])"},
		{"a: 1 or b: 2 and c: 3", "(and (or [a: 1] [b: 2]) [c: 3])"},
		{"a: 1 and (b: 2 or c: 3)", "(and [a: 1] (or [b: 2] [c: 3]))"},
		{"((a: 1))", "[a: 1]"},
		{"priority: 1 .. 5", "[priority: 1 .. 5]"},
	}

	for _, tt := range tests {
		node, err := parseExpression(tt.src)
		if err != nil {
			t.Fatalf("parseExpression(%q): %v", tt.src, err)
		}

		if got := sexpr(node); got != tt.want {
			t.Fatalf("parseExpression(%q) = %s, want %s", tt.src, got, tt.want)
		}
	}
}

// Contract: operator keywords are exact lowercase words; "AND" and "Or" are
// leaf text, not operators.
func Test_ParseExpression_Treats_Uppercase_Keywords_As_Leaf_Text(t *testing.T) {
	t.Parallel()

	node, err := parseExpression("a: 1 AND b: 2")
	if err != nil {
		t.Fatalf("parseExpression: %v", err)
	}

	if got := sexpr(node); got != "[a: 1 AND b: 2]" {
		t.Fatalf("parseExpression = %s, want one merged leaf", got)
	}
}

// Contract: empty input parses to a nil tree, which the transformer turns into
// a match-everything filter.
func Test_ParseExpression_Returns_Nil_When_Empty(t *testing.T) {
	t.Parallel()

	for _, src := range []string{"", "   ", "\t\n"} {
		node, err := parseExpression(src)
		if err != nil {
			t.Fatalf("parseExpression(%q): %v", src, err)
		}

		if node != nil {
			t.Fatalf("parseExpression(%q) = %s, want nil", src, sexpr(node))
		}
	}
}

// Contract: a stray close bracket reports its own position; a dangling open
// reports the first bracket left unclosed.
func Test_ParseExpression_Reports_Bracket_Errors(t *testing.T) {
	t.Parallel()

	_, err := parseExpression("a: 1) and b: 2")

	var berr *BracketError
	if !errors.As(err, &berr) {
		t.Fatalf("error = %v, want *BracketError", err)
	}

	if berr.Value != ")" || berr.Pos != 4 {
		t.Fatalf("BracketError = %+v, want close bracket at 4", berr)
	}

	_, err = parseExpression("((a: 1) and (b: 2)")

	if !errors.As(err, &berr) {
		t.Fatalf("error = %v, want *BracketError", err)
	}

	if berr.Value != "" || berr.Pos != 0 {
		t.Fatalf("BracketError = %+v, want dangling open at 0", berr)
	}
}

// Contract: brackets inside quoted strings are opaque to balance checking.
func Test_ParseExpression_Ignores_Brackets_In_Quotes(t *testing.T) {
	t.Parallel()

	node, err := parseExpression(`subject: "weird ) value ("`)
	if err != nil {
		t.Fatalf("parseExpression: %v", err)
	}

	if _, ok := node.(*exprLeaf); !ok {
		t.Fatalf("parseExpression = %s, want single leaf", sexpr(node))
	}
}

// Contract: an operator with no operand before it is an OperatorError carrying
// the operator and its position.
func Test_ParseExpression_Rejects_Leading_Operator(t *testing.T) {
	t.Parallel()

	_, err := parseExpression("and a: 1")

	var oerr *OperatorError
	if !errors.As(err, &oerr) {
		t.Fatalf("error = %v, want *OperatorError", err)
	}

	if oerr.Operator != "and" || oerr.Pos != 0 {
		t.Fatalf("OperatorError = %+v, want and at 0", oerr)
	}
}

// Contract: input that ends mid-expression reports the last token seen.
func Test_ParseExpression_Reports_Unexpected_End(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src       string
		prevToken string
	}{
		{"a: 1 and", "and"},
		{"a: 1 or", "or"},
		{"(a: 1 and)", "and"},
	}

	for _, tt := range tests {
		_, err := parseExpression(tt.src)

		var uerr *UnexpectedEndOfExpressionError
		if !errors.As(err, &uerr) {
			t.Fatalf("parseExpression(%q) error = %v, want *UnexpectedEndOfExpressionError", tt.src, err)
		}

		if uerr.PrevToken != tt.prevToken {
			t.Fatalf("parseExpression(%q) PrevToken = %q, want %q", tt.src, uerr.PrevToken, tt.prevToken)
		}
	}
}

// Contract: an unterminated quote ends the expression; it never tokenizes into
// a partial leaf.
func Test_ParseExpression_Rejects_Unterminated_Quote(t *testing.T) {
	t.Parallel()

	_, err := parseExpression(`subject: "half open`)

	var uerr *UnexpectedEndOfExpressionError
	if !errors.As(err, &uerr) {
		t.Fatalf("error = %v, want *UnexpectedEndOfExpressionError", err)
	}
}

// Contract: two groups or a group and a leaf need an operator between them.
func Test_ParseExpression_Requires_Operator_Between_Operands(t *testing.T) {
	t.Parallel()

	for _, src := range []string{"(a: 1) (b: 2)", "(a: 1) b: 2"} {
		_, err := parseExpression(src)
		if err == nil {
			t.Fatalf("parseExpression(%q) succeeded, want error", src)
		}

		var terr *TransformError
		if !errors.As(err, &terr) {
			t.Fatalf("parseExpression(%q) error = %v, want *TransformError", src, err)
		}

		if !strings.Contains(terr.Message, `expected "and" or "or"`) {
			t.Fatalf("parseExpression(%q) message = %q", src, terr.Message)
		}
	}
}
