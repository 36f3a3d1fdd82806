package query

import "strings"

// logicalOp is a binary boolean operator of the query language.
type logicalOp int

const (
	opAnd logicalOp = iota
	opOr
)

func (op logicalOp) String() string {
	if op == opOr {
		return "or"
	}

	return "and"
}

// parseNode is one node of the logical expression tree: either an exprLeaf or
// an opNode. The tree is immutable once built and lives for a single parse.
type parseNode interface {
	isNode()
}

// exprLeaf is an un-decomposed span of query text between logical operators.
// Pos is the byte offset of the span in the original filter text, so leaf
// failures can be attributed back to exact input.
type exprLeaf struct {
	text string
	pos  int
}

// opNode joins two sub-expressions with and/or.
type opNode struct {
	op    logicalOp
	left  parseNode
	right parseNode
}

func (*exprLeaf) isNode() {}
func (*opNode) isNode()   {}

// validateBrackets checks parenthesis balance before any tokenization.
// Quoted spans are opaque. A stray close reports its own position; a dangling
// open is only detectable at end of input and reports the position of the
// first bracket left unclosed.
func validateBrackets(src string) *BracketError {
	var open []int

	inQuote := false

	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '"':
			inQuote = !inQuote
		case '(':
			if !inQuote {
				open = append(open, i)
			}
		case ')':
			if inQuote {
				continue
			}

			if len(open) == 0 {
				return &BracketError{Value: ")", Pos: i}
			}

			open = open[:len(open)-1]
		}
	}

	if len(open) > 0 {
		return &BracketError{Pos: open[0]}
	}

	return nil
}

type logicTokenKind int

const (
	tokLeaf logicTokenKind = iota
	tokOp
	tokLParen
	tokRParen
)

type logicToken struct {
	kind logicTokenKind
	op   logicalOp
	text string
	pos  int
}

// tokenizeLogic splits filter text into brackets, and/or operators, and
// expression leaves. Operator keywords are exact lowercase words; anything
// else accumulates into leaves with original spacing preserved. Leaf contents
// are not parsed here.
func tokenizeLogic(src string) ([]logicToken, error) {
	var words []logicToken

	i := 0

	for i < len(src) {
		c := src[i]

		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case c == '(':
			words = append(words, logicToken{kind: tokLParen, text: "(", pos: i})
			i++

		case c == ')':
			words = append(words, logicToken{kind: tokRParen, text: ")", pos: i})
			i++

		default:
			start := i

			for i < len(src) {
				c := src[i]
				if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '(' || c == ')' {
					break
				}

				if c == '"' {
					end := strings.IndexByte(src[i+1:], '"')
					if end < 0 {
						return nil, &UnexpectedEndOfExpressionError{PrevToken: src[start:i]}
					}

					i += end + 2

					continue
				}

				i++
			}

			word := src[start:i]

			switch word {
			case "and":
				words = append(words, logicToken{kind: tokOp, op: opAnd, text: word, pos: start})
			case "or":
				words = append(words, logicToken{kind: tokOp, op: opOr, text: word, pos: start})
			default:
				words = append(words, logicToken{kind: tokLeaf, text: word, pos: start})
			}
		}
	}

	return mergeLeafWords(src, words), nil
}

// mergeLeafWords joins adjacent leaf words back into a single leaf spanning the
// original text, so "priority: 1 .. 5" stays one leaf.
func mergeLeafWords(src string, words []logicToken) []logicToken {
	var out []logicToken

	for _, w := range words {
		if w.kind == tokLeaf && len(out) > 0 && out[len(out)-1].kind == tokLeaf {
			prev := &out[len(out)-1]
			prev.text = src[prev.pos : w.pos+len(w.text)]

			continue
		}

		out = append(out, w)
	}

	return out
}

// logicParser consumes the token stream left to right.
type logicParser struct {
	tokens []logicToken
	pos    int
}

// parseExpression turns filter text into a parse tree. An empty input returns
// a nil tree, which callers treat as "match everything".
//
// AND and OR share a single precedence level and associate left to right;
// "a and b or c" is "(a and b) or c". This flat precedence is a deliberate
// behavioral contract of the language, not an oversight.
func parseExpression(src string) (parseNode, error) {
	if err := validateBrackets(src); err != nil {
		return nil, err
	}

	tokens, err := tokenizeLogic(src)
	if err != nil {
		return nil, err
	}

	if len(tokens) == 0 {
		return nil, nil
	}

	p := &logicParser{tokens: tokens}

	node, err := p.parseBinary()
	if err != nil {
		return nil, err
	}

	if !p.eof() {
		next := p.tokens[p.pos]

		return nil, transformErrorAt(next.pos, []string{"and", "or"},
			"expected \"and\" or \"or\" before %q", next.text)
	}

	return node, nil
}

func (p *logicParser) parseBinary() (parseNode, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	for !p.eof() && p.tokens[p.pos].kind == tokOp {
		op := p.tokens[p.pos]
		p.pos++

		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}

		left = &opNode{op: op.op, left: left, right: right}
	}

	return left, nil
}

func (p *logicParser) parseOperand() (parseNode, error) {
	if p.eof() {
		return nil, &UnexpectedEndOfExpressionError{PrevToken: p.prevText()}
	}

	tok := p.tokens[p.pos]

	switch tok.kind {
	case tokLeaf:
		p.pos++

		return &exprLeaf{text: tok.text, pos: tok.pos}, nil

	case tokLParen:
		p.pos++

		inner, err := p.parseBinary()
		if err != nil {
			return nil, err
		}

		// Bracket validation guarantees the close exists unless another leaf
		// or group follows without an operator, which parseExpression rejects
		// one level up.
		if !p.eof() && p.tokens[p.pos].kind == tokRParen {
			p.pos++

			return inner, nil
		}

		if p.eof() {
			return nil, &UnexpectedEndOfExpressionError{PrevToken: p.prevText()}
		}

		next := p.tokens[p.pos]

		return nil, transformErrorAt(next.pos, []string{"and", "or", SymbolCloseParen},
			"expected \"and\" or \"or\" before %q", next.text)

	case tokOp:
		return nil, &OperatorError{
			Operator: tok.text,
			Pos:      tok.pos,
			Expected: []string{SymbolExpression, SymbolOpenParen},
		}

	case tokRParen:
		// Balanced input can still put a close bracket where an operand
		// belongs, as in "(a: 1 and)".
		return nil, &UnexpectedEndOfExpressionError{PrevToken: p.prevText()}
	}

	return nil, &UnexpectedEndOfExpressionError{PrevToken: p.prevText()}
}

func (p *logicParser) prevText() string {
	if p.pos == 0 {
		return ""
	}

	return p.tokens[p.pos-1].text
}

func (p *logicParser) eof() bool {
	return p.pos >= len(p.tokens)
}
