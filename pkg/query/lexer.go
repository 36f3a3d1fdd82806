package query

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// literalKind classifies a single parsed value literal.
type literalKind int

const (
	litNull literalKind = iota
	litNumber
	litDate
	litDateTime
	litRelative
	litUser
	litString
)

// literal is one value literal of a field expression.
type literal struct {
	kind   literalKind
	text   string // raw text; unquoted content for quoted strings
	quoted bool
	num    float64
	isInt  bool
	when   time.Time    // litDate / litDateTime
	rel    relativeDate // litRelative
	pos    int
}

// valueRange is a `lo..hi` literal pair. A nil side is unbounded, spelled
// -inf or inf in the query text.
type valueRange struct {
	lo, hi *literal
	pos    int
}

// leafExpr is the tokenized form of one expression leaf: either a hashtag
// keyword or a field:value pair whose value is a literal or a range.
type leafExpr struct {
	hashtag  string // "resolved" or "unresolved" when set
	field    string
	fieldPos int
	value    *literal
	rng      *valueRange
	valuePos int
}

var (
	dateTimeAt = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`)
	datePat    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	numberPat  = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)
	emailPat   = regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04:05"
)

// leafScanner tokenizes one expression leaf. Positions are byte offsets into
// the leaf text; callers rebase them onto the full query.
type leafScanner struct {
	src string
	pos int
	loc *time.Location
}

// scanLeaf tokenizes an entire expression leaf. The whole input must be
// consumed; trailing text is an error whose expected set names the field-name
// symbol, which makes it eligible for the free-text fallback.
func scanLeaf(src string, loc *time.Location) (leafExpr, *TransformError) {
	s := &leafScanner{src: src, loc: loc}

	s.skipSpaces()

	if s.eof() {
		return leafExpr{}, transformErrorAt(s.pos,
			[]string{SymbolField, SymbolHashtag, SymbolOpenParen},
			"expected an expression")
	}

	if s.peek() == '#' {
		leaf, err := s.scanHashtag()
		if err != nil {
			return leafExpr{}, err
		}

		return leaf, s.requireEnd()
	}

	leaf, err := s.scanFieldExpr()
	if err != nil {
		return leafExpr{}, err
	}

	return leaf, s.requireEnd()
}

func (s *leafScanner) scanHashtag() (leafExpr, *TransformError) {
	start := s.pos
	s.pos++ // consume '#'

	wordStart := s.pos
	for !s.eof() && (unicode.IsLetter(s.peek()) || unicode.IsDigit(s.peek())) {
		s.pos++
	}

	word := s.src[wordStart:s.pos]

	switch strings.ToLower(word) {
	case "resolved":
		return leafExpr{hashtag: "resolved", fieldPos: start}, nil
	case "unresolved":
		return leafExpr{hashtag: "unresolved", fieldPos: start}, nil
	}

	return leafExpr{}, transformErrorAt(start, []string{SymbolHashtag},
		"unknown hashtag #%s, expected #resolved or #unresolved", word)
}

func (s *leafScanner) scanFieldExpr() (leafExpr, *TransformError) {
	namePos := s.pos

	name, err := s.scanFieldName()
	if err != nil {
		return leafExpr{}, err
	}

	s.skipSpaces()

	if s.eof() || s.peek() != ':' {
		return leafExpr{}, transformErrorAt(s.pos, []string{SymbolColon},
			"expected %q after field name %q", ":", name)
	}

	s.pos++ // consume ':'
	s.skipSpaces()

	leaf := leafExpr{field: name, fieldPos: namePos, valuePos: s.pos}

	value, rng, valErr := s.scanValue()
	if valErr != nil {
		return leafExpr{}, valErr
	}

	leaf.value = value
	leaf.rng = rng

	return leaf, nil
}

// scanFieldName reads a field name: alnum/underscore/space/hyphen characters,
// starting with an alnum or underscore. Trailing spaces before the colon are
// not part of the name.
func (s *leafScanner) scanFieldName() (string, *TransformError) {
	r := s.peek()
	if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
		return "", transformErrorAt(s.pos, []string{SymbolField, SymbolHashtag},
			"expected a field name, got %q", string(r))
	}

	start := s.pos

	for !s.eof() {
		r := s.peek()
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == ' ' || r == '-' {
			s.pos++
			continue
		}

		break
	}

	return strings.TrimRight(s.src[start:s.pos], " "), nil
}

// scanValue reads a single literal or a `..` range of like-typed literals.
func (s *leafScanner) scanValue() (*literal, *valueRange, *TransformError) {
	rangePos := s.pos

	lo, loInf, err := s.scanRangeSide(true)
	if err != nil {
		return nil, nil, err
	}

	mark := s.pos

	s.skipSpaces()

	if !strings.HasPrefix(s.src[s.pos:], "..") {
		s.pos = mark

		if loInf {
			return nil, nil, transformErrorAt(rangePos, []string{SymbolValue},
				"infinity is only valid as a range bound")
		}

		return lo, nil, nil
	}

	s.pos += 2

	s.skipSpaces()

	if s.eof() {
		return nil, nil, transformErrorAt(s.pos, []string{SymbolRangeEnd},
			"expected a range end after \"..\"")
	}

	hi, hiInf, err := s.scanRangeSide(false)
	if err != nil {
		return nil, nil, err
	}

	if loInf && hiInf {
		return nil, nil, transformErrorAt(rangePos, []string{SymbolValue},
			"a range needs at least one bounded side")
	}

	if lo != nil && hi != nil && !likeTyped(lo.kind, hi.kind) {
		return nil, nil, transformErrorAt(rangePos, []string{SymbolRangeEnd},
			"range bounds must have the same type")
	}

	return nil, &valueRange{lo: lo, hi: hi, pos: rangePos}, nil
}

// likeTyped reports whether two literal kinds may form a range.
func likeTyped(a, b literalKind) bool {
	return a == b && (a == litNumber || a == litDate || a == litDateTime || a == litRelative)
}

// scanRangeSide reads one side of a (potential) range: a literal, or the
// unbounded sentinel (-inf on the left, inf on the right). A nil literal with
// ok=true means unbounded.
func (s *leafScanner) scanRangeSide(left bool) (*literal, bool, *TransformError) {
	if left && s.hasToken("-inf") {
		return nil, true, nil
	}

	if !left && (s.hasToken("inf") || s.hasToken("-inf")) {
		return nil, true, nil
	}

	lit, err := s.scanLiteral()
	if err != nil {
		return nil, false, err
	}

	return lit, false, nil
}

// hasToken consumes the given token if it appears at the cursor as a complete
// bare token (case-insensitive).
func (s *leafScanner) hasToken(token string) bool {
	end := s.pos + len(token)
	if end > len(s.src) {
		return false
	}

	if !strings.EqualFold(s.src[s.pos:end], token) {
		return false
	}

	// A ".." range delimiter ends a bare token; any other bare character
	// means the candidate is a prefix of a longer token.
	if end < len(s.src) && isBareChar(rune(s.src[end])) && !strings.HasPrefix(s.src[end:], "..") {
		return false
	}

	s.pos = end

	return true
}

// scanLiteral reads one value literal, trying the grammar alternatives in
// priority order.
func (s *leafScanner) scanLiteral() (*literal, *TransformError) {
	if s.eof() {
		return nil, transformErrorAt(s.pos, []string{SymbolValue, SymbolNull},
			"expected a value")
	}

	start := s.pos

	if s.peek() == '"' {
		return s.scanQuoted()
	}

	// Datetimes contain colons, which bare tokens exclude, so probe for the
	// full datetime shape before generic token scanning.
	if m := dateTimeAt.FindString(s.src[s.pos:]); m != "" {
		end := s.pos + len(m)
		if end == len(s.src) || !isBareChar(rune(s.src[end])) || strings.HasPrefix(s.src[end:], "..") {
			when, err := time.ParseInLocation(dateTimeLayout, m, s.loc)
			if err == nil {
				s.pos = end

				return &literal{kind: litDateTime, text: m, when: when, pos: start}, nil
			}
		}
	}

	token := s.scanBareToken()
	if token == "" {
		return nil, transformErrorAt(start, []string{SymbolValue},
			"unexpected character %q", string(s.peek()))
	}

	switch {
	case strings.EqualFold(token, "null"):
		return &literal{kind: litNull, text: token, pos: start}, nil

	case numberPat.MatchString(token):
		num, _ := strconv.ParseFloat(token, 64)

		return &literal{
			kind:  litNumber,
			text:  token,
			num:   num,
			isInt: !strings.Contains(token, "."),
			pos:   start,
		}, nil

	case datePat.MatchString(token):
		when, err := time.ParseInLocation(dateLayout, token, s.loc)
		if err != nil {
			return nil, transformErrorAt(start, []string{SymbolDate},
				"invalid date %q", token)
		}

		return &literal{kind: litDate, text: token, when: when, pos: start}, nil

	case strings.EqualFold(token, "now"), strings.EqualFold(token, "today"):
		anchor := relNow
		if strings.EqualFold(token, "today") {
			anchor = relToday
		}

		offset, err := s.scanOffsets()
		if err != nil {
			return nil, err
		}

		return &literal{
			kind: litRelative,
			text: s.src[start:s.pos],
			rel:  relativeDate{anchor: anchor, offset: offset},
			pos:  start,
		}, nil

	case strings.EqualFold(token, "this"):
		return s.scanThisAnchor(start)

	case strings.EqualFold(token, "me"):
		return &literal{kind: litUser, text: token, pos: start}, nil

	case emailPat.MatchString(token):
		return &literal{kind: litUser, text: token, pos: start}, nil
	}

	return &literal{kind: litString, text: token, pos: start}, nil
}

func (s *leafScanner) scanQuoted() (*literal, *TransformError) {
	start := s.pos
	s.pos++ // consume opening quote

	end := strings.IndexByte(s.src[s.pos:], '"')
	if end < 0 {
		return nil, transformErrorAt(start, []string{SymbolQuote},
			"unterminated string")
	}

	content := s.src[s.pos : s.pos+end]
	s.pos += end + 1

	return &literal{kind: litString, text: content, quoted: true, pos: start}, nil
}

// scanThisAnchor completes a "this <unit>" relative date after the leading
// "this" token has been consumed.
func (s *leafScanner) scanThisAnchor(start int) (*literal, *TransformError) {
	s.skipSpaces()

	unitPos := s.pos
	unit := s.scanBareToken()

	var anchor relAnchor

	switch strings.ToLower(unit) {
	case "week":
		anchor = relThisWeek
	case "month":
		anchor = relThisMonth
	case "year":
		anchor = relThisYear
	default:
		return nil, transformErrorAt(unitPos, []string{SymbolRelativeUnit},
			"expected week, month or year after \"this\"")
	}

	// Offsets only apply to the now/today anchors.
	mark := s.pos

	s.skipSpaces()

	if !s.eof() && (s.peek() == '+' || s.peek() == '-') && !strings.HasPrefix(s.src[s.pos:], "-inf") {
		return nil, transformErrorAt(s.pos, nil,
			"offsets are not allowed on \"this %s\"", strings.ToLower(unit))
	}

	s.pos = mark

	return &literal{
		kind: litRelative,
		text: s.src[start:s.pos],
		rel:  relativeDate{anchor: anchor},
		pos:  start,
	}, nil
}

// scanOffsets reads zero or more signed offsets (`+N h`, `-N.5 d`) following a
// now/today anchor and returns their net duration. Fractional amounts are only
// legal as halves.
func (s *leafScanner) scanOffsets() (time.Duration, *TransformError) {
	var total time.Duration

	for {
		mark := s.pos

		s.skipSpaces()

		if s.eof() || (s.peek() != '+' && s.peek() != '-') || strings.HasPrefix(s.src[s.pos:], "-inf") {
			s.pos = mark

			return total, nil
		}

		negative := s.peek() == '-'
		s.pos++

		s.skipSpaces()

		numPos := s.pos
		for !s.eof() && (unicode.IsDigit(s.peek()) || s.peek() == '.') {
			s.pos++
		}

		numText := s.src[numPos:s.pos]
		if numText == "" {
			return 0, transformErrorAt(s.pos, []string{SymbolNumber},
				"expected an offset amount")
		}

		amount, err := strconv.ParseFloat(numText, 64)
		if err != nil {
			return 0, transformErrorAt(numPos, []string{SymbolNumber},
				"invalid offset amount %q", numText)
		}

		if frac := amount - float64(int64(amount)); frac != 0 && frac != 0.5 {
			return 0, transformErrorAt(numPos, []string{SymbolNumber},
				"offset amounts allow halves only, got %q", numText)
		}

		s.skipSpaces()

		unitPos := s.pos

		var unit time.Duration

		switch {
		case s.hasToken("h"):
			unit = time.Hour
		case s.hasToken("d"):
			unit = 24 * time.Hour
		default:
			return 0, transformErrorAt(unitPos, []string{SymbolOffsetUnit},
				"expected offset unit h or d")
		}

		step := time.Duration(amount * float64(unit))
		if negative {
			step = -step
		}

		total += step
	}
}

// scanBareToken reads a maximal run of bare value characters. A ".." range
// delimiter terminates the token; a single dot does not, which keeps "1.5"
// whole while splitting "1..5".
func (s *leafScanner) scanBareToken() string {
	start := s.pos

	for !s.eof() {
		if s.src[s.pos] == '.' && strings.HasPrefix(s.src[s.pos:], "..") {
			break
		}

		if !isBareChar(s.peek()) {
			break
		}

		s.pos++
	}

	return s.src[start:s.pos]
}

// isBareChar reports whether a rune may appear in an unquoted value token.
func isBareChar(r rune) bool {
	switch r {
	case ':', '(', ')', '"', '*', '$', '{', '}':
		return false
	}

	return !unicode.IsSpace(r) && r != 0
}

// requireEnd fails when leaf text remains after a complete parse. The error
// expects a field name so the free-text fallback can absorb trailing words.
func (s *leafScanner) requireEnd() *TransformError {
	s.skipSpaces()

	if s.eof() {
		return nil
	}

	return transformErrorAt(s.pos, []string{SymbolField},
		"unexpected trailing text %q", s.src[s.pos:])
}

func (s *leafScanner) skipSpaces() {
	for !s.eof() && unicode.IsSpace(s.peek()) {
		s.pos++
	}
}

func (s *leafScanner) peek() rune {
	if s.eof() {
		return 0
	}

	return rune(s.src[s.pos])
}

func (s *leafScanner) eof() bool {
	return s.pos >= len(s.src)
}
