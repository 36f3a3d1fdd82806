package query

import (
	"strings"
	"time"
)

// transformer turns a parse tree into a structured filter against one catalog
// snapshot, one user identity and one wall-clock instant. It is created per
// parse call and holds no shared state.
type transformer struct {
	catalog *Catalog
	user    string
	now     time.Time
}

// filterFor walks the parse tree, producing one filter fragment per leaf and
// combining fragments with the tree's and/or operators. Adjacent combinators
// of the same kind are flattened.
func (t *transformer) filterFor(node parseNode) (Filter, error) {
	switch n := node.(type) {
	case nil:
		return &And{}, nil

	case *exprLeaf:
		return t.leafFilter(n)

	case *opNode:
		left, err := t.filterFor(n.left)
		if err != nil {
			return nil, err
		}

		right, err := t.filterFor(n.right)
		if err != nil {
			return nil, err
		}

		if n.op == opOr {
			return &Or{Terms: append(orTerms(left), orTerms(right)...)}, nil
		}

		return &And{Terms: append(andTerms(left), andTerms(right)...)}, nil
	}

	return nil, transformErrorf("unsupported parse node")
}

func andTerms(f Filter) []Filter {
	if and, ok := f.(*And); ok && len(and.Terms) > 0 {
		return and.Terms
	}

	return []Filter{f}
}

func orTerms(f Filter) []Filter {
	if or, ok := f.(*Or); ok && len(or.Terms) > 0 {
		return or.Terms
	}

	return []Filter{f}
}

// leafFilter parses one expression leaf into a fragment, applying the
// free-text fallback: when the leaf fails because no field reference was
// recognized, trailing words are popped into a pending text term one at a
// time until a valid field expression remains or the leaf is consumed.
//
// This is the only place in the package where a failed parse converts into a
// successful value.
func (t *transformer) leafFilter(leaf *exprLeaf) (Filter, error) {
	body := leaf.text
	textTerm := ""

	for {
		le, scanErr := scanLeaf(body, t.now.Location())
		if scanErr == nil {
			frag, err := t.fragment(le)
			if err != nil {
				return nil, rebase(err, leaf.pos)
			}

			if textTerm != "" {
				return &And{Terms: []Filter{frag, &TextSearch{Term: textTerm}}}, nil
			}

			return frag, nil
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
			return &TextSearch{Term: textTerm}, nil
		}
	}
}

// fallbackEligible reports whether a leaf failure may recover as free text:
// only failures whose expected set names the field-name or colon symbols,
// i.e. the scanner never recognized a field reference. Deeper value and
// validation failures propagate.
func fallbackEligible(err *TransformError) bool {
	return err.expects(SymbolField) || err.expects(SymbolColon)
}

// trimLastWord splits off the last whitespace-delimited word.
func trimLastWord(s string) (rest, word string) {
	trimmed := strings.TrimRight(s, " \t")

	idx := strings.LastIndexAny(trimmed, " \t")
	if idx < 0 {
		return "", trimmed
	}

	return trimmed[:idx], trimmed[idx+1:]
}

// rebase shifts a leaf-relative error position onto the full query text.
func rebase(err error, offset int) error {
	if terr, ok := err.(*TransformError); ok && terr.Pos >= 0 {
		terr.Pos += offset
	}

	return err
}

// fragment produces the filter fragment for one tokenized leaf, dispatching to
// hashtag predicates, reserved fields, then the catalog.
func (t *transformer) fragment(le leafExpr) (Filter, error) {
	if le.hashtag != "" {
		return t.hashtagFilter(le.hashtag), nil
	}

	if frag, handled, err := t.reservedFragment(le); handled {
		return frag, err
	}

	fields := t.catalog.Fields(le.field)
	if len(fields) == 0 {
		return nil, transformErrorf("unknown field %q", le.field)
	}

	return t.customFragment(fields, le)
}

// customFragment transforms a leaf against every same-named catalog entry.
// Field names are not unique across projects, so the result is the OR of the
// candidates that accept the value; an error surfaces only when every
// candidate rejects it.
func (t *transformer) customFragment(fields []Field, le leafExpr) (Filter, error) {
	var (
		frags    []Filter
		firstErr error
	)

	for _, f := range fields {
		frag, err := t.typedFragment(f, le)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}

			continue
		}

		frags = append(frags, frag)
	}

	if len(frags) == 0 {
		return nil, firstErr
	}

	if len(frags) == 1 {
		return frags[0], nil
	}

	return &Or{Terms: frags}, nil
}

// fieldPath is the document path of a custom field value.
func fieldPath(name string) string {
	return "fields." + strings.ToLower(name)
}

// typedFragment converts a leaf value into a predicate for one concrete
// catalog entry. The switch is exhaustive over FieldType.
func (t *transformer) typedFragment(f Field, le leafExpr) (Filter, error) {
	path := fieldPath(f.Name)

	if le.value != nil && le.value.kind == litNull {
		return t.nullFragment(f, path)
	}

	switch f.Type {
	case TypeString:
		lit, err := requireScalar(f.Name, le)
		if err != nil {
			return nil, err
		}

		return &Compare{Path: path, Op: OpEq, Value: lit.text}, nil

	case TypeInteger:
		return t.numberFragment(f, path, le, true)

	case TypeFloat, TypeDuration:
		return t.numberFragment(f, path, le, false)

	case TypeBoolean:
		lit, err := requireScalar(f.Name, le)
		if err != nil {
			return nil, err
		}

		switch {
		case strings.EqualFold(lit.text, "true"):
			return &Compare{Path: path, Op: OpEq, Value: true}, nil
		case strings.EqualFold(lit.text, "false"):
			return &Compare{Path: path, Op: OpEq, Value: false}, nil
		}

		return nil, transformErrorf(
			"invalid value %q for boolean field %q, expected true, false or null",
			lit.text, f.Name)

	case TypeDate, TypeDateTime:
		return t.dateFragment(path, f.Name, le, false)

	case TypeEnum, TypeEnumMulti, TypeState,
		TypeVersion, TypeVersionMulti,
		TypeUser, TypeUserMulti,
		TypeOwned, TypeOwnedMulti,
		TypeSprint, TypeSprintMulti:
		return t.optionFragment(f, path, le)
	}

	return nil, transformErrorf("field %q has an unsupported type", f.Name)
}

func (t *transformer) nullFragment(f Field, path string) (Filter, error) {
	if !f.Nullable {
		return nil, transformErrorf("field %q cannot be empty", f.Name)
	}

	return &Compare{Path: path, Op: OpEq, Value: nil}, nil
}

// optionFragment matches a literal against the field's option set by display
// value, case-insensitively. User-based fields additionally accept "me" as the
// signed-in user.
func (t *transformer) optionFragment(f Field, path string, le leafExpr) (Filter, error) {
	lit, err := requireScalar(f.Name, le)
	if err != nil {
		return nil, err
	}

	value := lit.text

	if f.Type.IsUserBased() && lit.kind == litUser && strings.EqualFold(value, "me") {
		if t.user == "" {
			return nil, transformErrorf("%q requires a signed-in user", "me")
		}

		value = t.user
	}

	opt, found := f.FindOption(value)
	if !found {
		return nil, transformErrorf("value %q not found for field %q", value, f.Name)
	}

	// Predicates compare on the option's display value, never its internal id.
	return &Compare{Path: path, Op: OpEq, Value: opt.Value}, nil
}

// numberFragment handles numeric equality and ranges. Bounded ranges are
// inclusive on both ends; one-sided ranges are exclusive.
func (t *transformer) numberFragment(f Field, path string, le leafExpr, wantInt bool) (Filter, error) {
	if le.rng != nil {
		return t.numberRange(f, path, le.rng, wantInt)
	}

	lit := le.value
	if lit.kind != litNumber {
		return nil, transformErrorf("expected a number for field %q, got %q", f.Name, lit.text)
	}

	value, err := numericValue(f, lit, wantInt)
	if err != nil {
		return nil, err
	}

	return &Compare{Path: path, Op: OpEq, Value: value}, nil
}

func (t *transformer) numberRange(f Field, path string, rng *valueRange, wantInt bool) (Filter, error) {
	var lo, hi any

	if rng.lo != nil {
		if rng.lo.kind != litNumber {
			return nil, transformErrorf("expected a number for field %q, got %q", f.Name, rng.lo.text)
		}

		value, err := numericValue(f, rng.lo, wantInt)
		if err != nil {
			return nil, err
		}

		lo = value
	}

	if rng.hi != nil {
		if rng.hi.kind != litNumber {
			return nil, transformErrorf("expected a number for field %q, got %q", f.Name, rng.hi.text)
		}

		value, err := numericValue(f, rng.hi, wantInt)
		if err != nil {
			return nil, err
		}

		hi = value
	}

	switch {
	case lo != nil && hi != nil:
		if rng.lo.num > rng.hi.num {
			return nil, transformErrorf("range start %q is greater than its end %q", rng.lo.text, rng.hi.text)
		}

		return &And{Terms: []Filter{
			&Compare{Path: path, Op: OpGte, Value: lo},
			&Compare{Path: path, Op: OpLte, Value: hi},
		}}, nil

	case hi != nil:
		return &Compare{Path: path, Op: OpLt, Value: hi}, nil

	default:
		return &Compare{Path: path, Op: OpGt, Value: lo}, nil
	}
}

func numericValue(f Field, lit *literal, wantInt bool) (any, error) {
	if wantInt {
		if !lit.isInt {
			return nil, transformErrorf("expected an integer for field %q, got %q", f.Name, lit.text)
		}

		return int64(lit.num), nil
	}

	return lit.num, nil
}

// dateFragment handles date, datetime and relative-date values and ranges for
// one field path.
//
// A bare date expands to that calendar day's window. With clamp set (only the
// reserved updated_at/created_at fields), a window for today's date has its
// upper bound clamped to the current instant; dates past today keep the full
// day window even though nothing can match there. That asymmetry is
// long-standing observed behavior and is preserved as-is.
func (t *transformer) dateFragment(path, name string, le leafExpr, clamp bool) (Filter, error) {
	le = reparseQuotedValue(le, t.now.Location())

	if le.rng != nil {
		return t.dateRange(path, name, le.rng)
	}

	lit := le.value

	switch lit.kind {
	case litDate:
		start, end := dayWindow(lit.when)
		if clamp && sameDay(lit.when, t.now) {
			end = t.now
		}

		return windowCompare(path, start, end), nil

	case litDateTime:
		return &Compare{Path: path, Op: OpEq, Value: lit.when}, nil

	case litRelative:
		start, end := lit.rel.window(t.now)

		return windowCompare(path, start, end), nil

	case litNull, litNumber, litUser, litString:
		return nil, transformErrorf(
			"expected a date, datetime or relative date for field %q, got %q", name, lit.text)
	}

	return nil, transformErrorf("expected a date for field %q", name)
}

// dateRange resolves each bound to a window and combines boundaries: bounded
// ranges span [lo.start, hi.end] inclusively; one-sided ranges exclude the
// bounded side's whole window.
func (t *transformer) dateRange(path, name string, rng *valueRange) (Filter, error) {
	boundsOf := func(lit *literal) (time.Time, time.Time, error) {
		switch lit.kind {
		case litDate:
			start, end := dayWindow(lit.when)

			return start, end, nil
		case litDateTime:
			return lit.when, lit.when, nil
		case litRelative:
			start, end := lit.rel.window(t.now)

			return start, end, nil
		case litNull, litNumber, litUser, litString:
		}

		return time.Time{}, time.Time{}, transformErrorf(
			"expected a date, datetime or relative date for field %q, got %q", name, lit.text)
	}

	switch {
	case rng.lo != nil && rng.hi != nil:
		loStart, _, err := boundsOf(rng.lo)
		if err != nil {
			return nil, err
		}

		_, hiEnd, err := boundsOf(rng.hi)
		if err != nil {
			return nil, err
		}

		if loStart.After(hiEnd) {
			return nil, transformErrorf(
				"range start %q is greater than its end %q", rng.lo.text, rng.hi.text)
		}

		return windowCompare(path, loStart, hiEnd), nil

	case rng.hi != nil:
		hiStart, _, err := boundsOf(rng.hi)
		if err != nil {
			return nil, err
		}

		return &Compare{Path: path, Op: OpLt, Value: hiStart}, nil

	default:
		_, loEnd, err := boundsOf(rng.lo)
		if err != nil {
			return nil, err
		}

		return &Compare{Path: path, Op: OpGt, Value: loEnd}, nil
	}
}

func windowCompare(path string, start, end time.Time) Filter {
	return &And{Terms: []Filter{
		&Compare{Path: path, Op: OpGte, Value: start},
		&Compare{Path: path, Op: OpLte, Value: end},
	}}
}

// reservedFragment handles the pseudo-fields that exist on every issue before
// any catalog lookup. The second return reports whether the field was
// reserved at all.
func (t *transformer) reservedFragment(le leafExpr) (Filter, bool, error) {
	name := strings.ToLower(le.field)

	switch name {
	case "subject", "id":
		lit, err := requireScalar(le.field, le)
		if err != nil {
			return nil, true, err
		}

		return &Compare{Path: name, Op: OpEqFold, Value: lit.text}, true, nil

	case "text":
		lit, err := requireScalar(le.field, le)
		if err != nil {
			return nil, true, err
		}

		return &TextSearch{Term: lit.text}, true, nil

	case "updated_at", "created_at":
		if le.value != nil && le.value.kind == litNull {
			return nil, true, transformErrorf("field %q cannot be empty", le.field)
		}

		frag, err := t.dateFragment(name, le.field, le, true)

		return frag, true, err

	case "updated_by", "created_by":
		email, err := t.userEmail(le)
		if err != nil {
			return nil, true, err
		}

		return &Compare{Path: name, Op: OpEq, Value: email}, true, nil

	case "project":
		lit, err := requireScalar(le.field, le)
		if err != nil {
			return nil, true, err
		}

		if lit.kind == litNull {
			return nil, true, transformErrorf("field %q cannot be empty", le.field)
		}

		return &Compare{Path: "project.slug", Op: OpEqFold, Value: lit.text}, true, nil

	case "tag":
		lit, err := requireScalar(le.field, le)
		if err != nil {
			return nil, true, err
		}

		if lit.kind == litNull {
			// "tag: null" selects issues with no tags at all.
			return &Compare{Path: "tags", Op: OpEq, Value: nil}, true, nil
		}

		return &Compare{Path: "tags", Op: OpEqFold, Value: lit.text}, true, nil
	}

	return nil, false, nil
}

// userEmail resolves a user-reference literal, substituting the signed-in
// user's email for "me".
func (t *transformer) userEmail(le leafExpr) (string, error) {
	lit, err := requireScalar(le.field, le)
	if err != nil {
		return "", err
	}

	if lit.kind != litUser {
		return "", transformErrorf(
			"expected a user email or %q for field %q, got %q", "me", le.field, lit.text)
	}

	if strings.EqualFold(lit.text, "me") {
		if t.user == "" {
			return "", transformErrorf("%q requires a signed-in user", "me")
		}

		return t.user, nil
	}

	return lit.text, nil
}

// hashtagFilter builds the structural #resolved / #unresolved predicates.
//
// An issue is resolved when it has at least one STATE field and every STATE
// field holds a non-null value marked resolved; unresolved is the exact
// negation, so the two filters are logical complements for every issue.
func (t *transformer) hashtagFilter(tag string) Filter {
	names, resolvedValues := t.catalog.stateFieldNames()

	if tag == "resolved" {
		if len(names) == 0 {
			// No STATE fields anywhere: nothing can be resolved.
			return &Or{}
		}

		terms := make([]Filter, 0, len(names))
		for _, name := range names {
			terms = append(terms, &Compare{
				Path:  fieldPath(name),
				Op:    OpIn,
				Value: resolvedValues[name],
			})
		}

		return &And{Terms: terms}
	}

	if len(names) == 0 {
		// No STATE fields anywhere: everything is unresolved.
		return &And{}
	}

	terms := make([]Filter, 0, len(names))
	for _, name := range names {
		terms = append(terms, &Or{Terms: []Filter{
			&Compare{Path: fieldPath(name), Op: OpEq, Value: nil},
			&Compare{Path: fieldPath(name), Op: OpNotIn, Value: resolvedValues[name]},
		}})
	}

	return &Or{Terms: terms}
}

// reparseQuotedValue re-tokenizes a quoted value for fields with temporal
// semantics. The builder quotes values containing whitespace or colons, which
// covers datetimes, "this week" and friends; without this, built queries
// would not parse back. Values that do not re-tokenize cleanly stay strings.
func reparseQuotedValue(le leafExpr, loc *time.Location) leafExpr {
	if le.value == nil || !le.value.quoted {
		return le
	}

	s := &leafScanner{src: le.value.text, loc: loc}

	value, rng, err := s.scanValue()
	if err != nil {
		return le
	}

	s.skipSpaces()

	if !s.eof() {
		return le
	}

	out := le
	out.value = value
	out.rng = rng

	return out
}

// requireScalar rejects range values for fields without range semantics.
func requireScalar(field string, le leafExpr) (*literal, error) {
	if le.rng != nil {
		return nil, transformErrorf("field %q does not support ranges", field)
	}

	return le.value, nil
}
