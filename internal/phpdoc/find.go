package phpdoc

// TagValue is the order-independent split of a tag's value into the
// variable-name token (written with a leading '$') and the type token.
// Either half may be empty; trailing free text is discarded.
type TagValue struct {
	VarName string // without the '$'
	Type    string // raw type text, still unparsed
}

// FindTag locates the nth (0-based) tag of the given kind inside a full
// doc-comment body and splits its value into variable name and type text.
// The two tokens may appear in either order ("$a A[]" or "A[] $a"). It
// re-runs the tag extractor on every call; a malformed body simply finds
// nothing.
func FindTag(doc string, kind TagKind, nth int) (TagValue, bool) {
	tags, err := Parse(doc, 0)
	if err != nil {
		return TagValue{}, false
	}
	idx := 0
	for i := range tags {
		tag := &tags[i]
		if tag.Kind != kind {
			continue
		}
		if idx < nth {
			idx++
			continue
		}

		return tag.Split(), true
	}
	return TagValue{}, false
}

// Split breaks the tag's value into variable name and type text. The two
// tokens may appear in either order.
func (t *Tag) Split() TagValue {
	a1 := t.ValueToken(0)
	a2 := t.ValueToken(len(a1))

	var v TagValue
	switch {
	case a1 != "" && a1[0] == '$':
		v.VarName = a1[1:]
		v.Type = a2
	case a2 != "" && a2[0] == '$':
		v.VarName = a2[1:]
		v.Type = a1
	default:
		v.Type = a1
	}
	return v
}

// HasTag reports whether the doc-comment body contains at least one tag of
// the given kind.
func HasTag(doc string, kind TagKind) bool {
	tags, err := Parse(doc, 0)
	if err != nil {
		return false
	}
	for i := range tags {
		if tags[i].Kind == kind {
			return true
		}
	}
	return false
}

// FindParsedTag combines FindTag with the type grammar: it locates the nth
// tag of the given kind and parses its type half. An empty type half
// yields a nil TypeExpr with no error; absent tags yield ok=false.
func (p *TypeParser) FindParsedTag(doc string, kind TagKind, nth int) (varName string, expr TypeExpr, ok bool, err error) {
	v, found := FindTag(doc, kind, nth)
	if !found {
		return "", nil, false, nil
	}
	if v.Type == "" {
		return v.VarName, nil, true, nil
	}
	expr, err = p.ParseTypeString(v.Type)
	return v.VarName, expr, true, err
}
