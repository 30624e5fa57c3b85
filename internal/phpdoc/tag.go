// Package phpdoc recovers type annotations from PHP doc comments.
//
// The package has two layers: a tag extractor that splits a raw doc-comment
// body into @-tags, and a recursive-descent parser that turns the textual
// payload of a type-bearing tag into a TypeExpr tree. Both are pure
// functions over in-memory strings; all mutable state lives in the value
// returned to the caller, so concurrent callers never interfere.
package phpdoc

import (
	"fmt"
	"strings"
)

// TagKind classifies a tag by its exact name. Unrecognized spellings keep
// their raw name and value under TagUnknown.
type TagKind int

const (
	TagUnknown TagKind = iota
	TagParam
	TagVar
	TagReturn
	TagInline
	TagInfer
	TagRequired
	TagLibExport
	TagSync
	TagDisableWarnings
	TagExternFuncInfo
	TagPureFunction
	TagTemplate
	TagReturnSpec
	TagImmutableClass
	TagIDLClass
	TagConst
)

// tagKinds is the closed vocabulary of recognized tag spellings. It is
// built once and only read afterwards.
var tagKinds = map[string]TagKind{
	"@param":                TagParam,
	"@var":                  TagVar,
	"@type":                 TagVar,
	"@return":               TagReturn,
	"@returns":              TagReturn,
	"@pdc-inline":           TagInline,
	"@pdc-infer":            TagInfer,
	"@pdc-required":         TagRequired,
	"@pdc-lib-export":       TagLibExport,
	"@pdc-sync":             TagSync,
	"@pdc-disable-warnings": TagDisableWarnings,
	"@pdc-extern-func-info": TagExternFuncInfo,
	"@pdc-pure-function":    TagPureFunction,
	"@pdc-template":         TagTemplate,
	"@pdc-return":           TagReturnSpec,
	"@pdc-immutable-class":  TagImmutableClass,
	"@pdc-idl-class":        TagIDLClass,
	"@pdc-const":            TagConst,
}

// KindOf looks a tag name up in the fixed vocabulary.
func KindOf(name string) TagKind {
	return tagKinds[name]
}

// Tag is one annotation inside a doc-comment block.
type Tag struct {
	// Name is the tag token as written, including the leading '@'.
	Name string
	// Kind is resolved from Name at tag-start time.
	Kind TagKind
	// Value is the remainder of the tag's text, including continuation
	// text from following non-tag lines. It is not trimmed.
	Value string
	// Line is the best-effort 1-based source line of the tag, derived from
	// the declaration line; 0 when the declaration line was unknown.
	Line int
}

// Parse splits a doc-comment body into tags. body is the comment text with
// the outer "/*" and "*/" stripped, so every line starts with a '*' marker
// (possibly indented). declLine is the 1-based line of the annotated
// declaration, or 0 when unknown.
//
// The first element of the result is a pseudo-tag with an empty name that
// collects any text appearing before the first real tag.
//
// A malformed body, one with stray text before a line's '*' marker, yields
// a nil tag list and an error; the caller should treat the declaration as
// carrying no annotations.
func Parse(body string, declLine int) ([]Tag, error) {
	lines := []string{""}
	haveStar := false
	for i := 0; i < len(body); i++ {
		c := body[i]
		if !haveStar {
			if c == ' ' || c == '\t' {
				continue
			}
			if c == '*' {
				haveStar = true
				continue
			}
			return nil, fmt.Errorf("failed to parse doc comment: unexpected %q before line marker", c)
		}
		if c == '\n' {
			lines = append(lines, "")
			haveStar = false
			continue
		}
		if lines[len(lines)-1] == "" && (c == ' ' || c == '\t') {
			continue
		}
		lines[len(lines)-1] += string(c)
	}

	result := []Tag{{}}
	for i, line := range lines {
		if !strings.HasPrefix(line, "@") {
			result[len(result)-1].Value += " " + line
		} else {
			tag := Tag{}
			if sp := strings.IndexByte(line, ' '); sp >= 0 {
				tag.Name = line[:sp]
				tag.Value = line[sp+1:]
			} else {
				tag.Name = line
			}
			tag.Kind = KindOf(tag.Name)
			result = append(result, tag)
		}

		if declLine > 0 {
			// One line with the closing delimiter always sits between the
			// last comment line and the declaration, hence the clamp.
			lineNum := declLine - (len(lines) - i)
			if lineNum > declLine-2 {
				lineNum = declLine - 2
			}
			result[len(result)-1].Line = lineNum
		}
	}
	return result, nil
}

// ValueToken returns the next space-delimited token of the tag's value,
// starting at the given character offset. Spaces at the start of the value
// do not count against the offset, so the caller can pass the length of the
// previous token to advance.
//
// The variadic marker is handled specially: when the token ends right
// before " ...$", the dots are absorbed into this token's terminator and
// the '$' is left for the next token, so a variadic parameter's name token
// still begins with '$' (and the type token keeps a " ..." suffix that the
// type parser understands).
func (t *Tag) ValueToken(offset int) string {
	v := t.Value
	pos := 0
	for pos < len(v) && v[pos] == ' ' {
		pos++
		offset++
	}
	for offset < len(v) && v[offset] == ' ' {
		offset++
	}
	if offset >= len(v) {
		return ""
	}

	end := strings.IndexByte(v[offset:], ' ')
	if end < 0 {
		return v[offset:]
	}
	end += offset

	const varargDots = " ...$"
	if len(v) > end+len(varargDots) && strings.HasPrefix(v[end:], varargDots) {
		end += len(varargDots) - 1
	}
	return v[offset:end]
}
