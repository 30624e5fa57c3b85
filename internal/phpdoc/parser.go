package phpdoc

import (
	"strings"

	"github.com/phpdc/phpdc/internal/diag"
)

// ClassInfo is what the parser needs to know about a registered class.
type ClassInfo interface {
	FQCN() string
	IsTrait() bool
}

// Resolver supplies the name-resolution context of the declaration whose
// doc comment is being parsed. Implementations are read-only from the
// parser's point of view; a missing class is a normal outcome, not an
// error (see TypeParser.Unresolved).
type Resolver interface {
	// ResolveName turns a possibly-relative class name into a
	// fully-qualified one, honoring the current namespace and use-aliases.
	// A leading backslash marks the name as already fully qualified.
	ResolveName(name string) string
	// LookupClass returns the class registered under the fully-qualified
	// name, or ok=false when it is not (yet) known.
	LookupClass(fqcn string) (ClassInfo, bool)
	// CurrentClassName is the fully-qualified name of the enclosing class,
	// for resolving "self". Empty outside a class.
	CurrentClassName() string
	// IDLNamespacePrefix is prepended to names written under the external
	// type-language marker ("@idl\"), mapping them into the namespace the
	// generated bindings live in.
	IDLNamespacePrefix() string
}

// TypeParser parses type expressions against one resolution context. It
// accumulates referenced-but-unregistered class names and advisory lints;
// create one per declaration and discard it once the results are consumed.
type TypeParser struct {
	resolver   Resolver
	unresolved []string
	lints      []diag.Diagnostic
}

func NewTypeParser(r Resolver) *TypeParser {
	return &TypeParser{resolver: r}
}

// Unresolved lists the fully-qualified class names referenced by parsed
// type expressions that the resolver did not know, in reference order.
// Forward references are expected; the caller re-checks the list once the
// whole program has been scanned.
func (p *TypeParser) Unresolved() []string {
	return p.unresolved
}

// Lints returns the advisory diagnostics raised so far. Lints never fail a
// parse.
func (p *TypeParser) Lints() []diag.Diagnostic {
	return p.lints
}

// idlMarker introduces a name from the external type language; such names
// may start with a lowercase letter or underscore, unlike class names.
const idlMarker = "@idl\\"

// ParseTypeString parses a whole tag's type text into a TypeExpr. On top
// of the bare grammar it accepts the variadic suffix: when the remaining
// input is exactly " ...", the parsed type is wrapped in one more array
// level. The entire input must be consumed.
func (p *TypeParser) ParseTypeString(s string) (TypeExpr, error) {
	pos := 0
	res, err := p.parseTypeExpr(s, &pos)
	if err != nil {
		return nil, err
	}

	const varargSuffix = " ..."
	if len(s) == pos+len(varargSuffix) && strings.HasSuffix(s, varargSuffix) {
		pos += len(varargSuffix)
		res = &ArrayOf{Elem: res}
	}

	if pos != len(s) {
		return nil, parseErrf(ErrTrailingInput, pos, "something left at the end after parsing: %q", s[pos:])
	}
	return res, nil
}

// parseTypeExpr parses a union chain: array-suffixed types separated by
// '|', left-associative. A raw "bool" member inside an actual union raises
// a lint recommending "false" (spell it "boolean" when a real bool branch
// is intended).
func (p *TypeParser) parseTypeExpr(s string, pos *int) (TypeExpr, error) {
	old := *pos
	res, err := p.parseArraySuffix(s, pos)
	if err != nil {
		return nil, err
	}
	hasRawBool := s[old:*pos] == "bool"
	for *pos < len(s) && s[*pos] == '|' {
		*pos++
		old = *pos
		next, err := p.parseArraySuffix(s, pos)
		if err != nil {
			return nil, err
		}
		if s[old:*pos] == "bool" {
			hasRawBool = true
		}
		res = &Union{Left: res, Right: next}
	}
	if _, isUnion := res.(*Union); isUnion && hasRawBool {
		p.lints = append(p.lints, diag.Diagnostic{
			Severity: diag.SevWarning,
			Code:     diag.CodeBoolInUnion,
			Message:  "do not use |bool in phpdoc, use |false instead (write |boolean if you really mean bool)",
		})
	}
	return res, nil
}

// parseArraySuffix parses a simple type followed by zero or more []
// suffixes. The suffix binds tighter than '|': A|B[] is A|(B[]).
func (p *TypeParser) parseArraySuffix(s string, pos *int) (TypeExpr, error) {
	res, err := p.parseSimpleType(s, pos)
	if err != nil {
		return nil, err
	}
	for *pos < len(s) && s[*pos] == '[' {
		if *pos+1 >= len(s) || s[*pos+1] != ']' {
			return nil, parseErrf(ErrUnmatchedBracket, *pos, "unmatching []")
		}
		res = &ArrayOf{Elem: res}
		*pos += 2
	}
	return res, nil
}

// eat consumes the literal keyword when it is a prefix at *pos. Longer
// keywords must be tried before their prefixes (integer before int).
func eat(s string, pos *int, keyword string) bool {
	if strings.HasPrefix(s[*pos:], keyword) {
		*pos += len(keyword)
		return true
	}
	return false
}

func (p *TypeParser) parseSimpleType(s string, pos *int) (TypeExpr, error) {
	if *pos >= len(s) {
		return nil, parseErrf(ErrUnexpectedEnd, *pos, "unexpected end")
	}
	switch s[*pos] {
	case '(':
		*pos++
		v, err := p.parseTypeExpr(s, pos)
		if err != nil {
			return nil, err
		}
		if *pos >= len(s) || s[*pos] != ')' {
			return nil, parseErrf(ErrUnmatchedBracket, *pos, "unmatching ()")
		}
		*pos++
		return v, nil
	case 's':
		if eat(s, pos, "string") {
			return &Prim{Kind: PrimString}, nil
		}
		if eat(s, pos, "self") {
			return &ClassRef{Name: p.resolver.CurrentClassName()}, nil
		}
	case 'i':
		if eat(s, pos, "integer") || eat(s, pos, "int") {
			return &Prim{Kind: PrimInt}, nil
		}
	case 'b':
		if eat(s, pos, "boolean") || eat(s, pos, "bool") {
			return &Prim{Kind: PrimBool}, nil
		}
	case 'f':
		if eat(s, pos, "float") {
			return &Prim{Kind: PrimFloat}, nil
		}
		if eat(s, pos, "false") {
			return &Prim{Kind: PrimFalse}, nil
		}
		if eat(s, pos, "future") {
			return p.parseTypeArgs(s, pos, ParamFuture)
		}
	case 'd':
		if eat(s, pos, "double") {
			return &Prim{Kind: PrimFloat}, nil
		}
	case 'm':
		if eat(s, pos, "mixed") {
			return &Prim{Kind: PrimAny}, nil
		}
	case 'n':
		if eat(s, pos, "null") {
			return &Prim{Kind: PrimAny}, nil
		}
	case 't':
		if eat(s, pos, "true") {
			return &Prim{Kind: PrimBool}, nil
		}
		if eat(s, pos, "tuple") {
			return p.parseTypeArgs(s, pos, ParamTuple)
		}
	case 'a':
		if eat(s, pos, "array") {
			return &ArrayOf{Elem: &Prim{Kind: PrimUnknown}}, nil
		}
	case 'v':
		if eat(s, pos, "void") {
			return &Prim{Kind: PrimVoid}, nil
		}
	case '\\':
		if eat(s, pos, "\\tuple") {
			return p.parseTypeArgs(s, pos, ParamTuple)
		}
		if eat(s, pos, "\\future") {
			return p.parseTypeArgs(s, pos, ParamFuture)
		}
	}

	// Not a keyword at this position; a class reference may still start
	// here ('\', an uppercase letter, or an external type-language name).
	if expr, ok, err := p.parseClassRef(s, pos); ok {
		return expr, err
	}
	return nil, parseErrf(ErrUnknownTypeName, *pos, "unknown type name [%s]", s)
}

// parseClassRef parses a (possibly namespaced) class reference. ok=false
// means the input cannot be a class name at this position and the caller
// should report an unknown type instead.
func (p *TypeParser) parseClassRef(s string, pos *int) (expr TypeExpr, ok bool, err error) {
	start := *pos
	hasIDLMarker := strings.HasPrefix(s[*pos:], idlMarker)
	if hasIDLMarker {
		*pos += len(idlMarker)
	}
	if *pos >= len(s) {
		*pos = start
		return nil, false, nil
	}
	c := s[*pos]
	if c != '\\' && !(c >= 'A' && c <= 'Z') && !(hasIDLMarker && (c >= 'a' && c <= 'z' || c == '_')) {
		*pos = start
		return nil, false, nil
	}

	name := extractClassName(s, *pos)
	*pos += len(name)
	if hasIDLMarker {
		name = p.resolver.IDLNamespacePrefix() + name
	}

	fqcn := p.resolver.ResolveName(name)
	klass, found := p.resolver.LookupClass(fqcn)
	if !found {
		p.unresolved = append(p.unresolved, fqcn)
	}
	if found && klass.IsTrait() {
		return nil, true, parseErrf(ErrTraitUsedAsType, start, "trait %s cannot be used as a type", fqcn)
	}
	return &ClassRef{Name: fqcn}, true, nil
}

// extractClassName returns the run of identifier characters, backslashes,
// underscores and digits starting at pos.
func extractClassName(s string, pos int) string {
	end := pos
	for end < len(s) && isClassNameChar(s[end]) {
		end++
	}
	return s[pos:end]
}

func isClassNameChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '\\' || c == '_'
}

// parseTypeArgs parses the argument list of a parameterized type, after
// its name: an opening '<' or '(', one or more comma-separated type
// expressions, and a closing '>' or ')'.
func (p *TypeParser) parseTypeArgs(s string, pos *int, kind ParamKind) (TypeExpr, error) {
	if *pos >= len(s) {
		return nil, parseErrf(ErrUnexpectedEnd, *pos, "unexpected end, expected '<' or '('")
	}
	if s[*pos] != '<' && s[*pos] != '(' {
		return nil, parseErrf(ErrUnmatchedBracket, *pos, "expected '<' or '(' after %s", kind)
	}
	*pos++

	var args []TypeExpr
	for {
		v, err := p.parseTypeExpr(s, pos)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
		if *pos >= len(s) {
			return nil, parseErrf(ErrUnexpectedEnd, *pos, "unexpected end inside %s arguments", kind)
		}
		if s[*pos] == '>' || s[*pos] == ')' {
			*pos++
			break
		}
		if s[*pos] != ',' {
			return nil, parseErrf(ErrUnmatchedBracket, *pos, "expected ',' inside %s arguments", kind)
		}
		*pos++
	}
	return &Parameterized{Kind: kind, Args: args}, nil
}
