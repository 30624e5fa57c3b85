package phpdoc

import "strings"

// PrimKind enumerates the scalar and aggregate primitives of the type
// grammar. PrimAny covers both "mixed" and "null", which the compiler
// treats as the dynamic-any type. PrimFalse is the PHP falsy pseudo-type
// used in unions such as string|false.
type PrimKind uint8

const (
	PrimUnknown PrimKind = iota
	PrimInt
	PrimFloat
	PrimString
	PrimBool
	PrimFalse
	PrimAny
	PrimVoid
)

func (k PrimKind) String() string {
	switch k {
	case PrimInt:
		return "int"
	case PrimFloat:
		return "float"
	case PrimString:
		return "string"
	case PrimBool:
		return "bool"
	case PrimFalse:
		return "false"
	case PrimAny:
		return "mixed"
	case PrimVoid:
		return "void"
	}
	return "unknown"
}

// ParamKind names the parameterized container types of the grammar.
type ParamKind uint8

const (
	ParamTuple ParamKind = iota
	ParamFuture
)

func (k ParamKind) String() string {
	if k == ParamFuture {
		return "future"
	}
	return "tuple"
}

// TypeExpr is one node of a parsed type expression. A TypeExpr tree is
// immutable after construction and owned by whoever received it; nodes are
// never shared between trees.
//
// String re-serializes the node into text the grammar accepts again, which
// makes parse/print round trips possible in tests and debug output.
type TypeExpr interface {
	typeExpr()
	String() string
}

// Prim is a primitive type such as int or string.
type Prim struct {
	Kind PrimKind
}

// ClassRef references a class by its fully-qualified name (no leading
// backslash). The class may not be registered yet; see
// TypeParser.Unresolved.
type ClassRef struct {
	Name string
}

// ArrayOf wraps an element type as an array. Bare "array" is represented
// as ArrayOf with a PrimUnknown element.
type ArrayOf struct {
	Elem TypeExpr
}

// Union is a binary union; n-ary unions form a left-leaning chain in
// source order.
type Union struct {
	Left  TypeExpr
	Right TypeExpr
}

// Parameterized is a named container type (tuple or future) with an
// ordered, non-empty argument list.
type Parameterized struct {
	Kind ParamKind
	Args []TypeExpr
}

func (*Prim) typeExpr()          {}
func (*ClassRef) typeExpr()      {}
func (*ArrayOf) typeExpr()       {}
func (*Union) typeExpr()         {}
func (*Parameterized) typeExpr() {}

func (t *Prim) String() string {
	return t.Kind.String()
}

func (t *ClassRef) String() string {
	return "\\" + t.Name
}

func (t *ArrayOf) String() string {
	if p, ok := t.Elem.(*Prim); ok && p.Kind == PrimUnknown {
		return "array"
	}
	// A union element needs grouping so the suffix binds to the whole of it.
	if _, ok := t.Elem.(*Union); ok {
		return "(" + t.Elem.String() + ")[]"
	}
	return t.Elem.String() + "[]"
}

func (t *Union) String() string {
	return t.Left.String() + "|" + t.Right.String()
}

func (t *Parameterized) String() string {
	var sb strings.Builder
	sb.WriteString(t.Kind.String())
	sb.WriteByte('(')
	for i, arg := range t.Args {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(arg.String())
	}
	sb.WriteByte(')')
	return sb.String()
}
