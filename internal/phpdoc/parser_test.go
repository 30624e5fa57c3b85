package phpdoc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phpdc/phpdc/internal/diag"
)

type fakeClass struct {
	name  string
	trait bool
}

func (c fakeClass) FQCN() string  { return c.name }
func (c fakeClass) IsTrait() bool { return c.trait }

type fakeResolver struct {
	namespace string
	classes   map[string]fakeClass
	current   string
	idlPrefix string
}

func (r *fakeResolver) ResolveName(name string) string {
	if strings.HasPrefix(name, "\\") {
		return name[1:]
	}
	if strings.Contains(name, "\\") {
		return name
	}
	if r.namespace != "" {
		return r.namespace + "\\" + name
	}
	return name
}

func (r *fakeResolver) LookupClass(fqcn string) (ClassInfo, bool) {
	c, ok := r.classes[fqcn]
	if !ok {
		return nil, false
	}
	return c, true
}

func (r *fakeResolver) CurrentClassName() string   { return r.current }
func (r *fakeResolver) IDLNamespacePrefix() string { return r.idlPrefix }

func globalResolver(classNames ...string) *fakeResolver {
	r := &fakeResolver{classes: map[string]fakeClass{}}
	for _, name := range classNames {
		r.classes[name] = fakeClass{name: name}
	}
	return r
}

func TestParsePrimitives(t *testing.T) {
	testCases := []struct {
		in   string
		want TypeExpr
	}{
		{"int", &Prim{Kind: PrimInt}},
		{"integer", &Prim{Kind: PrimInt}},
		{"float", &Prim{Kind: PrimFloat}},
		{"double", &Prim{Kind: PrimFloat}},
		{"string", &Prim{Kind: PrimString}},
		{"bool", &Prim{Kind: PrimBool}},
		{"boolean", &Prim{Kind: PrimBool}},
		{"true", &Prim{Kind: PrimBool}},
		{"false", &Prim{Kind: PrimFalse}},
		{"mixed", &Prim{Kind: PrimAny}},
		{"null", &Prim{Kind: PrimAny}},
		{"void", &Prim{Kind: PrimVoid}},
		{"array", &ArrayOf{Elem: &Prim{Kind: PrimUnknown}}},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			p := NewTypeParser(globalResolver())
			got, err := p.ParseTypeString(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseArraysAndUnions(t *testing.T) {
	p := NewTypeParser(globalResolver("A", "B"))

	got, err := p.ParseTypeString("int[][]")
	require.NoError(t, err)
	assert.Equal(t, &ArrayOf{Elem: &ArrayOf{Elem: &Prim{Kind: PrimInt}}}, got)

	// The array suffix binds tighter than the union: A|B[] is A|(B[]).
	got, err = p.ParseTypeString("A|B[]")
	require.NoError(t, err)
	assert.Equal(t, &Union{
		Left:  &ClassRef{Name: "A"},
		Right: &ArrayOf{Elem: &ClassRef{Name: "B"}},
	}, got)

	// Grouping flips it.
	got, err = p.ParseTypeString("(A|B)[]")
	require.NoError(t, err)
	assert.Equal(t, &ArrayOf{Elem: &Union{
		Left:  &ClassRef{Name: "A"},
		Right: &ClassRef{Name: "B"},
	}}, got)

	// A three-way union is a left-leaning chain.
	got, err = p.ParseTypeString("int|string|false")
	require.NoError(t, err)
	assert.Equal(t, &Union{
		Left:  &Union{Left: &Prim{Kind: PrimInt}, Right: &Prim{Kind: PrimString}},
		Right: &Prim{Kind: PrimFalse},
	}, got)

	got, err = p.ParseTypeString("string|(false|int)[]")
	require.NoError(t, err)
	assert.Equal(t, &Union{
		Left: &Prim{Kind: PrimString},
		Right: &ArrayOf{Elem: &Union{
			Left:  &Prim{Kind: PrimFalse},
			Right: &Prim{Kind: PrimInt},
		}},
	}, got)
}

func TestParseParameterized(t *testing.T) {
	p := NewTypeParser(globalResolver("A"))

	for _, in := range []string{"tuple(int,string)", "tuple<int,string>", "\\tuple(int,string)"} {
		got, err := p.ParseTypeString(in)
		require.NoError(t, err, in)
		assert.Equal(t, &Parameterized{Kind: ParamTuple, Args: []TypeExpr{
			&Prim{Kind: PrimInt},
			&Prim{Kind: PrimString},
		}}, got, in)
	}

	got, err := p.ParseTypeString("future<A[]>")
	require.NoError(t, err)
	assert.Equal(t, &Parameterized{Kind: ParamFuture, Args: []TypeExpr{
		&ArrayOf{Elem: &ClassRef{Name: "A"}},
	}}, got)

	// Nested parameterized types recurse through the full grammar.
	got, err = p.ParseTypeString("tuple(int,future<tuple(string,A)>)")
	require.NoError(t, err)
	assert.Equal(t, &Parameterized{Kind: ParamTuple, Args: []TypeExpr{
		&Prim{Kind: PrimInt},
		&Parameterized{Kind: ParamFuture, Args: []TypeExpr{
			&Parameterized{Kind: ParamTuple, Args: []TypeExpr{
				&Prim{Kind: PrimString},
				&ClassRef{Name: "A"},
			}},
		}},
	}}, got)
}

func TestParseVariadicSuffix(t *testing.T) {
	p := NewTypeParser(globalResolver("A"))

	got, err := p.ParseTypeString("A ...")
	require.NoError(t, err)
	assert.Equal(t, &ArrayOf{Elem: &ClassRef{Name: "A"}}, got)

	// The suffix is only valid at the very end of the whole tag text.
	_, err = p.ParseTypeString("A ... x")
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrTrailingInput, perr.Kind)
}

func TestParseClassReferences(t *testing.T) {
	t.Run("known class resolves through the namespace", func(t *testing.T) {
		r := globalResolver("App\\Model\\User")
		r.namespace = "App\\Model"
		p := NewTypeParser(r)
		got, err := p.ParseTypeString("User")
		require.NoError(t, err)
		assert.Equal(t, &ClassRef{Name: "App\\Model\\User"}, got)
		assert.Empty(t, p.Unresolved())
	})

	t.Run("unknown class is deferred, not failed", func(t *testing.T) {
		p := NewTypeParser(globalResolver())
		got, err := p.ParseTypeString("\\Some\\Missing")
		require.NoError(t, err)
		assert.Equal(t, &ClassRef{Name: "Some\\Missing"}, got)
		assert.Equal(t, []string{"Some\\Missing"}, p.Unresolved())
	})

	t.Run("self resolves to the enclosing class", func(t *testing.T) {
		r := globalResolver("App\\Me")
		r.current = "App\\Me"
		p := NewTypeParser(r)
		got, err := p.ParseTypeString("self")
		require.NoError(t, err)
		assert.Equal(t, &ClassRef{Name: "App\\Me"}, got)
	})

	t.Run("trait cannot stand as a type", func(t *testing.T) {
		r := globalResolver()
		r.classes["App\\SomeTrait"] = fakeClass{name: "App\\SomeTrait", trait: true}
		p := NewTypeParser(r)
		_, err := p.ParseTypeString("\\App\\SomeTrait")
		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, ErrTraitUsedAsType, perr.Kind)
	})

	t.Run("external type-language names may be lowercase", func(t *testing.T) {
		r := globalResolver("IDL\\user_info")
		r.idlPrefix = "IDL\\"
		p := NewTypeParser(r)
		got, err := p.ParseTypeString("@idl\\user_info")
		require.NoError(t, err)
		assert.Equal(t, &ClassRef{Name: "IDL\\user_info"}, got)

		// Without the marker a lowercase name is not a class reference.
		_, err = p.ParseTypeString("user_info")
		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, ErrUnknownTypeName, perr.Kind)
	})
}

func TestParseErrors(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		kind ErrKind
	}{
		{"empty input", "", ErrUnexpectedEnd},
		{"union cut short", "int|", ErrUnexpectedEnd},
		{"open bracket only", "(int", ErrUnmatchedBracket},
		{"unmatched paren in array suffix", "string|(false|int[]", ErrUnmatchedBracket},
		{"lone array bracket", "int[", ErrUnmatchedBracket},
		{"wrong array close", "int[)", ErrUnmatchedBracket},
		{"tuple without bracket", "tuple", ErrUnexpectedEnd},
		{"tuple with wrong opener", "tuple[int]", ErrUnmatchedBracket},
		{"tuple args cut short", "tuple(int", ErrUnexpectedEnd},
		{"tuple args bad separator", "tuple(int;string)", ErrUnmatchedBracket},
		{"unknown name", "whatever", ErrUnknownTypeName},
		{"trailing text", "int garbage", ErrTrailingInput},
		{"trailing question mark", "string|(false|int)[]?", ErrTrailingInput},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewTypeParser(globalResolver())
			_, err := p.ParseTypeString(tc.in)
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tc.kind, perr.Kind, "error was: %v", err)
		})
	}
}

func TestBoolInUnionLint(t *testing.T) {
	t.Run("raw bool inside a union lints", func(t *testing.T) {
		p := NewTypeParser(globalResolver())
		_, err := p.ParseTypeString("int|bool")
		require.NoError(t, err)
		require.Len(t, p.Lints(), 1)
		assert.Equal(t, diag.CodeBoolInUnion, p.Lints()[0].Code)
		assert.Equal(t, diag.SevWarning, p.Lints()[0].Severity)
	})

	t.Run("boolean spelling does not lint", func(t *testing.T) {
		p := NewTypeParser(globalResolver())
		_, err := p.ParseTypeString("int|boolean")
		require.NoError(t, err)
		assert.Empty(t, p.Lints())
	})

	t.Run("bool outside a union does not lint", func(t *testing.T) {
		p := NewTypeParser(globalResolver())
		_, err := p.ParseTypeString("bool")
		require.NoError(t, err)
		assert.Empty(t, p.Lints())
	})
}

func TestSerializeRoundTrip(t *testing.T) {
	// Parsing the serialized form of a parsed tree must reproduce the tree.
	inputs := []string{
		"int",
		"mixed",
		"array",
		"int[][]",
		"A|B[]",
		"(A|B)[]",
		"int|string|false",
		"tuple(int,string)",
		"future<A>",
		"tuple(int,future<string[]>)",
		"\\Some\\Missing[]",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			r := globalResolver("A", "B")
			first, err := NewTypeParser(r).ParseTypeString(in)
			require.NoError(t, err)
			second, err := NewTypeParser(r).ParseTypeString(first.String())
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}
