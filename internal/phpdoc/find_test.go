package phpdoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindTag(t *testing.T) {
	testCases := []struct {
		doc     string
		varName string
		typeStr string
		nth     int
		found   bool
	}{
		{doc: "* @var $a bool ", varName: "a", typeStr: "bool", found: true},
		{doc: "* @var bool $a ", varName: "a", typeStr: "bool", found: true},
		{doc: " *@var    bool    $a   ", varName: "a", typeStr: "bool", found: true},
		{doc: " *@var    $a    bool   ", varName: "a", typeStr: "bool", found: true},
		{doc: "* @type $variable int|string comment ", varName: "variable", typeStr: "int|string", found: true},
		{doc: "* @nothing $variable int|string comment", found: false},
		{doc: "* only comment", found: false},
		{doc: "* @deprecated \n* @var $k Exception|false", varName: "k", typeStr: "Exception|false", found: true},
		{doc: "* @var mixed some comment", varName: "", typeStr: "mixed", found: true},
		{doc: "* @var string|(false|int)[]?", varName: "", typeStr: "string|(false|int)[]?", found: true},
		{doc: "* @var $a", varName: "a", typeStr: "", found: true},
		{doc: "* @type hello world", varName: "", typeStr: "hello", found: true},
		{doc: "*   @type   ", varName: "", typeStr: "", found: true},
		{doc: "* @param $aa A \n* @var $a A  \n* @param BB $b \n* @var $b B   ", varName: "a", typeStr: "A", nth: 0, found: true},
		{doc: "* @param $aa A \n* @var $a A  \n* @param BB $b \n* @var $b B   ", varName: "b", typeStr: "B", nth: 1, found: true},
	}

	for _, tc := range testCases {
		t.Run(tc.doc, func(t *testing.T) {
			v, found := FindTag(tc.doc, TagVar, tc.nth)
			require.Equal(t, tc.found, found)
			if found {
				assert.Equal(t, tc.varName, v.VarName)
				assert.Equal(t, tc.typeStr, v.Type)
			}
		})
	}
}

func TestFindTagOrderIndependence(t *testing.T) {
	a, ok := FindTag("* @var $a bool ", TagVar, 0)
	require.True(t, ok)
	b, ok := FindTag("* @var bool $a ", TagVar, 0)
	require.True(t, ok)
	assert.Equal(t, a, b)
}

func TestHasTag(t *testing.T) {
	doc := "* some intro\n* @param int $a\n* @pdc-pure-function\n"
	assert.True(t, HasTag(doc, TagParam))
	assert.True(t, HasTag(doc, TagPureFunction))
	assert.False(t, HasTag(doc, TagReturn))
	assert.False(t, HasTag("stray text, not a doc block", TagParam))
}

func TestFindParsedTag(t *testing.T) {
	p := NewTypeParser(globalResolver("A"))

	// The tokenizer discards trailing prose; the raw grammar does not.
	varName, expr, ok, err := p.FindParsedTag("* @var mixed some comment", TagVar, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "", varName)
	assert.Equal(t, &Prim{Kind: PrimAny}, expr)

	_, err = p.ParseTypeString("mixed some comment")
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrTrailingInput, perr.Kind)

	// A variadic parameter: the type keeps its " ..." suffix through the
	// tokenizer and comes back as an array.
	varName, expr, ok, err = p.FindParsedTag("* @param A ...$args", TagParam, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "args", varName)
	assert.Equal(t, &ArrayOf{Elem: &ClassRef{Name: "A"}}, expr)

	// Missing tag.
	_, _, ok, err = p.FindParsedTag("* nothing here", TagReturn, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}
