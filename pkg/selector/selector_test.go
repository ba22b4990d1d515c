package selector

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/jsflow/pkg/estree"
	jsparser "github.com/panbanda/jsflow/pkg/parser"
)

func parseJS(t *testing.T, src string) *estree.Node {
	t.Helper()
	p := jsparser.New()
	defer p.Close()
	res, err := p.Parse([]byte(src), jsparser.LangJavaScript, "test.js")
	require.NoError(t, err)
	return res.Program
}

// matchAll returns the source text of every node sel matches, in document
// order.
func matchAll(t *testing.T, src, sel string) []string {
	t.Helper()
	s, err := Parse(sel)
	require.NoError(t, err)

	prog := parseJS(t, src)
	var out []string
	var ancestry []*estree.Node
	estree.Traverse(prog, estree.VisitorFuncs{
		Enter: func(n *estree.Node) {
			if s.Match(n, ancestry) {
				out = append(out, src[n.Range[0]:n.Range[1]])
			}
			ancestry = append([]*estree.Node{n}, ancestry...)
		},
		Leave: func(*estree.Node) { ancestry = ancestry[1:] },
	})
	return out
}

func TestMatch(t *testing.T) {
	src := "if (a) { foo(1); } else { bar('x', b); } var c = d && e; function f(g) { return g; }"

	tests := []struct {
		sel  string
		want []string
	}{
		{"IfStatement", []string{src[:40]}},
		{"CallExpression > Identifier", []string{"foo", "bar", "b"}},
		{"CallExpression > Literal:first-child", []string{"1", "'x'"}},
		{"CallExpression > Identifier:first-child", nil},
		{"IfStatement Literal", []string{"1", "'x'"}},
		{"Literal[value=1]", []string{"1"}},
		{"Literal[value='x']", []string{"'x'"}},
		{"Literal[value!=1]", []string{"'x'"}},
		{"Literal[value=type(string)]", []string{"'x'"}},
		{"CallExpression[callee.name=/^b/]", []string{"bar('x', b)"}},
		{"CallExpression[arguments.length>1]", []string{"bar('x', b)"}},
		{"LogicalExpression[operator='&&'] > .right", []string{"e"}},
		{"IfStatement > .consequent", []string{"{ foo(1); }"}},
		{":function", []string{"function f(g) { return g; }"}},
		{":matches(ReturnStatement, VariableDeclaration)", []string{"var c = d && e;", "return g;"}},
		{":is(ReturnStatement, VariableDeclaration)", []string{"var c = d && e;", "return g;"}},
		{"Identifier:not([name=/^[a-f]$/])", []string{"foo", "bar", "g", "g"}},
		{"BlockStatement:has(ReturnStatement)", []string{"{ return g; }"}},
		{"BlockStatement:has(> ReturnStatement)", []string{"{ return g; }"}},
		{"IfStatement:has(CallExpression)", []string{src[:40]}},
		{"IfStatement:has(> CallExpression)", nil},
		{"IfStatement:has(> BlockStatement > ExpressionStatement > CallExpression)", []string{src[:40]}},
		{"FunctionDeclaration:has(> ExpressionStatement, > BlockStatement > ReturnStatement)", []string{"function f(g) { return g; }"}},
		{"Literal ~ Identifier", []string{"b"}},
		{"Literal + Identifier", []string{"b"}},
		{"Literal:last-child", []string{"1"}},
		{"Literal:nth-child(1)", []string{"1", "'x'"}},
		{"Identifier:nth-last-child(1)", []string{"b", "g"}},
		{"FunctionDeclaration > Identifier.params", []string{"g"}},
		{"VariableDeclaration:statement", []string{"var c = d && e;"}},
		{"FunctionDeclaration:declaration", []string{"function f(g) { return g; }"}},
		{"VariableDeclarator > :expression", []string{"c", "d && e"}},
		{"ReturnStatement[argument]", []string{"return g;"}},
		{"ReturnStatement[label]", nil},
		{"[type='ReturnStatement']", []string{"return g;"}},
		{"Nope", nil},
		{"*[name='g']", []string{"g", "g"}},
	}

	for _, tt := range tests {
		t.Run(tt.sel, func(t *testing.T) {
			assert.Equal(t, tt.want, matchAll(t, src, tt.sel))
		})
	}
}

func TestPossibleTypes(t *testing.T) {
	tests := []struct {
		sel     string
		types   []string
		bounded bool
	}{
		{"IfStatement", []string{"IfStatement"}, true},
		{"IfStatement:exit", []string{"IfStatement"}, true},
		{"*", nil, false},
		{"[name='x']", nil, false},
		{"Identifier[name='x']", []string{"Identifier"}, true},
		{":matches(A, B)", []string{"A", "B"}, true},
		{":matches(A, [x])", nil, false},
		{"A > B", []string{"B"}, true},
		{"A ~ B", []string{"B"}, true},
		{"A B + C", []string{"C"}, true},
		{":function", FunctionTypes, true},
		{":function:matches(FunctionExpression, Identifier)", []string{"FunctionExpression"}, true},
		{"A:matches(B, C)", []string{}, true},
		{":not(A)", nil, false},
		{":has(A)", nil, false},
		{"A:has(> B)", []string{"A"}, true},
		{"A > *", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.sel, func(t *testing.T) {
			s, err := Parse(tt.sel)
			require.NoError(t, err)
			types, bounded := s.PossibleTypes()
			assert.Equal(t, tt.bounded, bounded)
			if tt.bounded {
				assert.ElementsMatch(t, tt.types, types)
			}
		})
	}
}

func TestParseExit(t *testing.T) {
	s, err := Parse("FunctionDeclaration > Identifier:exit")
	require.NoError(t, err)
	assert.True(t, s.IsExit)
	assert.Equal(t, "FunctionDeclaration > Identifier:exit", s.Source)

	s, err = Parse("FunctionDeclaration")
	require.NoError(t, err)
	assert.False(t, s.IsExit)
}

func TestParseErrors(t *testing.T) {
	for _, sel := range []string{
		"",
		"A >",
		"[name='x'",
		"A:unknown",
		":nth-child(x)",
		":not(A",
		"[name=/(/]",
		"A)",
		"[name='unterminated]",
		":has(~ A)",
		":has(>)",
		":has(> A",
	} {
		t.Run(sel, func(t *testing.T) {
			_, err := Parse(sel)
			require.Error(t, err)
			var se *SyntaxError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, sel, se.Selector)
			assert.Contains(t, err.Error(), "syntax error in selector")
		})
	}
}

func TestParseCache(t *testing.T) {
	a, err := Parse("IfStatement > BlockStatement")
	require.NoError(t, err)
	b, err := Parse("IfStatement > BlockStatement")
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestMustParse(t *testing.T) {
	assert.NotPanics(t, func() { MustParse("Identifier") })
	assert.Panics(t, func() { MustParse("[") })
}

func TestIsBareType(t *testing.T) {
	assert.True(t, IsBareType("IfStatement"))
	assert.True(t, IsBareType("IfStatement:exit"))
	assert.False(t, IsBareType("IfStatement > Identifier"))
	assert.False(t, IsBareType("*"))
	assert.False(t, IsBareType(":exit"))
	assert.False(t, IsBareType("onCodePath-Start"))
}
