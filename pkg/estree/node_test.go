package estree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ident(name string) *Node {
	return New("Identifier").Set("name", name)
}

func TestNodeFields(t *testing.T) {
	test := ident("a")
	body := New("BlockStatement").SetList("body")
	n := New("IfStatement").
		SetChild("consequent", body).
		SetChild("test", test).
		SetChild("alternate", nil)

	assert.Equal(t, test, n.Child("test"))
	assert.Nil(t, n.Child("alternate"))
	assert.True(t, n.Has("alternate"))
	assert.False(t, n.Has("label"))
	assert.Equal(t, []string{"test", "consequent", "alternate"}, n.FieldNames())
	assert.Equal(t, []*Node{test, body}, n.Children())

	v, ok := n.Value("alternate")
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestNodeAttributes(t *testing.T) {
	n := New("LogicalExpression").Set("operator", "&&").Set("optional", true)
	assert.Equal(t, "&&", n.Str("operator"))
	assert.True(t, n.Bool("optional"))
	assert.Equal(t, "", n.Str("missing"))

	v, ok := n.Value("operator")
	require.True(t, ok)
	assert.Equal(t, "&&", v)
}

func TestAppendAndLocation(t *testing.T) {
	a := New("ExpressionStatement")
	b := New("ExpressionStatement")
	prog := New("Program").Append("body", a).Append("body", b)
	LinkParents(prog)

	assert.Len(t, prog.List("body"), 2)
	name, idx := b.Location()
	assert.Equal(t, "body", name)
	assert.Equal(t, 1, idx)
	assert.Equal(t, []*Node{a, b}, b.Siblings())

	name, idx = prog.Location()
	assert.Equal(t, "", name)
	assert.Equal(t, -1, idx)
}

func TestTraverseOrder(t *testing.T) {
	// a && b;
	expr := New("LogicalExpression").Set("operator", "&&").
		SetChild("left", ident("a")).
		SetChild("right", ident("b"))
	prog := New("Program").SetList("body", New("ExpressionStatement").SetChild("expression", expr))

	var events []string
	Traverse(prog, VisitorFuncs{
		Enter: func(n *Node) {
			if n.Type != "Program" {
				require.NotNil(t, n.Parent)
			}
			events = append(events, n.Type+n.Name())
		},
		Leave: func(n *Node) { events = append(events, n.Type+n.Name()+":exit") },
	})

	assert.Equal(t, []string{
		"Program",
		"ExpressionStatement",
		"LogicalExpression",
		"Identifiera",
		"Identifiera:exit",
		"Identifierb",
		"Identifierb:exit",
		"LogicalExpression:exit",
		"ExpressionStatement:exit",
		"Program:exit",
	}, events)
}

func TestPredicates(t *testing.T) {
	assert.True(t, New("ArrowFunctionExpression").IsFunction())
	assert.False(t, New("ClassDeclaration").IsFunction())
	assert.True(t, New("ForOfStatement").IsLoop())
	assert.False(t, New("SwitchStatement").IsLoop())
}
