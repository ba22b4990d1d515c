// Package estree provides an ESTree-shaped syntax tree for JavaScript and
// TypeScript sources, together with the visitor keys and the depth-first
// walker used by the linter.
//
// Nodes carry a type tag, a parent link, source range and location, named
// child fields (either a single node or an ordered list of nodes) and scalar
// attributes such as operators, names and literal values.
package estree

import "slices"

// Position is a line/column pair. Lines are 1-based and columns 0-based.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// SourceLocation spans a node in line/column terms.
type SourceLocation struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Range holds the start and end byte offsets of a node.
type Range [2]int

// Node is a single ESTree node.
type Node struct {
	Type   string
	Parent *Node
	Range  Range
	Loc    SourceLocation

	fields []field
	attrs  map[string]any
}

type field struct {
	name  string
	nodes []*Node
	list  bool
}

// New creates a node of the given type.
func New(typ string) *Node {
	return &Node{Type: typ}
}

// Set stores a scalar attribute (operator, name, value, flags).
func (n *Node) Set(name string, value any) *Node {
	if n.attrs == nil {
		n.attrs = make(map[string]any)
	}
	n.attrs[name] = value
	return n
}

// Attr returns the scalar attribute with the given name.
func (n *Node) Attr(name string) (any, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

// Str returns a string attribute, or "" when absent.
func (n *Node) Str(name string) string {
	s, _ := n.attrs[name].(string)
	return s
}

// Bool returns a boolean attribute, or false when absent.
func (n *Node) Bool(name string) bool {
	b, _ := n.attrs[name].(bool)
	return b
}

// SetChild stores a single-node field. A nil child records an explicit null.
func (n *Node) SetChild(name string, child *Node) *Node {
	n.setField(name, []*Node{child}, false)
	return n
}

// SetList stores a list field.
func (n *Node) SetList(name string, children ...*Node) *Node {
	n.setField(name, children, true)
	return n
}

// Append adds children to a list field, creating it if needed.
func (n *Node) Append(name string, children ...*Node) *Node {
	if f := n.lookup(name); f != nil {
		f.nodes = append(f.nodes, children...)
		f.list = true
		return n
	}
	return n.SetList(name, children...)
}

func (n *Node) setField(name string, nodes []*Node, list bool) {
	if f := n.lookup(name); f != nil {
		f.nodes = nodes
		f.list = list
		return
	}
	n.fields = append(n.fields, field{name: name, nodes: nodes, list: list})
}

func (n *Node) lookup(name string) *field {
	for i := range n.fields {
		if n.fields[i].name == name {
			return &n.fields[i]
		}
	}
	return nil
}

// Child returns the single-node field with the given name, or nil.
func (n *Node) Child(name string) *Node {
	if n == nil {
		return nil
	}
	f := n.lookup(name)
	if f == nil || f.list || len(f.nodes) == 0 {
		return nil
	}
	return f.nodes[0]
}

// List returns the list field with the given name.
func (n *Node) List(name string) []*Node {
	if n == nil {
		return nil
	}
	f := n.lookup(name)
	if f == nil || !f.list {
		return nil
	}
	return f.nodes
}

// Has reports whether a field or attribute with the given name exists.
func (n *Node) Has(name string) bool {
	if n.lookup(name) != nil {
		return true
	}
	_, ok := n.attrs[name]
	return ok
}

// Value returns a field or attribute by name. Single-node fields yield a
// *Node, list fields a []*Node and attributes their scalar value.
func (n *Node) Value(name string) (any, bool) {
	if f := n.lookup(name); f != nil {
		if f.list {
			return f.nodes, true
		}
		if len(f.nodes) == 0 || f.nodes[0] == nil {
			return nil, true
		}
		return f.nodes[0], true
	}
	v, ok := n.attrs[name]
	return v, ok
}

// FieldNames returns child field names in visiting order.
func (n *Node) FieldNames() []string {
	keys := VisitorKeys[n.Type]
	names := make([]string, 0, len(n.fields))
	for _, k := range keys {
		if n.lookup(k) != nil {
			names = append(names, k)
		}
	}
	for _, f := range n.fields {
		if !slices.Contains(keys, f.name) {
			names = append(names, f.name)
		}
	}
	return names
}

// Children returns all non-nil child nodes in visiting order.
func (n *Node) Children() []*Node {
	var out []*Node
	for _, name := range n.FieldNames() {
		for _, c := range n.lookup(name).nodes {
			if c != nil {
				out = append(out, c)
			}
		}
	}
	return out
}

// Location returns the field name under which n is stored in its parent and,
// for list fields, its index. The index is -1 for single-node fields.
func (n *Node) Location() (string, int) {
	if n.Parent == nil {
		return "", -1
	}
	for _, f := range n.Parent.fields {
		for i, c := range f.nodes {
			if c == n {
				if f.list {
					return f.name, i
				}
				return f.name, -1
			}
		}
	}
	return "", -1
}

// Siblings returns the list n belongs to in its parent, if any.
func (n *Node) Siblings() []*Node {
	name, idx := n.Location()
	if idx < 0 {
		return nil
	}
	return n.Parent.List(name)
}

// Name is shorthand for the "name" attribute of identifiers and labels.
func (n *Node) Name() string {
	if n == nil {
		return ""
	}
	return n.Str("name")
}

// IsFunction reports whether n starts a function scope.
func (n *Node) IsFunction() bool {
	switch n.Type {
	case "FunctionDeclaration", "FunctionExpression", "ArrowFunctionExpression":
		return true
	}
	return false
}

// IsLoop reports whether n is one of the five loop statements.
func (n *Node) IsLoop() bool {
	switch n.Type {
	case "WhileStatement", "DoWhileStatement", "ForStatement", "ForInStatement", "ForOfStatement":
		return true
	}
	return false
}
