package selector

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/panbanda/jsflow/pkg/estree"
)

type matcher interface {
	match(node *estree.Node, ancestry []*estree.Node) bool
}

type wildcard struct{}

func (wildcard) match(*estree.Node, []*estree.Node) bool { return true }

type identifier struct{ name string }

func (m *identifier) match(node *estree.Node, _ []*estree.Node) bool {
	return node.Type == m.name
}

type compound struct{ selectors []matcher }

func (m *compound) match(node *estree.Node, ancestry []*estree.Node) bool {
	for _, s := range m.selectors {
		if !s.match(node, ancestry) {
			return false
		}
	}
	return true
}

type matchesSel struct{ selectors []matcher }

func (m *matchesSel) match(node *estree.Node, ancestry []*estree.Node) bool {
	for _, s := range m.selectors {
		if s.match(node, ancestry) {
			return true
		}
	}
	return false
}

type notSel struct{ selectors []matcher }

func (m *notSel) match(node *estree.Node, ancestry []*estree.Node) bool {
	for _, s := range m.selectors {
		if s.match(node, ancestry) {
			return false
		}
	}
	return true
}

// hasSel matches when a descendant of the node matches. Descendants see
// their ancestry up to and including the node, so the node itself is the
// last ancestor.
type hasSel struct{ selectors []matcher }

func (m *hasSel) match(node *estree.Node, _ []*estree.Node) bool {
	var found bool
	var walk func(n *estree.Node, ancestry []*estree.Node)
	walk = func(n *estree.Node, ancestry []*estree.Node) {
		for _, c := range n.Children() {
			if found {
				return
			}
			chain := append([]*estree.Node{n}, ancestry...)
			for _, s := range m.selectors {
				if s.match(c, chain) {
					found = true
					return
				}
			}
			walk(c, chain)
		}
	}
	walk(node, nil)
	return found
}

// anchor matches the node a :has is evaluated for, which is the only node
// without ancestors during that evaluation.
type anchor struct{}

func (anchor) match(_ *estree.Node, ancestry []*estree.Node) bool { return len(ancestry) == 0 }

type combinator struct {
	kind        byte // ' ', '>', '~', '+'
	left, right matcher
}

func (m *combinator) match(node *estree.Node, ancestry []*estree.Node) bool {
	if !m.right.match(node, ancestry) {
		return false
	}

	switch m.kind {
	case '>':
		return len(ancestry) > 0 && m.left.match(ancestry[0], ancestry[1:])
	case ' ':
		for i := range ancestry {
			if m.left.match(ancestry[i], ancestry[i+1:]) {
				return true
			}
		}
		return false
	case '~':
		return siblingMatch(node, ancestry, func(list []*estree.Node, idx int) bool {
			for _, s := range list[:idx] {
				if s != nil && m.left.match(s, ancestry) {
					return true
				}
			}
			return false
		})
	case '+':
		return siblingMatch(node, ancestry, func(list []*estree.Node, idx int) bool {
			return idx > 0 && list[idx-1] != nil && m.left.match(list[idx-1], ancestry)
		})
	}
	return false
}

// siblingMatch calls check with every list field of the parent that
// contains node.
func siblingMatch(node *estree.Node, ancestry []*estree.Node, check func(list []*estree.Node, idx int) bool) bool {
	if len(ancestry) == 0 {
		return false
	}
	parent := ancestry[0]
	for _, name := range parent.FieldNames() {
		list := parent.List(name)
		for i, c := range list {
			if c == node && check(list, i) {
				return true
			}
		}
	}
	return false
}

type nthChild struct {
	n       int
	fromEnd bool
}

func (m *nthChild) match(node *estree.Node, ancestry []*estree.Node) bool {
	return siblingMatch(node, ancestry, func(list []*estree.Node, idx int) bool {
		if m.fromEnd {
			return idx == len(list)-m.n
		}
		return idx == m.n-1
	})
}

type field struct{ path []string }

func (m *field) match(node *estree.Node, ancestry []*estree.Node) bool {
	if len(ancestry) < len(m.path) {
		return false
	}
	return inPath(node, ancestry[len(m.path)-1], m.path)
}

func inPath(node, current *estree.Node, path []string) bool {
	if len(path) == 0 {
		return node == current
	}
	if current == nil {
		return false
	}
	v, ok := current.Value(path[0])
	if !ok {
		return false
	}
	switch v := v.(type) {
	case *estree.Node:
		return inPath(node, v, path[1:])
	case []*estree.Node:
		for _, c := range v {
			if inPath(node, c, path[1:]) {
				return true
			}
		}
	}
	return false
}

type class struct{ name string }

func (m *class) match(node *estree.Node, ancestry []*estree.Node) bool {
	t := node.Type
	switch m.name {
	case "statement":
		return strings.HasSuffix(t, "Statement") || strings.HasSuffix(t, "Declaration")
	case "declaration":
		return strings.HasSuffix(t, "Declaration")
	case "pattern":
		if strings.HasSuffix(t, "Pattern") {
			return true
		}
		return isExpression(node, ancestry)
	case "expression":
		return isExpression(node, ancestry)
	case "function":
		return node.IsFunction()
	}
	return false
}

func isExpression(node *estree.Node, ancestry []*estree.Node) bool {
	t := node.Type
	switch {
	case strings.HasSuffix(t, "Expression"), strings.HasSuffix(t, "Literal"), t == "MetaProperty":
		return true
	case t == "Identifier":
		return len(ancestry) == 0 || ancestry[0].Type != "MetaProperty"
	}
	return false
}

type valueKind int

const (
	valueNone valueKind = iota
	valueLiteral
	valueRegexp
	valueType
)

type attrValue struct {
	kind    valueKind
	literal string
	number  bool
	re      *regexp.Regexp
}

type attribute struct {
	path  []string
	op    string
	value attrValue
}

// missing marks an attribute path that does not resolve.
type missing struct{}

func (m *attribute) match(node *estree.Node, _ []*estree.Node) bool {
	v := lookup(node, m.path)

	switch m.op {
	case "":
		_, absent := v.(missing)
		return !absent && v != nil
	case "=":
		return m.equal(v)
	case "!=":
		return !m.equal(v)
	}
	return m.compare(v)
}

func (m *attribute) equal(v any) bool {
	switch m.value.kind {
	case valueRegexp:
		s, ok := v.(string)
		return ok && m.value.re.MatchString(s)
	case valueType:
		return typeOf(v) == m.value.literal
	}
	if m.value.number {
		if f, ok := v.(float64); ok {
			want, _ := strconv.ParseFloat(m.value.literal, 64)
			return f == want
		}
	}
	return toString(v) == m.value.literal
}

func (m *attribute) compare(v any) bool {
	var cmp int
	if s, ok := v.(string); ok && !m.value.number {
		cmp = strings.Compare(s, m.value.literal)
	} else {
		a := toNumber(v)
		b, err := strconv.ParseFloat(m.value.literal, 64)
		if err != nil || math.IsNaN(a) {
			return false
		}
		switch {
		case a < b:
			cmp = -1
		case a > b:
			cmp = 1
		}
	}

	switch m.op {
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	}
	return false
}

// lookup resolves a dotted attribute path. It returns missing{} when a step
// does not exist.
func lookup(node *estree.Node, path []string) any {
	var cur any = node
	for _, key := range path {
		switch c := cur.(type) {
		case *estree.Node:
			if c == nil {
				return missing{}
			}
			if key == "type" {
				cur = c.Type
				continue
			}
			v, ok := c.Value(key)
			if !ok {
				return missing{}
			}
			cur = v
		case []*estree.Node:
			if key == "length" {
				cur = float64(len(c))
				continue
			}
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(c) {
				return missing{}
			}
			cur = c[i]
		default:
			return missing{}
		}
	}
	return cur
}

func typeOf(v any) string {
	switch v.(type) {
	case missing:
		return "undefined"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	}
	return "object"
}

func toString(v any) string {
	switch v := v.(type) {
	case missing:
		return "undefined"
	case nil:
		return "null"
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case *estree.Node:
		if v == nil {
			return "null"
		}
	}
	return "[object Object]"
}

func toNumber(v any) float64 {
	switch v := v.(type) {
	case float64:
		return v
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	case nil:
		return 0
	}
	return math.NaN()
}
