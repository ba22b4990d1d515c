// Package selector compiles and matches structural AST selectors in the
// esquery dialect, e.g. "IfStatement > BlockStatement" or
// "CallExpression[callee.name='require']:exit".
//
// Supported: node types and "*", attributes with =, !=, <, <=, >, >=,
// regular expressions and type(), fields (".test"), the descendant, child
// and sibling combinators, :not, :matches, :is, :has (arguments may start
// with ">"), the child position classes and the node classes such as
// :function. Not supported: :has arguments starting with "~" or "+", and
// :scope.
package selector

import (
	"fmt"
	"strings"

	"github.com/tidwall/tinylru"

	"github.com/panbanda/jsflow/pkg/estree"
)

const exitSuffix = ":exit"

// FunctionTypes are the node types matched by the :function class.
var FunctionTypes = []string{"FunctionDeclaration", "FunctionExpression", "ArrowFunctionExpression"}

// Selector is a compiled selector.
type Selector struct {
	// Source is the selector as written, including any ":exit" suffix.
	Source string
	// IsExit reports whether the selector fires when leaving a node.
	IsExit bool

	root    matcher
	types   []string
	bounded bool
}

// PossibleTypes returns the node types the selector can match. The second
// result is false when the selector may match any node type.
func (s *Selector) PossibleTypes() ([]string, bool) {
	return s.types, s.bounded
}

// Match reports whether node matches the selector. ancestry lists the
// node's ancestors, nearest first.
func (s *Selector) Match(node *estree.Node, ancestry []*estree.Node) bool {
	return s.root.match(node, ancestry)
}

func (s *Selector) String() string { return s.Source }

// SyntaxError is returned for selectors that cannot be parsed.
type SyntaxError struct {
	Selector string
	Offset   int
	Message  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error in selector %q at position %d: %s", e.Selector, e.Offset, e.Message)
}

// DefaultCacheSize bounds the number of compiled selectors kept by Parse.
const DefaultCacheSize = 1024

var cache tinylru.LRU

func init() {
	cache.Resize(DefaultCacheSize)
}

// Parse compiles source. Compiled selectors are cached by source string and
// are safe for concurrent use.
func Parse(source string) (*Selector, error) {
	if v, ok := cache.Get(source); ok {
		return v.(*Selector), nil
	}

	sel, err := compile(source)
	if err != nil {
		return nil, err
	}
	cache.Set(source, sel)
	return sel, nil
}

// MustParse is like Parse but panics on error.
func MustParse(source string) *Selector {
	sel, err := Parse(source)
	if err != nil {
		panic(err)
	}
	return sel
}

func compile(source string) (*Selector, error) {
	clean := strings.TrimSuffix(source, exitSuffix)

	root, err := parseSelector(clean, source)
	if err != nil {
		return nil, err
	}

	types, bounded := possibleTypes(root)
	return &Selector{
		Source:  source,
		IsExit:  strings.HasSuffix(source, exitSuffix),
		root:    root,
		types:   types,
		bounded: bounded,
	}, nil
}

// IsBareType reports whether name is a plain node type subscription such as
// "IfStatement" or "IfStatement:exit", which needs no selector matching.
func IsBareType(name string) bool {
	name = strings.TrimSuffix(name, exitSuffix)
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}
